package memstore

import (
	"context"
	"sort"
	"time"

	"shareit/internal/domain/booking"
	"shareit/internal/domain/item"
	"shareit/internal/infra"
	"shareit/internal/usecase/queries"

	"github.com/google/uuid"
)

// The read side reuses the same arena. Views are assembled the way the SQL
// store joins them; ordering matches the SQL ORDER BY clauses.

func (s *Store) BookingReads() queries.BookingReadStore { return (*bookingReads)(s) }
func (s *Store) ItemReads() queries.ItemReadStore       { return (*itemReads)(s) }
func (s *Store) UserReads() queries.UserReadStore       { return (*userReads)(s) }
func (s *Store) CommentReads() queries.CommentReadStore { return (*commentReads)(s) }

type bookingReads Store

func (s *bookingReads) FindByID(_ context.Context, id uuid.UUID) (*queries.BookingView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	return s.bookingView(b)
}

func (s *bookingReads) ListByBooker(_ context.Context, bookerID uuid.UUID, state booking.State, now time.Time, limit, offset int32) ([]*queries.BookingView, error) {
	return s.list(func(b *booking.Booking) bool {
		return b.BookerID() == bookerID
	}, state, now, limit, offset)
}

func (s *bookingReads) ListByOwner(_ context.Context, ownerID uuid.UUID, state booking.State, now time.Time, limit, offset int32) ([]*queries.BookingView, error) {
	return s.list(func(b *booking.Booking) bool {
		i, ok := s.items[b.ItemID()]
		return ok && i.OwnerID() == ownerID
	}, state, now, limit, offset)
}

func (s *bookingReads) list(subject func(*booking.Booking) bool, state booking.State, now time.Time, limit, offset int32) ([]*queries.BookingView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*booking.Booking, 0)
	for _, b := range s.bookings {
		if subject(b) && b.InState(state, now) {
			matched = append(matched, b)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Start().After(matched[j].Start())
	})

	lo := min(int(offset), len(matched))
	hi := min(lo+int(limit), len(matched))

	views := make([]*queries.BookingView, 0, hi-lo)
	for _, b := range matched[lo:hi] {
		view, err := s.bookingView(b)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// CurrentOrPastForItem picks the latest booking that has started, current or
// past alike, matching what the SQL query resolves to.
func (s *bookingReads) CurrentOrPastForItem(_ context.Context, itemID uuid.UUID, now time.Time) (*queries.BookingRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *booking.Booking
	for _, b := range s.bookings {
		if b.ItemID() != itemID || !b.Start().Before(now) {
			continue
		}
		if best == nil || b.Start().After(best.Start()) {
			best = b
		}
	}
	return bookingRef(best), nil
}

func (s *bookingReads) FutureForItem(_ context.Context, itemID uuid.UUID, now time.Time) (*queries.BookingRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *booking.Booking
	for _, b := range s.bookings {
		if b.ItemID() != itemID || !b.Start().After(now) {
			continue
		}
		if best == nil || b.Start().Before(best.Start()) {
			best = b
		}
	}
	return bookingRef(best), nil
}

type itemReads Store

func (s *itemReads) FindByID(_ context.Context, id uuid.UUID) (*queries.ItemView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.items[id]
	if !ok {
		return nil, infra.WrapRepoErr("item not found", nil, infra.KindNotFound)
	}
	return itemView(i), nil
}

func (s *itemReads) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*queries.ItemView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]*queries.ItemView, 0)
	for _, id := range s.itemOrder {
		if i := s.items[id]; i.OwnerID() == ownerID {
			views = append(views, itemView(i))
		}
	}
	return views, nil
}

type userReads Store

func (s *userReads) FindByID(_ context.Context, id uuid.UUID) (*queries.UserView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, infra.WrapRepoErr("user not found", nil, infra.KindNotFound)
	}
	return &queries.UserView{ID: u.ID(), Name: u.Name(), Email: u.Email()}, nil
}

func (s *userReads) ExistsByID(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.users[id]
	return ok, nil
}

type commentReads Store

func (s *commentReads) ListByItem(_ context.Context, itemID uuid.UUID) ([]queries.CommentView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]queries.CommentView, 0)
	for _, id := range s.commentOrder {
		c := s.comments[id]
		if c.ItemID() != itemID {
			continue
		}
		authorName := ""
		if u, ok := s.users[c.AuthorID()]; ok {
			authorName = u.Name()
		}
		views = append(views, queries.CommentView{
			ID:         c.ID(),
			Text:       c.Text(),
			AuthorName: authorName,
			CreatedAt:  c.CreatedAt(),
		})
	}
	return views, nil
}

func itemView(i *item.Item) *queries.ItemView {
	return &queries.ItemView{
		ID:          i.ID(),
		Name:        i.Name(),
		Description: i.Description(),
		Available:   i.Available(),
		OwnerID:     i.OwnerID(),
	}
}

func bookingRef(b *booking.Booking) *queries.BookingRef {
	if b == nil {
		return nil
	}
	return &queries.BookingRef{
		ID:       b.ID(),
		BookerID: b.BookerID(),
		Start:    b.Start(),
		End:      b.End(),
	}
}

func (s *bookingReads) bookingView(b *booking.Booking) (*queries.BookingView, error) {
	u, ok := s.users[b.BookerID()]
	if !ok {
		return nil, infra.WrapRepoErr("booker not found for booking", nil, infra.KindNotFound)
	}
	i, ok := s.items[b.ItemID()]
	if !ok {
		return nil, infra.WrapRepoErr("item not found for booking", nil, infra.KindNotFound)
	}
	return &queries.BookingView{
		ID:     b.ID(),
		Start:  b.Start(),
		End:    b.End(),
		Status: string(b.Status()),
		Booker: queries.UserRef{ID: u.ID(), Name: u.Name()},
		Item:   queries.ItemRef{ID: i.ID(), Name: i.Name(), OwnerID: i.OwnerID()},
	}, nil
}
