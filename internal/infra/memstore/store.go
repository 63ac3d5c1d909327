// Package memstore is an in-memory implementation of the persistence ports.
// It backs usecase tests and local runs without Postgres; a single mutex
// stands in for transaction isolation, and a map snapshot taken at the start
// of each unit of work gives rollback-on-error.
package memstore

import (
	"context"
	"maps"
	"sync"
	"time"

	"shareit/internal/domain/booking"
	"shareit/internal/domain/comment"
	"shareit/internal/domain/item"
	"shareit/internal/domain/user"
	"shareit/internal/infra"
	"shareit/internal/usecase/shared"

	"github.com/google/uuid"
)

type Store struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]*user.User
	items    map[uuid.UUID]*item.Item
	bookings map[uuid.UUID]*booking.Booking
	comments map[uuid.UUID]*comment.Comment

	// Insertion order; stands in for created_at ordering.
	itemOrder    []uuid.UUID
	commentOrder []uuid.UUID
}

func New() *Store {
	return &Store{
		users:    make(map[uuid.UUID]*user.User),
		items:    make(map[uuid.UUID]*item.Item),
		bookings: make(map[uuid.UUID]*booking.Booking),
		comments: make(map[uuid.UUID]*comment.Comment),
	}
}

// Within serializes all writers behind one mutex. Entries are never mutated
// in place (updates replace the stored value), so restoring the shallow map
// snapshots is a complete rollback.
func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapUsers := maps.Clone(s.users)
	snapItems := maps.Clone(s.items)
	snapBookings := maps.Clone(s.bookings)
	snapComments := maps.Clone(s.comments)
	snapItemOrder := append([]uuid.UUID(nil), s.itemOrder...)
	snapCommentOrder := append([]uuid.UUID(nil), s.commentOrder...)

	if err := fn(ctx, &memTx{store: s}); err != nil {
		s.users = snapUsers
		s.items = snapItems
		s.bookings = snapBookings
		s.comments = snapComments
		s.itemOrder = snapItemOrder
		s.commentOrder = snapCommentOrder
		return err
	}
	return nil
}

type memTx struct {
	store *Store
}

func (t *memTx) Bookings() shared.BookingRepository { return (*bookingRepo)(t.store) }
func (t *memTx) Items() shared.ItemRepository       { return (*itemRepo)(t.store) }
func (t *memTx) Users() shared.UserRepository       { return (*userRepo)(t.store) }
func (t *memTx) Comments() shared.CommentRepository { return (*commentRepo)(t.store) }

type bookingRepo Store

func (r *bookingRepo) Create(_ context.Context, b *booking.Booking) (uuid.UUID, error) {
	r.bookings[b.ID()] = cloneBooking(b)
	return b.ID(), nil
}

func (r *bookingRepo) FindByIDForUpdate(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return nil, infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	return cloneBooking(b), nil
}

func (r *bookingRepo) UpdateStatus(_ context.Context, id uuid.UUID, status booking.Status) error {
	b, ok := r.bookings[id]
	if !ok {
		return infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	r.bookings[id] = booking.ReconstructBooking(
		b.ID(), b.ItemID(), b.BookerID(), b.Start(), b.End(), status, b.CreatedAt(),
	)
	return nil
}

func (r *bookingRepo) HasFinishedBooking(_ context.Context, bookerID, itemID uuid.UUID, now time.Time) (bool, error) {
	for _, b := range r.bookings {
		if b.BookerID() == bookerID && b.ItemID() == itemID &&
			b.Status() == booking.StatusApproved && b.HasEnded(now) {
			return true, nil
		}
	}
	return false, nil
}

type itemRepo Store

func (r *itemRepo) Create(_ context.Context, i *item.Item) (uuid.UUID, error) {
	r.items[i.ID()] = item.ReconstructItem(i.ID(), i.OwnerID(), i.Name(), i.Description(), i.Available())
	r.itemOrder = append(r.itemOrder, i.ID())
	return i.ID(), nil
}

func (r *itemRepo) FindByID(_ context.Context, id uuid.UUID) (*shared.ItemSnapshot, error) {
	i, ok := r.items[id]
	if !ok {
		return nil, infra.WrapRepoErr("item not found", nil, infra.KindNotFound)
	}
	return &shared.ItemSnapshot{
		ID:        i.ID(),
		OwnerID:   i.OwnerID(),
		Name:      i.Name(),
		Available: i.Available(),
	}, nil
}

func (r *itemRepo) UpdateAvailability(_ context.Context, id uuid.UUID, available bool) error {
	i, ok := r.items[id]
	if !ok {
		return infra.WrapRepoErr("item not found", nil, infra.KindNotFound)
	}
	r.items[id] = item.ReconstructItem(i.ID(), i.OwnerID(), i.Name(), i.Description(), available)
	return nil
}

type userRepo Store

func (r *userRepo) Create(_ context.Context, u *user.User) (uuid.UUID, error) {
	for _, existing := range r.users {
		if existing.Email() == u.Email() {
			return uuid.Nil, infra.WrapRepoErr("email already registered", nil, infra.KindDuplicateKey)
		}
	}
	r.users[u.ID()] = user.ReconstructUser(u.ID(), u.Name(), u.Email())
	return u.ID(), nil
}

func (r *userRepo) ExistsByID(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := r.users[id]
	return ok, nil
}

type commentRepo Store

func (r *commentRepo) Create(_ context.Context, c *comment.Comment) (uuid.UUID, error) {
	r.comments[c.ID()] = comment.ReconstructComment(c.ID(), c.ItemID(), c.AuthorID(), c.Text(), c.CreatedAt())
	r.commentOrder = append(r.commentOrder, c.ID())
	return c.ID(), nil
}

func cloneBooking(b *booking.Booking) *booking.Booking {
	return booking.ReconstructBooking(
		b.ID(), b.ItemID(), b.BookerID(), b.Start(), b.End(), b.Status(), b.CreatedAt(),
	)
}
