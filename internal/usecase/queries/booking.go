package queries

import (
	"context"
	"time"

	"shareit/internal/domain/booking"
	"shareit/internal/infra"
	"shareit/internal/pkg/clock"
	"shareit/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound        = errs.New("user not found")
	ErrBookingNotFound     = errs.New("booking not found")
	ErrUnknownBookingState = errs.New("unknown booking state")

	// Authorization failure on retrieval. Surfaced to clients exactly like
	// ErrBookingNotFound so existence does not leak; kept distinct so tests
	// and logs can tell the two conditions apart.
	ErrBookingAccessDenied = errs.New("booking access denied")
)

type BookingReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
	ListByBooker(ctx context.Context, bookerID uuid.UUID, state booking.State, now time.Time, limit, offset int32) ([]*BookingView, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, state booking.State, now time.Time, limit, offset int32) ([]*BookingView, error)
	// CurrentOrPastForItem returns the started booking with the latest start
	// (nil when the item has none); FutureForItem the not-yet-started booking
	// with the earliest start.
	CurrentOrPastForItem(ctx context.Context, itemID uuid.UUID, now time.Time) (*BookingRef, error)
	FutureForItem(ctx context.Context, itemID uuid.UUID, now time.Time) (*BookingRef, error)
}

type UserReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*UserView, error)
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
}

type BookingQueries interface {
	// GetByID enforces the booker-or-owner rule.
	GetByID(ctx context.Context, userID, bookingID uuid.UUID) (*BookingView, error)
	// GetByIDSystem skips authorization; for internal read-after-write only.
	GetByIDSystem(ctx context.Context, bookingID uuid.UUID) (*BookingView, error)
	ListByBooker(ctx context.Context, userID uuid.UUID, state string, page Page) ([]*BookingView, error)
	ListByOwner(ctx context.Context, userID uuid.UUID, state string, page Page) ([]*BookingView, error)
}

type bookingQueriesImpl struct {
	bookings BookingReadStore
	users    UserReadStore
	clock    clock.Clock
}

func NewBookingQueries(bookings BookingReadStore, users UserReadStore, clock clock.Clock) BookingQueries {
	return &bookingQueriesImpl{
		bookings: bookings,
		users:    users,
		clock:    clock,
	}
}

func (q *bookingQueriesImpl) GetByID(ctx context.Context, userID, bookingID uuid.UUID) (*BookingView, error) {
	if err := q.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	view, err := q.GetByIDSystem(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if view.Booker.ID != userID && view.Item.OwnerID != userID {
		return nil, ErrBookingAccessDenied
	}
	return view, nil
}

func (q *bookingQueriesImpl) GetByIDSystem(ctx context.Context, bookingID uuid.UUID) (*BookingView, error) {
	view, err := q.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, errs.Wrap(err, "failed to find booking")
	}
	return view, nil
}

func (q *bookingQueriesImpl) ListByBooker(ctx context.Context, userID uuid.UUID, state string, page Page) ([]*BookingView, error) {
	st, err := q.resolveSubject(ctx, userID, state)
	if err != nil {
		return nil, err
	}

	limit, offset := page.LimitOffset()
	views, err := q.bookings.ListByBooker(ctx, userID, st, q.clock.Now(), limit, offset)
	if err != nil {
		return nil, errs.Wrap(err, "failed to list bookings of booker")
	}
	return views, nil
}

func (q *bookingQueriesImpl) ListByOwner(ctx context.Context, userID uuid.UUID, state string, page Page) ([]*BookingView, error) {
	st, err := q.resolveSubject(ctx, userID, state)
	if err != nil {
		return nil, err
	}

	limit, offset := page.LimitOffset()
	views, err := q.bookings.ListByOwner(ctx, userID, st, q.clock.Now(), limit, offset)
	if err != nil {
		return nil, errs.Wrap(err, "failed to list bookings of owner")
	}
	return views, nil
}

func (q *bookingQueriesImpl) resolveSubject(ctx context.Context, userID uuid.UUID, state string) (booking.State, error) {
	if err := q.requireUser(ctx, userID); err != nil {
		return "", err
	}

	st, err := booking.ParseState(state)
	if err != nil {
		return "", errs.Mark(err, ErrUnknownBookingState)
	}
	return st, nil
}

func (q *bookingQueriesImpl) requireUser(ctx context.Context, userID uuid.UUID) error {
	exists, err := q.users.ExistsByID(ctx, userID)
	if err != nil {
		return errs.Wrap(err, "failed to check user existence")
	}
	if !exists {
		return ErrUserNotFound
	}
	return nil
}
