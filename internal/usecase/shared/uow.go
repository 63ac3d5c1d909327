package shared

import (
	"context"
	"time"

	"shareit/internal/domain/booking"
	"shareit/internal/domain/comment"
	"shareit/internal/domain/item"
	"shareit/internal/domain/user"

	"github.com/google/uuid"
)

// UnitOfWork is the write-side transaction boundary. Each engine operation is
// one Within call; concurrency safety for the approval status transition and
// the creation availability check relies on the isolation the implementation
// provides (row lock + read committed for Postgres, a single mutex for the
// in-memory store).
type UnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Tx interface {
	Bookings() BookingRepository
	Items() ItemRepository
	Users() UserRepository
	Comments() CommentRepository
}

type BookingRepository interface {
	Create(ctx context.Context, b *booking.Booking) (uuid.UUID, error)
	// FindByIDForUpdate locks the booking row for the rest of the
	// transaction so concurrent approvals serialize.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status booking.Status) error
	// HasFinishedBooking reports whether the user has an APPROVED booking of
	// the item that ended before now. Gate for posting comments.
	HasFinishedBooking(ctx context.Context, bookerID, itemID uuid.UUID, now time.Time) (bool, error)
}

type ItemRepository interface {
	Create(ctx context.Context, i *item.Item) (uuid.UUID, error)
	FindByID(ctx context.Context, id uuid.UUID) (*ItemSnapshot, error)
	UpdateAvailability(ctx context.Context, id uuid.UUID, available bool) error
}

type UserRepository interface {
	Create(ctx context.Context, u *user.User) (uuid.UUID, error)
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
}

type CommentRepository interface {
	Create(ctx context.Context, c *comment.Comment) (uuid.UUID, error)
}

// Minimal snapshot for command-side validation reads.
type ItemSnapshot struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	Available bool
}
