package commands

import (
	"context"
	"errors"
	"time"

	"shareit/internal/domain/booking"
	"shareit/internal/infra"
	"shareit/internal/pkg/clock"
	"shareit/internal/pkg/errs"
	"shareit/internal/usecase/queries"
	"shareit/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound    = errs.New("user not found")
	ErrItemNotFound    = errs.New("item not found")
	ErrBookingNotFound = errs.New("booking not found")
	ErrOwnItemBooking  = errs.New("cannot book own item")
	ErrItemUnavailable = errs.New("item is not available for booking")
	// Approval attempted by someone other than the item owner. Surfaced to
	// clients like ErrItemNotFound so ownership does not leak.
	ErrNotItemOwner = errs.New("user is not the item owner")
	// Repeating the same terminal status on approval.
	ErrBookingStatusConflict = errs.New("booking already resolved to this status")

	ErrDatabaseOperationFailed = errs.New("database operation failed")
)

type BookingCommands interface {
	// Create validates booker, item, ownership, and availability in that
	// order, then persists a WAITING booking.
	Create(ctx context.Context, bookerID, itemID uuid.UUID, start, end time.Time) (*queries.BookingView, error)
	// Resolve approves or rejects a WAITING booking; only the item owner may
	// do so, and a terminal status cannot be repeated.
	Resolve(ctx context.Context, userID, bookingID uuid.UUID, approved bool) (*queries.BookingView, error)
}

type bookingCommandsImpl struct {
	uow            shared.UnitOfWork
	bookingQueries queries.BookingQueries
	clock          clock.Clock
}

func NewBookingCommands(uow shared.UnitOfWork, bookingQueries queries.BookingQueries, clock clock.Clock) BookingCommands {
	return &bookingCommandsImpl{
		uow:            uow,
		bookingQueries: bookingQueries,
		clock:          clock,
	}
}

func (c *bookingCommandsImpl) Create(ctx context.Context, bookerID, itemID uuid.UUID, start, end time.Time) (*queries.BookingView, error) {
	var bookingID uuid.UUID

	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := requireUser(ctx, tx, bookerID); err != nil {
			return err
		}

		itemSnap, err := findItem(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if itemSnap.OwnerID == bookerID {
			return ErrOwnItemBooking
		}
		if !itemSnap.Available {
			return ErrItemUnavailable
		}

		b := booking.NewBooking(itemID, bookerID, start, end, c.clock.Now())
		bookingID, err = tx.Bookings().Create(ctx, b)
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return c.bookingQueries.GetByIDSystem(ctx, bookingID)
}

func (c *bookingCommandsImpl) Resolve(ctx context.Context, userID, bookingID uuid.UUID, approved bool) (*queries.BookingView, error) {
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}

		b, err := tx.Bookings().FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrBookingNotFound
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		itemSnap, err := findItem(ctx, tx, b.ItemID())
		if err != nil {
			return err
		}
		if itemSnap.OwnerID != userID {
			return ErrNotItemOwner
		}

		if err := b.Resolve(approved); err != nil {
			if errors.Is(err, booking.ErrStatusAlreadySet) {
				return ErrBookingStatusConflict
			}
			return err
		}

		if err := tx.Bookings().UpdateStatus(ctx, bookingID, b.Status()); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return c.bookingQueries.GetByIDSystem(ctx, bookingID)
}

func requireUser(ctx context.Context, tx shared.Tx, userID uuid.UUID) error {
	exists, err := tx.Users().ExistsByID(ctx, userID)
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if !exists {
		return ErrUserNotFound
	}
	return nil
}

func findItem(ctx context.Context, tx shared.Tx, itemID uuid.UUID) (*shared.ItemSnapshot, error) {
	itemSnap, err := tx.Items().FindByID(ctx, itemID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return itemSnap, nil
}
