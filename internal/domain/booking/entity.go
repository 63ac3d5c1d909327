package booking

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrStatusAlreadySet = errors.New("booking already has this status")

// Booking is one rental reservation of one item by one user over a time
// interval. Item and booker are held by id only; the catalogs own the records.
type Booking struct {
	id        uuid.UUID
	itemID    uuid.UUID
	bookerID  uuid.UUID
	start     time.Time
	end       time.Time
	status    Status
	createdAt time.Time
}

// NewBooking constructs a booking in WAITING status. Period validity
// (start before end, future-dated) is a request-validation concern and is
// checked upstream; it is not re-validated here.
func NewBooking(itemID, bookerID uuid.UUID, start, end time.Time, now time.Time) *Booking {
	return &Booking{
		id:        uuid.New(),
		itemID:    itemID,
		bookerID:  bookerID,
		start:     start,
		end:       end,
		status:    StatusWaiting,
		createdAt: now,
	}
}

func ReconstructBooking(
	id, itemID, bookerID uuid.UUID,
	start, end time.Time,
	status Status,
	createdAt time.Time,
) *Booking {
	return &Booking{
		id:        id,
		itemID:    itemID,
		bookerID:  bookerID,
		start:     start,
		end:       end,
		status:    status,
		createdAt: createdAt,
	}
}

// Resolve moves the booking into a terminal status. Repeating the same
// terminal status is rejected; the guard intentionally only checks the target
// status, so WAITING→APPROVED→REJECTED remains possible.
func (b *Booking) Resolve(approved bool) error {
	if approved && b.status == StatusApproved {
		return ErrStatusAlreadySet
	}
	if !approved && b.status == StatusRejected {
		return ErrStatusAlreadySet
	}
	if approved {
		b.status = StatusApproved
	} else {
		b.status = StatusRejected
	}
	return nil
}

func (b *Booking) HasStarted(now time.Time) bool {
	return !b.start.After(now)
}

func (b *Booking) HasEnded(now time.Time) bool {
	return b.end.Before(now)
}

// InState reports whether the booking falls into the given classification
// at the given instant.
func (b *Booking) InState(s State, now time.Time) bool {
	switch s {
	case StateAll:
		return true
	case StateCurrent:
		return b.HasStarted(now) && b.end.After(now)
	case StatePast:
		return b.HasEnded(now)
	case StateFuture:
		return b.start.After(now)
	case StateWaiting:
		return b.status == StatusWaiting
	case StateRejected:
		return b.status == StatusRejected
	default:
		return false
	}
}

func (b *Booking) ID() uuid.UUID        { return b.id }
func (b *Booking) ItemID() uuid.UUID    { return b.itemID }
func (b *Booking) BookerID() uuid.UUID  { return b.bookerID }
func (b *Booking) Start() time.Time     { return b.start }
func (b *Booking) End() time.Time       { return b.end }
func (b *Booking) Status() Status       { return b.status }
func (b *Booking) CreatedAt() time.Time { return b.createdAt }
