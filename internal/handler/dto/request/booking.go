package request

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidPeriod = errors.New("start must be before end")
	ErrPeriodInPast  = errors.New("booking period must not start in the past")
)

type CreateBookingRequest struct {
	ItemID uuid.UUID `json:"itemId" binding:"required"`
	Start  time.Time `json:"start" binding:"required"`
	End    time.Time `json:"end" binding:"required"`
}

// Validate checks the period shape; referential checks (user, item,
// availability) belong to the engine.
func (r CreateBookingRequest) Validate(now time.Time) error {
	if !r.Start.Before(r.End) {
		return ErrInvalidPeriod
	}
	if r.Start.Before(now) {
		return ErrPeriodInPast
	}
	return nil
}
