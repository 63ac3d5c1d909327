package repository

import (
	"context"
	"errors"
	"time"

	"shareit/internal/domain/booking"
	"shareit/internal/infra"
	"shareit/internal/infra/db"
	"shareit/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type BookingRepository struct {
	db db.DBTX
}

func NewBookingRepository(dbtx db.DBTX) shared.BookingRepository {
	return &BookingRepository{db: dbtx}
}

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) (uuid.UUID, error) {
	const query = `
		INSERT INTO bookings (id, item_id, booker_id, start_date, end_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	var id uuid.UUID
	err := r.db.QueryRow(ctx, query,
		b.ID(), b.ItemID(), b.BookerID(), b.Start(), b.End(), string(b.Status()), b.CreatedAt(),
	).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return uuid.Nil, infra.WrapRepoErr("booking references missing row", err, infra.KindForeignKeyViolated)
		}
		return uuid.Nil, infra.WrapRepoErr("failed to insert booking", err)
	}
	return id, nil
}

func (r *BookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	const query = `
		SELECT id, item_id, booker_id, start_date, end_date, status, created_at
		FROM bookings
		WHERE id = $1
		FOR UPDATE`

	var (
		bookingID uuid.UUID
		itemID    uuid.UUID
		bookerID  uuid.UUID
		start     time.Time
		end       time.Time
		status    string
		createdAt time.Time
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&bookingID, &itemID, &bookerID, &start, &end, &status, &createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking for update", err)
	}

	return booking.ReconstructBooking(bookingID, itemID, bookerID, start, end, booking.Status(status), createdAt), nil
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status booking.Status) error {
	const query = `UPDATE bookings SET status = $2 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, string(status))
	if err != nil {
		return infra.WrapRepoErr("failed to update booking status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *BookingRepository) HasFinishedBooking(ctx context.Context, bookerID, itemID uuid.UUID, now time.Time) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1
			FROM bookings
			WHERE booker_id = $1
			  AND item_id = $2
			  AND status = 'APPROVED'
			  AND end_date < $3
		)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, bookerID, itemID, now).Scan(&exists); err != nil {
		return false, infra.WrapRepoErr("failed to check finished booking", err)
	}
	return exists, nil
}
