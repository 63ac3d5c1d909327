package readstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shareit/internal/domain/booking"
	"shareit/internal/infra"
	"shareit/internal/infra/db"
	"shareit/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const bookingViewColumns = `
	b.id, b.start_date, b.end_date, b.status,
	u.id, u.name,
	i.id, i.name, i.owner_id`

const bookingViewFrom = `
	FROM bookings b
	JOIN users u ON u.id = b.booker_id
	JOIN items i ON i.id = b.item_id`

type BookingReadStore struct {
	db db.DBTX
}

func NewBookingReadStore(dbtx db.DBTX) queries.BookingReadStore {
	return &BookingReadStore{db: dbtx}
}

func (s *BookingReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.BookingView, error) {
	query := `SELECT` + bookingViewColumns + bookingViewFrom + `
	WHERE b.id = $1`

	view, err := scanBookingView(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking", err)
	}
	return view, nil
}

func (s *BookingReadStore) ListByBooker(ctx context.Context, bookerID uuid.UUID, state booking.State, now time.Time, limit, offset int32) ([]*queries.BookingView, error) {
	return s.list(ctx, "b.booker_id = $1", bookerID, state, now, limit, offset)
}

func (s *BookingReadStore) ListByOwner(ctx context.Context, ownerID uuid.UUID, state booking.State, now time.Time, limit, offset int32) ([]*queries.BookingView, error) {
	return s.list(ctx, "i.owner_id = $1", ownerID, state, now, limit, offset)
}

func (s *BookingReadStore) list(ctx context.Context, subject string, subjectID uuid.UUID, state booking.State, now time.Time, limit, offset int32) ([]*queries.BookingView, error) {
	predicate, args := statePredicate(state, now)
	args = append([]any{subjectID}, args...)

	query := fmt.Sprintf(`SELECT`+bookingViewColumns+bookingViewFrom+`
	WHERE `+subject+predicate+`
	ORDER BY b.start_date DESC
	LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list bookings", err)
	}
	defer rows.Close()

	views := make([]*queries.BookingView, 0)
	for rows.Next() {
		view, err := scanBookingView(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking row", err)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate booking rows", err)
	}
	return views, nil
}

// CurrentOrPastForItem keeps the shape the original listing query had: the
// started-interval predicate dominates (AND binds tighter than OR, and
// end < $2 AND end > $2 is never true), so this is "latest booking that has
// started", current or past alike.
func (s *BookingReadStore) CurrentOrPastForItem(ctx context.Context, itemID uuid.UUID, now time.Time) (*queries.BookingRef, error) {
	query := `
	SELECT b.id, b.booker_id, b.start_date, b.end_date
	FROM bookings b
	WHERE b.item_id = $1 AND b.start_date < $2
	   OR b.end_date < $2 AND b.end_date > $2
	ORDER BY b.start_date DESC NULLS FIRST
	LIMIT 1`

	return s.findRef(ctx, query, itemID, now)
}

func (s *BookingReadStore) FutureForItem(ctx context.Context, itemID uuid.UUID, now time.Time) (*queries.BookingRef, error) {
	query := `
	SELECT b.id, b.booker_id, b.start_date, b.end_date
	FROM bookings b
	WHERE b.item_id = $1 AND b.start_date > $2
	ORDER BY b.start_date ASC NULLS LAST
	LIMIT 1`

	return s.findRef(ctx, query, itemID, now)
}

func (s *BookingReadStore) findRef(ctx context.Context, query string, itemID uuid.UUID, now time.Time) (*queries.BookingRef, error) {
	var ref queries.BookingRef
	err := s.db.QueryRow(ctx, query, itemID, now).Scan(&ref.ID, &ref.BookerID, &ref.Start, &ref.End)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, infra.WrapRepoErr("failed to find booking for item", err)
	}
	return &ref, nil
}

// statePredicate translates a temporal or status classification into SQL.
// $1 is always the subject id; $2, when present, is the evaluation instant.
func statePredicate(state booking.State, now time.Time) (string, []any) {
	switch state {
	case booking.StateCurrent:
		return " AND b.start_date <= $2 AND b.end_date > $2", []any{now}
	case booking.StatePast:
		return " AND b.end_date < $2", []any{now}
	case booking.StateFuture:
		return " AND b.start_date > $2", []any{now}
	case booking.StateWaiting:
		return " AND b.status = 'WAITING'", nil
	case booking.StateRejected:
		return " AND b.status = 'REJECTED'", nil
	default: // StateAll
		return "", nil
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBookingView(row rowScanner) (*queries.BookingView, error) {
	var view queries.BookingView
	err := row.Scan(
		&view.ID, &view.Start, &view.End, &view.Status,
		&view.Booker.ID, &view.Booker.Name,
		&view.Item.ID, &view.Item.Name, &view.Item.OwnerID,
	)
	if err != nil {
		return nil, err
	}
	return &view, nil
}
