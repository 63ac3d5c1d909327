package queries

import (
	"context"

	"shareit/internal/infra"
	"shareit/internal/pkg/clock"
	"shareit/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrItemNotFound = errs.New("item not found")

type ItemReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ItemView, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*ItemView, error)
}

type CommentReadStore interface {
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]CommentView, error)
}

type ItemQueries interface {
	// GetByID returns the item with comments; last/next booking are filled
	// in only when the viewer is the item's owner.
	GetByID(ctx context.Context, viewerID, itemID uuid.UUID) (*ItemView, error)
	// ListByOwner returns the owner's items, each annotated.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*ItemView, error)
}

type itemQueriesImpl struct {
	items    ItemReadStore
	comments CommentReadStore
	bookings BookingReadStore
	users    UserReadStore
	clock    clock.Clock
}

func NewItemQueries(
	items ItemReadStore,
	comments CommentReadStore,
	bookings BookingReadStore,
	users UserReadStore,
	clock clock.Clock,
) ItemQueries {
	return &itemQueriesImpl{
		items:    items,
		comments: comments,
		bookings: bookings,
		users:    users,
		clock:    clock,
	}
}

func (q *itemQueriesImpl) GetByID(ctx context.Context, viewerID, itemID uuid.UUID) (*ItemView, error) {
	if err := q.requireUser(ctx, viewerID); err != nil {
		return nil, err
	}

	view, err := q.items.FindByID(ctx, itemID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, errs.Wrap(err, "failed to find item")
	}

	view.Comments, err = q.comments.ListByItem(ctx, itemID)
	if err != nil {
		return nil, errs.Wrap(err, "failed to list comments")
	}

	if view.OwnerID == viewerID {
		if err := q.annotate(ctx, view); err != nil {
			return nil, err
		}
	}
	return view, nil
}

func (q *itemQueriesImpl) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*ItemView, error) {
	if err := q.requireUser(ctx, ownerID); err != nil {
		return nil, err
	}

	views, err := q.items.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, errs.Wrap(err, "failed to list items of owner")
	}

	for _, view := range views {
		view.Comments, err = q.comments.ListByItem(ctx, view.ID)
		if err != nil {
			return nil, errs.Wrap(err, "failed to list comments")
		}
		if err := q.annotate(ctx, view); err != nil {
			return nil, err
		}
	}
	return views, nil
}

func (q *itemQueriesImpl) annotate(ctx context.Context, view *ItemView) error {
	now := q.clock.Now()

	last, err := q.bookings.CurrentOrPastForItem(ctx, view.ID, now)
	if err != nil {
		return errs.Wrap(err, "failed to find last booking")
	}
	next, err := q.bookings.FutureForItem(ctx, view.ID, now)
	if err != nil {
		return errs.Wrap(err, "failed to find next booking")
	}

	view.LastBooking = last
	view.NextBooking = next
	return nil
}

func (q *itemQueriesImpl) requireUser(ctx context.Context, userID uuid.UUID) error {
	exists, err := q.users.ExistsByID(ctx, userID)
	if err != nil {
		return errs.Wrap(err, "failed to check user existence")
	}
	if !exists {
		return ErrUserNotFound
	}
	return nil
}
