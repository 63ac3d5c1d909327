package commands

import (
	"context"

	"shareit/internal/domain/comment"
	"shareit/internal/domain/item"
	"shareit/internal/pkg/clock"
	"shareit/internal/pkg/errs"
	"shareit/internal/usecase/queries"
	"shareit/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrInvalidItem = errs.New("invalid item")
	// Commenting requires a completed (approved, already ended) booking of
	// the item by the author.
	ErrCommentNotAllowed = errs.New("user has not completed a booking of this item")
	ErrInvalidComment    = errs.New("invalid comment")
)

type ItemCommands interface {
	Create(ctx context.Context, ownerID uuid.UUID, name, description string, available bool) (*queries.ItemView, error)
	// UpdateAvailability toggles the booking gate; only the owner may do so.
	UpdateAvailability(ctx context.Context, userID, itemID uuid.UUID, available bool) (*queries.ItemView, error)
	AddComment(ctx context.Context, authorID, itemID uuid.UUID, text string) (*queries.CommentView, error)
}

type itemCommandsImpl struct {
	uow         shared.UnitOfWork
	itemQueries queries.ItemQueries
	userQueries queries.UserQueries
	clock       clock.Clock
}

func NewItemCommands(uow shared.UnitOfWork, itemQueries queries.ItemQueries, userQueries queries.UserQueries, clock clock.Clock) ItemCommands {
	return &itemCommandsImpl{
		uow:         uow,
		itemQueries: itemQueries,
		userQueries: userQueries,
		clock:       clock,
	}
}

func (c *itemCommandsImpl) Create(ctx context.Context, ownerID uuid.UUID, name, description string, available bool) (*queries.ItemView, error) {
	var itemID uuid.UUID

	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := requireUser(ctx, tx, ownerID); err != nil {
			return err
		}

		i, err := item.NewItem(ownerID, name, description, available)
		if err != nil {
			return errs.Mark(err, ErrInvalidItem)
		}

		itemID, err = tx.Items().Create(ctx, i)
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return c.itemQueries.GetByID(ctx, ownerID, itemID)
}

func (c *itemCommandsImpl) UpdateAvailability(ctx context.Context, userID, itemID uuid.UUID, available bool) (*queries.ItemView, error) {
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}

		itemSnap, err := findItem(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if itemSnap.OwnerID != userID {
			return ErrNotItemOwner
		}

		if err := tx.Items().UpdateAvailability(ctx, itemID, available); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return c.itemQueries.GetByID(ctx, userID, itemID)
}

func (c *itemCommandsImpl) AddComment(ctx context.Context, authorID, itemID uuid.UUID, text string) (*queries.CommentView, error) {
	var view queries.CommentView

	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := requireUser(ctx, tx, authorID); err != nil {
			return err
		}
		if _, err := findItem(ctx, tx, itemID); err != nil {
			return err
		}

		now := c.clock.Now()
		finished, err := tx.Bookings().HasFinishedBooking(ctx, authorID, itemID, now)
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if !finished {
			return ErrCommentNotAllowed
		}

		cm, err := comment.NewComment(itemID, authorID, text, now)
		if err != nil {
			return errs.Mark(err, ErrInvalidComment)
		}

		commentID, err := tx.Comments().Create(ctx, cm)
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		view = queries.CommentView{
			ID:        commentID,
			Text:      cm.Text(),
			CreatedAt: cm.CreatedAt(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	author, err := c.userQueries.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	view.AuthorName = author.Name

	return &view, nil
}
