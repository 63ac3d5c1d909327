package commands

import (
	"context"

	"shareit/internal/domain/user"
	"shareit/internal/infra"
	"shareit/internal/pkg/errs"
	"shareit/internal/usecase/queries"
	"shareit/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrInvalidUser = errs.New("invalid user")
	ErrEmailExists = errs.New("email already registered")
)

type UserCommands interface {
	Create(ctx context.Context, name, email string) (*queries.UserView, error)
}

type userCommandsImpl struct {
	uow         shared.UnitOfWork
	userQueries queries.UserQueries
}

func NewUserCommands(uow shared.UnitOfWork, userQueries queries.UserQueries) UserCommands {
	return &userCommandsImpl{
		uow:         uow,
		userQueries: userQueries,
	}
}

func (c *userCommandsImpl) Create(ctx context.Context, name, email string) (*queries.UserView, error) {
	var userID uuid.UUID

	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		u, err := user.NewUser(name, email)
		if err != nil {
			return errs.Mark(err, ErrInvalidUser)
		}

		userID, err = tx.Users().Create(ctx, u)
		if err != nil {
			if infra.IsKind(err, infra.KindDuplicateKey) {
				return ErrEmailExists
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return c.userQueries.GetByID(ctx, userID)
}
