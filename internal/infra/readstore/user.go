package readstore

import (
	"context"
	"errors"

	"shareit/internal/infra"
	"shareit/internal/infra/db"
	"shareit/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UserReadStore struct {
	db db.DBTX
}

func NewUserReadStore(dbtx db.DBTX) queries.UserReadStore {
	return &UserReadStore{db: dbtx}
}

func (s *UserReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.UserView, error) {
	const query = `SELECT id, name, email FROM users WHERE id = $1`

	var view queries.UserView
	err := s.db.QueryRow(ctx, query, id).Scan(&view.ID, &view.Name, &view.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("user not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find user", err)
	}
	return &view, nil
}

func (s *UserReadStore) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`

	var exists bool
	if err := s.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, infra.WrapRepoErr("failed to check user existence", err)
	}
	return exists, nil
}
