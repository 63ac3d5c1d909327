package repository

import (
	"context"

	"shareit/internal/domain/user"
	"shareit/internal/infra"
	"shareit/internal/infra/db"
	"shareit/internal/usecase/shared"

	"github.com/google/uuid"
)

type UserRepository struct {
	db db.DBTX
}

func NewUserRepository(dbtx db.DBTX) shared.UserRepository {
	return &UserRepository{db: dbtx}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) (uuid.UUID, error) {
	const query = `
		INSERT INTO users (id, name, email)
		VALUES ($1, $2, $3)
		RETURNING id`

	var id uuid.UUID
	err := r.db.QueryRow(ctx, query, u.ID(), u.Name(), u.Email()).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, infra.WrapRepoErr("email already registered", err, infra.KindDuplicateKey)
		}
		return uuid.Nil, infra.WrapRepoErr("failed to insert user", err)
	}
	return id, nil
}

func (r *UserRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, infra.WrapRepoErr("failed to check user existence", err)
	}
	return exists, nil
}
