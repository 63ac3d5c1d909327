package repository

import (
	"context"
	"errors"

	"shareit/internal/domain/item"
	"shareit/internal/infra"
	"shareit/internal/infra/db"
	"shareit/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgErrCodeUniqueViolation     = "23505"
	pgErrCodeForeignKeyViolation = "23503"
)

type ItemRepository struct {
	db db.DBTX
}

func NewItemRepository(dbtx db.DBTX) shared.ItemRepository {
	return &ItemRepository{db: dbtx}
}

func (r *ItemRepository) Create(ctx context.Context, i *item.Item) (uuid.UUID, error) {
	const query = `
		INSERT INTO items (id, owner_id, name, description, available)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var id uuid.UUID
	err := r.db.QueryRow(ctx, query,
		i.ID(), i.OwnerID(), i.Name(), i.Description(), i.Available(),
	).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return uuid.Nil, infra.WrapRepoErr("item references missing owner", err, infra.KindForeignKeyViolated)
		}
		return uuid.Nil, infra.WrapRepoErr("failed to insert item", err)
	}
	return id, nil
}

func (r *ItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*shared.ItemSnapshot, error) {
	const query = `
		SELECT id, owner_id, name, available
		FROM items
		WHERE id = $1`

	var snap shared.ItemSnapshot
	err := r.db.QueryRow(ctx, query, id).Scan(&snap.ID, &snap.OwnerID, &snap.Name, &snap.Available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("item not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find item", err)
	}
	return &snap, nil
}

func (r *ItemRepository) UpdateAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	const query = `UPDATE items SET available = $2 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, available)
	if err != nil {
		return infra.WrapRepoErr("failed to update item availability", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("item not found", nil, infra.KindNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrCodeUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrCodeForeignKeyViolation
}
