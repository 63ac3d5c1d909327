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

type ItemReadStore struct {
	db db.DBTX
}

func NewItemReadStore(dbtx db.DBTX) queries.ItemReadStore {
	return &ItemReadStore{db: dbtx}
}

func (s *ItemReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.ItemView, error) {
	const query = `
		SELECT id, name, description, available, owner_id
		FROM items
		WHERE id = $1`

	var view queries.ItemView
	err := s.db.QueryRow(ctx, query, id).Scan(
		&view.ID, &view.Name, &view.Description, &view.Available, &view.OwnerID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("item not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find item", err)
	}
	return &view, nil
}

func (s *ItemReadStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*queries.ItemView, error) {
	const query = `
		SELECT id, name, description, available, owner_id
		FROM items
		WHERE owner_id = $1
		ORDER BY created_at ASC`

	rows, err := s.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list items", err)
	}
	defer rows.Close()

	views := make([]*queries.ItemView, 0)
	for rows.Next() {
		var view queries.ItemView
		if err := rows.Scan(&view.ID, &view.Name, &view.Description, &view.Available, &view.OwnerID); err != nil {
			return nil, infra.WrapRepoErr("failed to scan item row", err)
		}
		views = append(views, &view)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate item rows", err)
	}
	return views, nil
}
