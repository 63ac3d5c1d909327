package readstore

import (
	"context"

	"shareit/internal/infra"
	"shareit/internal/infra/db"
	"shareit/internal/usecase/queries"

	"github.com/google/uuid"
)

type CommentReadStore struct {
	db db.DBTX
}

func NewCommentReadStore(dbtx db.DBTX) queries.CommentReadStore {
	return &CommentReadStore{db: dbtx}
}

func (s *CommentReadStore) ListByItem(ctx context.Context, itemID uuid.UUID) ([]queries.CommentView, error) {
	const query = `
		SELECT c.id, c.text, u.name, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.item_id = $1
		ORDER BY c.created_at ASC`

	rows, err := s.db.Query(ctx, query, itemID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list comments", err)
	}
	defer rows.Close()

	views := make([]queries.CommentView, 0)
	for rows.Next() {
		var view queries.CommentView
		if err := rows.Scan(&view.ID, &view.Text, &view.AuthorName, &view.CreatedAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan comment row", err)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate comment rows", err)
	}
	return views, nil
}
