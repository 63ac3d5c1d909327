package repository

import (
	"context"

	"shareit/internal/domain/comment"
	"shareit/internal/infra"
	"shareit/internal/infra/db"
	"shareit/internal/usecase/shared"

	"github.com/google/uuid"
)

type CommentRepository struct {
	db db.DBTX
}

func NewCommentRepository(dbtx db.DBTX) shared.CommentRepository {
	return &CommentRepository{db: dbtx}
}

func (r *CommentRepository) Create(ctx context.Context, c *comment.Comment) (uuid.UUID, error) {
	const query = `
		INSERT INTO comments (id, item_id, author_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var id uuid.UUID
	err := r.db.QueryRow(ctx, query,
		c.ID(), c.ItemID(), c.AuthorID(), c.Text(), c.CreatedAt(),
	).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return uuid.Nil, infra.WrapRepoErr("comment references missing row", err, infra.KindForeignKeyViolated)
		}
		return uuid.Nil, infra.WrapRepoErr("failed to insert comment", err)
	}
	return id, nil
}
