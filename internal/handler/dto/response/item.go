package response

import (
	"time"

	"shareit/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type ItemResponse struct {
	ID          uuid.UUID           `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Available   bool                `json:"available"`
	LastBooking *BookingRefResponse `json:"lastBooking,omitempty"`
	NextBooking *BookingRefResponse `json:"nextBooking,omitempty"`
	Comments    []CommentResponse   `json:"comments"`
}

type BookingRefResponse struct {
	ID       uuid.UUID `json:"id"`
	BookerID uuid.UUID `json:"bookerId"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

type CommentResponse struct {
	ID         uuid.UUID `json:"id"`
	Text       string    `json:"text"`
	AuthorName string    `json:"authorName"`
	CreatedAt  time.Time `json:"created"`
}

func FromItemView(view *queries.ItemView) *ItemResponse {
	var resp ItemResponse
	_ = copier.Copy(&resp, view)
	if resp.Comments == nil {
		resp.Comments = []CommentResponse{}
	}
	return &resp
}

func FromItemViews(views []*queries.ItemView) []*ItemResponse {
	resp := make([]*ItemResponse, len(views))
	for i, view := range views {
		resp[i] = FromItemView(view)
	}
	return resp
}

func FromCommentView(view *queries.CommentView) *CommentResponse {
	var resp CommentResponse
	_ = copier.Copy(&resp, view)
	return &resp
}
