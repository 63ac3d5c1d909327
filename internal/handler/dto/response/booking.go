package response

import (
	"time"

	"shareit/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type BookingResponse struct {
	ID     uuid.UUID       `json:"id"`
	Start  time.Time       `json:"start"`
	End    time.Time       `json:"end"`
	Status string          `json:"status"`
	Booker UserRefResponse `json:"booker"`
	Item   ItemRefResponse `json:"item"`
}

type UserRefResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type ItemRefResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func FromBookingView(view *queries.BookingView) *BookingResponse {
	var resp BookingResponse
	_ = copier.Copy(&resp, view)
	return &resp
}

func FromBookingViews(views []*queries.BookingView) []*BookingResponse {
	resp := make([]*BookingResponse, len(views))
	for i, view := range views {
		resp[i] = FromBookingView(view)
	}
	return resp
}
