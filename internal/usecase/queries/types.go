package queries

import (
	"time"

	"github.com/google/uuid"
)

// Read models (DTO for read side)
type BookingView struct {
	ID     uuid.UUID `json:"id"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Status string    `json:"status"`
	Booker UserRef   `json:"booker"`
	Item   ItemRef   `json:"item"`
}

type UserRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type ItemRef struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	OwnerID uuid.UUID `json:"-"`
}

// BookingRef is the short form shown on item detail views
// (last/next booking annotation).
type BookingRef struct {
	ID       uuid.UUID `json:"id"`
	BookerID uuid.UUID `json:"bookerId"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

type ItemView struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Available   bool          `json:"available"`
	OwnerID     uuid.UUID     `json:"-"`
	LastBooking *BookingRef   `json:"lastBooking,omitempty"`
	NextBooking *BookingRef   `json:"nextBooking,omitempty"`
	Comments    []CommentView `json:"comments"`
}

type CommentView struct {
	ID         uuid.UUID `json:"id"`
	Text       string    `json:"text"`
	AuthorName string    `json:"authorName"`
	CreatedAt  time.Time `json:"created"`
}

type UserView struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Page carries the raw offset/size pair from the request. The engine
// addresses pages by index from/size; non-multiple offsets alias into the
// same page as their floor-divided index (inherited behavior, kept as is).
type Page struct {
	From int
	Size int
}

func (p Page) LimitOffset() (limit, offset int32) {
	size := p.Size
	if size <= 0 {
		size = 10
	}
	from := p.From
	if from < 0 {
		from = 0
	}
	return int32(size), int32(from / size * size)
}
