package comment

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrEmptyText = errors.New("comment text must not be empty")

// Comment is renter feedback left on an item after a completed booking.
// Whether the author actually completed a booking is checked by the engine,
// not here.
type Comment struct {
	id        uuid.UUID
	itemID    uuid.UUID
	authorID  uuid.UUID
	text      string
	createdAt time.Time
}

func NewComment(itemID, authorID uuid.UUID, text string, now time.Time) (*Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	return &Comment{
		id:        uuid.New(),
		itemID:    itemID,
		authorID:  authorID,
		text:      text,
		createdAt: now,
	}, nil
}

func ReconstructComment(id, itemID, authorID uuid.UUID, text string, createdAt time.Time) *Comment {
	return &Comment{id: id, itemID: itemID, authorID: authorID, text: text, createdAt: createdAt}
}

func (c *Comment) ID() uuid.UUID        { return c.id }
func (c *Comment) ItemID() uuid.UUID    { return c.itemID }
func (c *Comment) AuthorID() uuid.UUID  { return c.authorID }
func (c *Comment) Text() string         { return c.text }
func (c *Comment) CreatedAt() time.Time { return c.createdAt }
