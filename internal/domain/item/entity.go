package item

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrEmptyName        = errors.New("item name must not be empty")
	ErrEmptyDescription = errors.New("item description must not be empty")
)

// Item is a rentable thing listed by its owner. The availability flag gates
// new bookings; it does not affect existing ones.
type Item struct {
	id          uuid.UUID
	ownerID     uuid.UUID
	name        string
	description string
	available   bool
}

func NewItem(ownerID uuid.UUID, name, description string, available bool) (*Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrEmptyDescription
	}

	return &Item{
		id:          uuid.New(),
		ownerID:     ownerID,
		name:        name,
		description: description,
		available:   available,
	}, nil
}

func ReconstructItem(id, ownerID uuid.UUID, name, description string, available bool) *Item {
	return &Item{
		id:          id,
		ownerID:     ownerID,
		name:        name,
		description: description,
		available:   available,
	}
}

func (i *Item) IsOwnedBy(userID uuid.UUID) bool {
	return i.ownerID == userID
}

func (i *Item) SetAvailable(available bool) {
	i.available = available
}

func (i *Item) ID() uuid.UUID       { return i.id }
func (i *Item) OwnerID() uuid.UUID  { return i.ownerID }
func (i *Item) Name() string        { return i.name }
func (i *Item) Description() string { return i.description }
func (i *Item) Available() bool     { return i.available }
