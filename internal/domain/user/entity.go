package user

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrEmptyName    = errors.New("user name must not be empty")
	ErrInvalidEmail = errors.New("invalid email address")
)

type User struct {
	id    uuid.UUID
	name  string
	email string
}

func NewUser(name, email string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}

	return &User{
		id:    uuid.New(),
		name:  name,
		email: email,
	}, nil
}

func ReconstructUser(id uuid.UUID, name, email string) *User {
	return &User{id: id, name: name, email: email}
}

func (u *User) ID() uuid.UUID { return u.id }
func (u *User) Name() string  { return u.name }
func (u *User) Email() string { return u.email }
