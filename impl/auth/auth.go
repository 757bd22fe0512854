package auth

import (
	"fmt"

	"communitybot/entity"
)

type Database interface {
	GetUserByToken(token string) (*entity.User, error)
}

// Auth resolves API tokens to registered users for the HTTP API.
type Auth struct {
	db Database
}

func New(db Database) *Auth {
	return &Auth{db: db}
}

func (a Auth) UserByToken(token string) (*entity.User, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	return a.db.GetUserByToken(token)
}
