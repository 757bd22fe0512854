package entity

import (
	"net/http"
	"time"

	"communitybot/lib/validate"
)

// User is a bot subscriber profile. Created on first /start and never
// touched by the counting logic: points, invites and check-in markers live
// in the state store, keyed by telegram id. Token authenticates requests
// against the HTTP API.
type User struct {
	TelegramId       int64     `json:"telegram_id" bson:"telegram_id" validate:"required"`
	TelegramUsername string    `json:"telegram_username" bson:"telegram_username"`
	Token            string    `json:"token" bson:"token" validate:"required,min=1"`
	InvitedBy        int64     `json:"invited_by,omitempty" bson:"invited_by,omitempty"`
	RegisteredAt     time.Time `json:"registered_at" bson:"registered_at"`
}

func (u *User) Bind(_ *http.Request) error {
	return validate.Struct(u)
}

// UserStats is the per-user counter snapshot served by the HTTP API.
type UserStats struct {
	TelegramId int64 `json:"telegram_id"`
	Points     int64 `json:"points"`
	Invites    int64 `json:"invites"`
	Restricted bool  `json:"restricted"`
}
