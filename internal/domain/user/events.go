package user

import "time"

const (
	EventUserRegistered = "UserRegistered"
)

type UserRegistered struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Name         string    `json:"name"`
	RegisteredAt time.Time `json:"registered_at"`
}
