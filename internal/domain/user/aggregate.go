package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/example/ec-stripe-checkout/internal/auth"
	"github.com/example/ec-stripe-checkout/internal/infrastructure/store"
	"github.com/google/uuid"
)

const AggregateType = "User"

var (
	ErrInvalidEmail = errors.New("a valid email address is required")
	ErrInvalidName  = errors.New("name is required")
)

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// Register creates a user with a bcrypt password hash and returns the new
// user id. Email uniqueness is enforced at the API layer against the read
// store.
func (s *Service) Register(ctx context.Context, email, password, name string) (string, error) {
	if !strings.Contains(email, "@") {
		return "", ErrInvalidEmail
	}
	if name == "" {
		return "", ErrInvalidName
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}

	userID := uuid.New().String()
	event := UserRegistered{
		UserID:       userID,
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		RegisteredAt: time.Now(),
	}
	if _, err := s.eventStore.Append(ctx, userID, AggregateType, EventUserRegistered, event); err != nil {
		return "", err
	}
	return userID, nil
}
