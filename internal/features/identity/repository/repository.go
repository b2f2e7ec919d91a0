package repository

import (
	"context"
	"errors"

	"sharematch-backend/internal/features/identity/models"
)

// ErrNotFound is returned when no profile exists for a user.
var ErrNotFound = errors.New("user profile not found")

// Repository is the user-identity store consumed by identity linkage.
type Repository interface {
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
	SetFullName(ctx context.Context, userID, fullName string) error
}
