package userRepo

import (
	"context"
	"errors"

	"aroti/models"
)

// ErrNotFound is returned for users with no stored profile.
var ErrNotFound = errors.New("user not found")

// UserRepository stores profiles and notification contacts keyed by identity-provider subject.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
	// Delete removes the user. Deleting an unknown user is not an error.
	Delete(ctx context.Context, id string) error
}
