package specialistRepo

import (
	"context"
	"errors"

	"aroti/models"
)

// ErrNotFound is returned when no specialist carries the requested id.
var ErrNotFound = errors.New("specialist not found")

// SpecialistRepository is the catalog lookup the booking flow and the read API depend on.
type SpecialistRepository interface {
	GetByID(ctx context.Context, id string) (*models.Specialist, error)
	List(ctx context.Context, filter models.SpecialistFilter) ([]models.Specialist, error)
	ListReviews(ctx context.Context, specialistID string) ([]models.Review, error)
}
