package booking

import (
	"context"
	"errors"
	"fmt"

	"aroti/models"
	sessionRepo "aroti/database/repository/session"
	specialistRepo "aroti/database/repository/specialist"
)

// AvailabilityChecker decides whether a slot can be booked. It is read-only.
type AvailabilityChecker struct {
	specialists specialistRepo.SpecialistRepository
	sessions    sessionRepo.SessionRepository
}

func NewAvailabilityChecker(specialists specialistRepo.SpecialistRepository, sessions sessionRepo.SessionRepository) *AvailabilityChecker {
	return &AvailabilityChecker{specialists: specialists, sessions: sessions}
}

// Check returns false without error when the specialist is missing or inactive, or an active
// session already holds the slot. Errors are storage faults.
func (a *AvailabilityChecker) Check(ctx context.Context, specialistID, date, clock string) (bool, error) {
	specialist, err := a.specialists.GetByID(ctx, specialistID)
	if errors.Is(err, specialistRepo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("availability lookup: %w", err)
	}
	if !specialist.Available {
		return false, nil
	}

	holder, err := a.sessions.FindBySlot(ctx, specialistID, date, clock, models.ActiveSessionStatuses...)
	if err != nil {
		return false, fmt.Errorf("availability lookup: %w", err)
	}
	return holder == nil, nil
}
