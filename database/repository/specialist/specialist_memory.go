package specialistRepo

import (
	"context"
	"sort"
	"sync"

	"aroti/models"
)

// MemorySpecialistRepo is an in-process catalog for tests and the memory driver.
type MemorySpecialistRepo struct {
	mu          sync.RWMutex
	specialists map[string]models.Specialist
	reviews     []models.Review
}

func NewMemorySpecialistRepo(specialists []models.Specialist, reviews []models.Review) *MemorySpecialistRepo {
	r := &MemorySpecialistRepo{specialists: make(map[string]models.Specialist, len(specialists))}
	for _, s := range specialists {
		r.specialists[s.ID] = s
	}
	r.reviews = append(r.reviews, reviews...)
	return r
}

// Put inserts or replaces a specialist.
func (r *MemorySpecialistRepo) Put(s models.Specialist) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specialists[s.ID] = s
}

// UpdatePrice changes a specialist's current price.
func (r *MemorySpecialistRepo) UpdatePrice(id string, price int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.specialists[id]
	if !ok {
		return ErrNotFound
	}
	s.Price = price
	r.specialists[id] = s
	return nil
}

func (r *MemorySpecialistRepo) GetByID(ctx context.Context, id string) (*models.Specialist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.specialists[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *MemorySpecialistRepo) List(ctx context.Context, filter models.SpecialistFilter) ([]models.Specialist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Specialist{}
	for _, s := range r.specialists {
		if filter.Matches(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemorySpecialistRepo) ListReviews(ctx context.Context, specialistID string) ([]models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Review{}
	for _, rv := range r.reviews {
		if rv.SpecialistID == specialistID {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}
