package sessionRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"aroti/models"
)

// MemorySessionRepo is an in-process session store for tests and the memory driver.
// A slot index mirrors the storage-level unique constraint.
type MemorySessionRepo struct {
	mu       sync.Mutex
	sessions map[string]models.Session
	slots    map[string]string // slot key -> id of the active session holding it
}

func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{
		sessions: make(map[string]models.Session),
		slots:    make(map[string]string),
	}
}

// Count returns the number of stored sessions.
func (r *MemorySessionRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *MemorySessionRepo) Upsert(ctx context.Context, s *models.Session) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[s.ID]; ok {
		return &existing, nil
	}
	if s.Status.Active() {
		key := s.SlotKey()
		if _, held := r.slots[key]; held {
			return nil, ErrSlotTaken
		}
		r.slots[key] = s.ID
	}
	stored := *s
	r.sessions[s.ID] = stored
	return &stored, nil
}

func (r *MemorySessionRepo) FindBySlot(ctx context.Context, specialistID, date, clock string, statuses ...models.SessionStatus) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.SpecialistID != specialistID || s.Date != date || s.Time != clock {
			continue
		}
		if len(statuses) == 0 || hasStatus(statuses, s.Status) {
			found := s
			return &found, nil
		}
	}
	return nil, nil
}

func (r *MemorySessionRepo) GetByID(ctx context.Context, id string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *MemorySessionRepo) ListByUser(ctx context.Context, userID string, status models.SessionStatus) ([]models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Session{}
	for _, s := range r.sessions {
		if s.UserID == userID && (status == "" || s.Status == status) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

func (r *MemorySessionRepo) Reschedule(ctx context.Context, id, date, clock string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !s.Status.Active() {
		return nil, ErrNotActive
	}
	newKey := models.SlotKey(s.SpecialistID, date, clock)
	if holder, held := r.slots[newKey]; held && holder != id {
		return nil, ErrSlotTaken
	}
	delete(r.slots, s.SlotKey())
	s.Date, s.Time = date, clock
	s.UpdatedAt = time.Now().UTC()
	r.slots[newKey] = id
	r.sessions[id] = s
	return &s, nil
}

func (r *MemorySessionRepo) UpdateStatus(ctx context.Context, id string, status models.SessionStatus) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	key := s.SlotKey()
	if status.Active() {
		if holder, held := r.slots[key]; held && holder != id {
			return nil, ErrSlotTaken
		}
		r.slots[key] = id
	} else if r.slots[key] == id {
		delete(r.slots, key)
	}
	s.Status = status
	s.UpdatedAt = time.Now().UTC()
	r.sessions[id] = s
	return &s, nil
}

func (r *MemorySessionRepo) AttachMeetingLink(ctx context.Context, id, link string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.MeetingLink = link
	s.UpdatedAt = time.Now().UTC()
	r.sessions[id] = s
	return nil
}

func (r *MemorySessionRepo) ListPendingWithoutLink(ctx context.Context, createdBefore time.Time, limit int) ([]models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Session{}
	for _, s := range r.sessions {
		if s.Status == models.SessionPending && s.MeetingLink == "" && s.CreatedAt.Before(createdBefore) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func hasStatus(statuses []models.SessionStatus, s models.SessionStatus) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}
