package userRepo

import (
	"context"
	"sync"

	"aroti/models"
)

// MemoryUserRepo is an in-process user store.
type MemoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryUserRepo(users ...models.User) *MemoryUserRepo {
	r := &MemoryUserRepo{users: make(map[string]models.User, len(users))}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *MemoryUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u.Traits = append([]string(nil), u.Traits...)
	return &u, nil
}

func (r *MemoryUserRepo) Save(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := *user
	u.Traits = append([]string(nil), user.Traits...)
	r.users[user.ID] = u
	return nil
}

func (r *MemoryUserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}
