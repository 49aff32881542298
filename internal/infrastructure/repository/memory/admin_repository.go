package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ruprime/tournament-bot/internal/domain/admin"
)

type AdminRepository struct {
	mu     sync.RWMutex
	admins map[int64]admin.Admin
}

func NewAdminRepository() *AdminRepository {
	return &AdminRepository{admins: make(map[int64]admin.Admin)}
}

func (r *AdminRepository) Add(_ context.Context, a admin.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.admins[a.TelegramID]; ok {
		return fmt.Errorf("%w: %d", admin.ErrAlreadyAdmin, a.TelegramID)
	}
	r.admins[a.TelegramID] = a
	return nil
}

func (r *AdminRepository) Remove(_ context.Context, telegramID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.admins[telegramID]; !ok {
		return false, nil
	}
	delete(r.admins, telegramID)
	return true, nil
}

func (r *AdminRepository) List(_ context.Context) ([]admin.Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]admin.Admin, 0, len(r.admins))
	for _, a := range r.admins {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.Before(out[j].AddedAt) })
	return out, nil
}

func (r *AdminRepository) IsAdmin(_ context.Context, telegramID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.admins[telegramID]
	return ok, nil
}
