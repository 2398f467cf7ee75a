package memory

import (
	"context"

	"guildhall/internal/app/ports"
	"guildhall/internal/domain/guild"
)

type EventRepo struct {
	store *Store
}

func NewEventRepo(store *Store) EventRepo {
	return EventRepo{store: store}
}

func (r EventRepo) Append(_ context.Context, guildID string, events []guild.OutcomeEvent) error {
	if len(events) == 0 {
		return nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.events[guildID] = append(r.store.events[guildID], events...)
	return nil
}

func (r EventRepo) ListByGuildID(_ context.Context, guildID string, limit int) ([]guild.OutcomeEvent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	all, ok := r.store.events[guildID]
	if !ok || len(all) == 0 {
		return nil, ports.ErrNotFound
	}
	// Newest first, matching the persistent adapter.
	out := make([]guild.OutcomeEvent, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, all[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
