package memory

import (
	"context"

	"guildhall/internal/app/ports"
	"guildhall/internal/domain/guild"
)

type GuildStateRepo struct {
	store *Store
}

func NewGuildStateRepo(store *Store) GuildStateRepo {
	return GuildStateRepo{store: store}
}

func (r GuildStateRepo) GetByGuildID(_ context.Context, guildID string) (guild.State, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	state, ok := r.store.states[guildID]
	if !ok {
		return guild.State{}, ports.ErrNotFound
	}
	return state.Clone(), nil
}

func (r GuildStateRepo) SaveWithVersion(_ context.Context, state guild.State, expectedVersion int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	current, ok := r.store.states[state.GuildID]
	if !ok {
		if expectedVersion != 0 {
			return ports.ErrConflict
		}
		r.store.states[state.GuildID] = state.Clone()
		return nil
	}
	if current.Version != expectedVersion {
		return ports.ErrConflict
	}
	r.store.states[state.GuildID] = state.Clone()
	return nil
}
