package memory

import (
	"context"

	"guildhall/internal/app/ports"
)

type CommandExecutionRepo struct {
	store *Store
}

func NewCommandExecutionRepo(store *Store) CommandExecutionRepo {
	return CommandExecutionRepo{store: store}
}

func (r CommandExecutionRepo) GetByIdempotencyKey(_ context.Context, guildID, key string) (*ports.CommandExecutionRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	record, ok := r.store.execution[execKey(guildID, key)]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &record, nil
}

func (r CommandExecutionRepo) SaveExecution(_ context.Context, execution ports.CommandExecutionRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.execution[execKey(execution.GuildID, execution.IdempotencyKey)] = execution
	return nil
}
