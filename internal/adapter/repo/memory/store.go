package memory

import (
	"sync"

	"guildhall/internal/app/ports"
	"guildhall/internal/domain/guild"
)

// Store backs the in-memory repositories. States are cloned on the way in
// and out so no caller ever aliases the stored aggregate.
//
// Two locks: txMu serializes transactions so a load-mutate-save cycle is
// atomic, while mu guards the maps themselves. Read-only usecases and the
// events endpoint hit the repositories without a transaction, so every
// repository method takes mu for its own access.
type Store struct {
	txMu      sync.Mutex
	mu        sync.RWMutex
	states    map[string]guild.State
	execution map[string]ports.CommandExecutionRecord
	events    map[string][]guild.OutcomeEvent
}

func NewStore() *Store {
	return &Store{
		states:    make(map[string]guild.State),
		execution: make(map[string]ports.CommandExecutionRecord),
		events:    make(map[string][]guild.OutcomeEvent),
	}
}

func execKey(guildID, key string) string {
	return guildID + "::" + key
}

func (s *Store) SeedState(state guild.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.GuildID] = state.Clone()
}
