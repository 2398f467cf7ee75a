package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"guildhall/internal/domain/guild"
)

// Status, preview and the events endpoint read the store without opening a
// transaction, so repository reads must be safe against a concurrent
// tick/command transaction. Run with -race.
func TestReadsDuringTransaction(t *testing.T) {
	store := NewStore()
	state := guild.State{GuildID: "g1", Registry: guild.NewRegistry(), Version: 1}
	if err := state.Registry.Add(&guild.Hero{ID: "h1", Class: guild.ClassWarrior, Rank: guild.RankC}); err != nil {
		t.Fatalf("seed hero: %v", err)
	}
	store.SeedState(state)

	stateRepo := NewGuildStateRepo(store)
	eventRepo := NewEventRepo(store)
	tx := NewTxManager(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			_, _ = stateRepo.GetByGuildID(ctx, "g1")
			_, _ = eventRepo.ListByGuildID(ctx, "g1", 0)
		}
	}()

	for i := 0; i < 200; i++ {
		err := tx.RunInTx(ctx, func(txCtx context.Context) error {
			loaded, err := stateRepo.GetByGuildID(txCtx, "g1")
			if err != nil {
				return err
			}
			expected := loaded.Version
			if h, ok := loaded.Registry.Get("h1"); ok {
				h.XP++
			}
			loaded.Version++
			if err := stateRepo.SaveWithVersion(txCtx, loaded, expected); err != nil {
				return err
			}
			return eventRepo.Append(txCtx, "g1", []guild.OutcomeEvent{{
				Type:       guild.EventPhaseChanged,
				QuestID:    "q1",
				OccurredAt: time.Now(),
			}})
		})
		if err != nil {
			t.Fatalf("tx %d: %v", i, err)
		}
	}
	close(stop)
	wg.Wait()

	final, err := stateRepo.GetByGuildID(ctx, "g1")
	if err != nil {
		t.Fatalf("final read: %v", err)
	}
	if final.Version != 201 {
		t.Fatalf("version = %d, want 201", final.Version)
	}
	h, _ := final.Registry.Get("h1")
	if h.XP != 200 {
		t.Fatalf("xp = %d, want 200", h.XP)
	}
}
