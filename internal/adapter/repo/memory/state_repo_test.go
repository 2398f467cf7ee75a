package memory

import (
	"context"
	"errors"
	"testing"

	"guildhall/internal/app/ports"
	"guildhall/internal/domain/guild"
)

func seededRepo(t *testing.T) GuildStateRepo {
	t.Helper()
	store := NewStore()
	state := guild.State{GuildID: "g1", Registry: guild.NewRegistry(), Version: 1}
	if err := state.Registry.Add(&guild.Hero{ID: "h1", Class: guild.ClassWarrior, Rank: guild.RankC}); err != nil {
		t.Fatalf("seed hero: %v", err)
	}
	store.SeedState(state)
	return NewGuildStateRepo(store)
}

func TestSaveWithVersionConflict(t *testing.T) {
	repo := seededRepo(t)
	ctx := context.Background()

	state, err := repo.GetByGuildID(ctx, "g1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	state.Version = 2
	if err := repo.SaveWithVersion(ctx, state, 1); err != nil {
		t.Fatalf("save: %v", err)
	}
	// A writer holding the old version loses.
	if err := repo.SaveWithVersion(ctx, state, 1); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("stale save err = %v, want ErrConflict", err)
	}
	// Creating over a missing guild requires expected version 0.
	fresh := guild.State{GuildID: "g2", Registry: guild.NewRegistry(), Version: 1}
	if err := repo.SaveWithVersion(ctx, fresh, 3); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("create with wrong expected version err = %v, want ErrConflict", err)
	}
	if err := repo.SaveWithVersion(ctx, fresh, 0); err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestGetReturnsIsolatedClone(t *testing.T) {
	repo := seededRepo(t)
	ctx := context.Background()

	a, err := repo.GetByGuildID(ctx, "g1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	h, _ := a.Registry.Get("h1")
	h.Status = guild.HeroQuesting

	b, err := repo.GetByGuildID(ctx, "g1")
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	h2, _ := b.Registry.Get("h1")
	if h2.Status == guild.HeroQuesting {
		t.Fatal("mutating a loaded state leaked into the store")
	}
}

func TestGetMissingGuild(t *testing.T) {
	repo := NewGuildStateRepo(NewStore())
	if _, err := repo.GetByGuildID(context.Background(), "nope"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
