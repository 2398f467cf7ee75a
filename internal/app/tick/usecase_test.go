package tick_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"guildhall/internal/adapter/metrics/inmemory"
	"guildhall/internal/adapter/repo/memory"
	"guildhall/internal/app/ports"
	"guildhall/internal/app/tick"
	"guildhall/internal/domain/guild"
)

type luckyRand struct{}

func (luckyRand) Float64() float64 { return 0.0 }

func seedTravelingQuest(t *testing.T, store *memory.Store) {
	t.Helper()
	state := guild.State{
		GuildID:  "g1",
		Registry: guild.NewRegistry(),
		Version:  1,
	}
	heroes := []*guild.Hero{
		{ID: "h1", Class: guild.ClassWarrior, Rank: guild.RankC},
		{ID: "h2", Class: guild.ClassMage, Rank: guild.RankC},
		{ID: "h3", Class: guild.ClassRanger, Rank: guild.RankC},
		{ID: "h4", Class: guild.ClassCleric, Rank: guild.RankC},
	}
	for _, h := range heroes {
		if err := state.Registry.Add(h); err != nil {
			t.Fatalf("seed hero %s: %v", h.ID, err)
		}
	}
	state.Quests = []*guild.Quest{{
		ID: "q1", Rank: guild.RankC,
		TravelTime: 10, ExecTime: 30, ReturnTime: 10,
		GoldReward: 100, XPReward: 400, Phase: guild.PhaseAvailable,
	}}

	machine := guild.NewMachine(luckyRand{})
	if ok, msg := machine.AssignParty(&state, "q1", []string{"h1", "h2", "h3", "h4"}, guild.Modifiers{}); !ok {
		t.Fatalf("assign party: %s", msg)
	}
	store.SeedState(state)
}

func newTestUseCase(store *memory.Store, metrics ports.GuildMetrics) tick.UseCase {
	return tick.UseCase{
		TxManager: memory.NewTxManager(store),
		StateRepo: memory.NewGuildStateRepo(store),
		EventRepo: memory.NewEventRepo(store),
		Metrics:   metrics,
		Scheduler: guild.NewScheduler(luckyRand{}),
		Now:       func() time.Time { return time.Unix(2000, 0) },
	}
}

func TestTickZeroDeltaWritesNothing(t *testing.T) {
	store := memory.NewStore()
	seedTravelingQuest(t, store)
	uc := newTestUseCase(store, inmemory.NewRecorder())

	resp, err := uc.Execute(context.Background(), tick.Request{GuildID: "g1", DeltaSeconds: 0})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(resp.Events) != 0 {
		t.Fatalf("zero tick emitted %d events", len(resp.Events))
	}

	state, err := uc.StateRepo.GetByGuildID(context.Background(), "g1")
	if err != nil {
		t.Fatalf("reload state: %v", err)
	}
	if state.Version != 1 {
		t.Fatalf("zero tick bumped version to %d", state.Version)
	}
	if _, err := uc.EventRepo.ListByGuildID(context.Background(), "g1", 0); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected no persisted events, got err = %v", err)
	}
}

func TestTickAdvancesAndPersists(t *testing.T) {
	store := memory.NewStore()
	seedTravelingQuest(t, store)
	uc := newTestUseCase(store, inmemory.NewRecorder())

	resp, err := uc.Execute(context.Background(), tick.Request{GuildID: "g1", DeltaSeconds: 10})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if resp.Version != 2 {
		t.Fatalf("version = %d, want 2", resp.Version)
	}

	var arrived bool
	for _, e := range resp.Events {
		if e.Type == guild.EventPhaseChanged && e.QuestID == "q1" {
			arrived = true
		}
	}
	if !arrived {
		t.Fatal("expected a phase_changed event for q1")
	}

	state, err := uc.StateRepo.GetByGuildID(context.Background(), "g1")
	if err != nil {
		t.Fatalf("reload state: %v", err)
	}
	if got := state.Quest("q1").Phase; got != guild.PhaseAwaitingExecute {
		t.Fatalf("phase = %s, want awaiting_execute", got)
	}
	events, err := uc.EventRepo.ListByGuildID(context.Background(), "g1", 0)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != len(resp.Events) {
		t.Fatalf("persisted %d events, response carried %d", len(events), len(resp.Events))
	}
}

func TestTickValidation(t *testing.T) {
	store := memory.NewStore()
	seedTravelingQuest(t, store)
	uc := newTestUseCase(store, nil)

	cases := []tick.Request{
		{GuildID: "", DeltaSeconds: 1},
		{GuildID: "  ", DeltaSeconds: 1},
		{GuildID: "g1", DeltaSeconds: -1},
	}
	for _, req := range cases {
		if _, err := uc.Execute(context.Background(), req); !errors.Is(err, tick.ErrInvalidRequest) {
			t.Fatalf("req %+v: err = %v, want ErrInvalidRequest", req, err)
		}
	}
}

func TestTickUnknownGuild(t *testing.T) {
	store := memory.NewStore()
	uc := newTestUseCase(store, nil)

	if _, err := uc.Execute(context.Background(), tick.Request{GuildID: "nope", DeltaSeconds: 1}); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

type conflictStateRepo struct {
	inner ports.GuildStateRepository
}

func (r conflictStateRepo) GetByGuildID(ctx context.Context, guildID string) (guild.State, error) {
	return r.inner.GetByGuildID(ctx, guildID)
}

func (r conflictStateRepo) SaveWithVersion(context.Context, guild.State, int64) error {
	return ports.ErrConflict
}

func TestTickConflictIsCounted(t *testing.T) {
	store := memory.NewStore()
	seedTravelingQuest(t, store)
	recorder := inmemory.NewRecorder()
	uc := newTestUseCase(store, recorder)
	uc.StateRepo = conflictStateRepo{inner: uc.StateRepo}

	if _, err := uc.Execute(context.Background(), tick.Request{GuildID: "g1", DeltaSeconds: 5}); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if snap := recorder.Snapshot(); snap.Conflicts != 1 {
		t.Fatalf("conflicts = %d, want 1", snap.Conflicts)
	}
}
