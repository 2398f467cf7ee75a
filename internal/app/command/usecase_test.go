package command_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"guildhall/internal/adapter/metrics/inmemory"
	"guildhall/internal/adapter/repo/memory"
	"guildhall/internal/app/command"
	"guildhall/internal/app/ports"
	"guildhall/internal/domain/guild"

	"github.com/google/go-cmp/cmp"
)

type fixedRand struct{ v float64 }

func (r fixedRand) Float64() float64 { return r.v }

func seedState(t *testing.T, store *memory.Store) guild.State {
	t.Helper()
	state := guild.State{
		GuildID:  "g1",
		Registry: guild.NewRegistry(),
		Version:  1,
	}
	heroes := []*guild.Hero{
		{ID: "h1", Name: "Asha", Class: guild.ClassWarrior, Rank: guild.RankC, Stats: guild.Stats{Luck: 5}},
		{ID: "h2", Name: "Brin", Class: guild.ClassMage, Rank: guild.RankC, Stats: guild.Stats{Luck: 5}},
		{ID: "h3", Name: "Cole", Class: guild.ClassRanger, Rank: guild.RankC, Stats: guild.Stats{Luck: 5}},
		{ID: "h4", Name: "Dara", Class: guild.ClassGuardian, Rank: guild.RankC, Stats: guild.Stats{Luck: 5}},
	}
	for _, h := range heroes {
		if err := state.Registry.Add(h); err != nil {
			t.Fatalf("seed hero %s: %v", h.ID, err)
		}
	}
	state.Quests = []*guild.Quest{{
		ID: "q1", Name: "Clear the road", Rank: guild.RankC, Combat: true,
		TravelTime: 10, ExecTime: 30, ReturnTime: 10,
		GoldReward: 100, XPReward: 400, Phase: guild.PhaseAvailable,
	}}
	store.SeedState(state)
	return state
}

func newTestUseCase(store *memory.Store) command.UseCase {
	return command.UseCase{
		TxManager:   memory.NewTxManager(store),
		StateRepo:   memory.NewGuildStateRepo(store),
		CommandRepo: memory.NewCommandExecutionRepo(store),
		EventRepo:   memory.NewEventRepo(store),
		Metrics:     inmemory.NewRecorder(),
		Machine:     guild.NewMachine(fixedRand{v: 0.0}),
		Now:         func() time.Time { return time.Unix(1000, 0) },
	}
}

func assignReq(key string) command.Request {
	return command.Request{
		GuildID:        "g1",
		IdempotencyKey: key,
		Intent: command.Intent{
			Type:    command.CommandAssignParty,
			QuestID: "q1",
			HeroIDs: []string{"h1", "h2", "h3", "h4"},
		},
	}
}

func TestAssignPartyCommand(t *testing.T) {
	store := memory.NewStore()
	seedState(t, store)
	uc := newTestUseCase(store)

	resp, err := uc.Execute(context.Background(), assignReq("k1"))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !resp.OK {
		t.Fatalf("expected ok, got message %q", resp.Message)
	}

	state, err := uc.StateRepo.GetByGuildID(context.Background(), "g1")
	if err != nil {
		t.Fatalf("reload state: %v", err)
	}
	if state.Version != 2 {
		t.Fatalf("version = %d, want 2", state.Version)
	}
	q := state.Quest("q1")
	if q.Phase != guild.PhaseTravel {
		t.Fatalf("phase = %s, want travel", q.Phase)
	}
	for _, id := range []string{"h1", "h2", "h3", "h4"} {
		h, _ := state.Registry.Get(id)
		if h.Status != guild.HeroTraveling {
			t.Fatalf("hero %s status = %s, want traveling", id, h.Status)
		}
	}
}

func TestIdempotentReplay(t *testing.T) {
	store := memory.NewStore()
	seedState(t, store)
	uc := newTestUseCase(store)

	first, err := uc.Execute(context.Background(), assignReq("k1"))
	if err != nil {
		t.Fatalf("first execute: %v", err)
	}
	second, err := uc.Execute(context.Background(), assignReq("k1"))
	if err != nil {
		t.Fatalf("replay execute: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("replay response mismatch (-first +second):\n%s", diff)
	}

	state, err := uc.StateRepo.GetByGuildID(context.Background(), "g1")
	if err != nil {
		t.Fatalf("reload state: %v", err)
	}
	if state.Version != 2 {
		t.Fatalf("replay bumped version to %d, want 2", state.Version)
	}
}

func TestRejectedCommandStillRecorded(t *testing.T) {
	store := memory.NewStore()
	seedState(t, store)
	uc := newTestUseCase(store)

	req := assignReq("k-bad")
	req.Intent.QuestID = "no-such-quest"
	resp, err := uc.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if resp.OK {
		t.Fatal("expected rejection for unknown quest")
	}

	// The rejection is recorded: replaying the key returns the same answer
	// while the aggregate stays untouched.
	replay, err := uc.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if diff := cmp.Diff(resp, replay); diff != "" {
		t.Fatalf("replay mismatch (-first +second):\n%s", diff)
	}
	state, _ := uc.StateRepo.GetByGuildID(context.Background(), "g1")
	if state.Version != 1 {
		t.Fatalf("rejection moved version to %d, want 1", state.Version)
	}
}

func TestStaleHeroExecuteSurfacesEvents(t *testing.T) {
	store := memory.NewStore()
	state := seedState(t, store)
	q := state.Quest("q1")
	q.Phase = guild.PhaseAwaitingExecute
	q.HeroIDs = []string{"h1", "h2", "h3", "gone"}
	store.SeedState(state)
	uc := newTestUseCase(store)

	req := command.Request{
		GuildID:        "g1",
		IdempotencyKey: "k-stale",
		Intent:         command.Intent{Type: command.CommandExecuteQuest, QuestID: "q1"},
	}
	resp, err := uc.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if resp.OK {
		t.Fatal("expected rejection for stale hero reference")
	}
	if len(resp.Events) != 1 || resp.Events[0].Type != guild.EventStaleHero {
		t.Fatalf("expected a stale hero event, got %+v", resp.Events)
	}

	persisted, err := uc.EventRepo.ListByGuildID(context.Background(), "g1", 0)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(persisted) != 1 || persisted[0].Type != guild.EventStaleHero {
		t.Fatalf("stale hero event not persisted: %+v", persisted)
	}
	reloaded, _ := uc.StateRepo.GetByGuildID(context.Background(), "g1")
	if reloaded.Version != 1 {
		t.Fatalf("stale rejection moved version to %d, want 1", reloaded.Version)
	}
}

func TestCommandValidation(t *testing.T) {
	store := memory.NewStore()
	seedState(t, store)
	uc := newTestUseCase(store)

	cases := []struct {
		name    string
		mutate  func(*command.Request)
		wantErr error
	}{
		{"missing guild", func(r *command.Request) { r.GuildID = " " }, command.ErrInvalidRequest},
		{"missing key", func(r *command.Request) { r.IdempotencyKey = "" }, command.ErrInvalidRequest},
		{"unknown type", func(r *command.Request) { r.Intent.Type = "summon_dragon" }, command.ErrUnknownCommand},
	}
	for _, tc := range cases {
		req := assignReq("k1")
		tc.mutate(&req)
		if _, err := uc.Execute(context.Background(), req); !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: err = %v, want %v", tc.name, err, tc.wantErr)
		}
	}
}

func TestCommandUnknownGuild(t *testing.T) {
	store := memory.NewStore()
	uc := newTestUseCase(store)

	req := assignReq("k1")
	req.GuildID = "missing"
	if _, err := uc.Execute(context.Background(), req); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
