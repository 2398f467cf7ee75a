package guild

import (
	"errors"
	"testing"
	"time"
)

func TestRegistry_ExactlyOneLocation(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Add(&Hero{ID: "h-1", Name: "Asha", Class: ClassWarrior, Rank: RankC}); err != nil {
		t.Fatalf("add: %v", err)
	}

	if loc := reg.Locate("h-1"); loc.Kind != LocationRoster {
		t.Fatalf("expected roster, got %s", loc.Kind)
	}

	if err := reg.AttachToQuest([]string{"h-1"}, "q-1"); err != nil {
		t.Fatalf("attach: %v", err)
	}
	loc := reg.Locate("h-1")
	if loc.Kind != LocationQuest || loc.QuestID != "q-1" {
		t.Fatalf("expected quest q-1, got %+v", loc)
	}

	if err := reg.Bury("h-1", "test", time.Now()); err != nil {
		t.Fatalf("bury: %v", err)
	}
	if loc := reg.Locate("h-1"); loc.Kind != LocationGraveyard {
		t.Fatalf("expected graveyard, got %s", loc.Kind)
	}
	if _, ok := reg.Get("h-1"); ok {
		t.Fatalf("buried hero still in living set")
	}
}

func TestRegistry_BuryTwiceFails(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Add(&Hero{ID: "h-1", Name: "Asha"})
	if err := reg.Bury("h-1", "test", time.Now()); err != nil {
		t.Fatalf("first bury: %v", err)
	}
	if err := reg.Bury("h-1", "test", time.Now()); !errors.Is(err, ErrHeroMissing) {
		t.Fatalf("expected ErrHeroMissing on second bury, got %v", err)
	}
	if len(reg.Graveyard) != 1 {
		t.Fatalf("expected exactly one grave entry, got %d", len(reg.Graveyard))
	}
}

func TestRegistry_AttachRejectsBusyHeroWithoutMutation(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Add(&Hero{ID: "h-1"})
	busy := &Hero{ID: "h-2", Status: HeroResting}
	_ = reg.Add(busy)

	if err := reg.AttachToQuest([]string{"h-1", "h-2"}, "q-1"); err == nil {
		t.Fatalf("expected rejection for non-idle hero")
	}
	h1, _ := reg.Get("h-1")
	if h1.QuestID != "" || h1.Status != HeroIdle {
		t.Fatalf("rejected attach mutated h-1: %+v", h1)
	}
}

func TestRegistry_AttachRejectsUnknownHero(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Add(&Hero{ID: "h-1"})
	if err := reg.AttachToQuest([]string{"h-1", "ghost"}, "q-1"); !errors.Is(err, ErrHeroMissing) {
		t.Fatalf("expected ErrHeroMissing, got %v", err)
	}
}

func TestRegistry_ReleaseStartsRest(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Add(&Hero{ID: "h-1"})
	_ = reg.AttachToQuest([]string{"h-1"}, "q-1")

	reg.Release("h-1", 90)
	h, _ := reg.Get("h-1")
	if h.QuestID != "" || h.Status != HeroResting || h.RestRemaining != 90 {
		t.Fatalf("unexpected post-release state: %+v", h)
	}

	reg.Release("h-1", 0)
	if h.Status != HeroIdle {
		t.Fatalf("zero rest should go straight to idle, got %s", h.Status)
	}
}
