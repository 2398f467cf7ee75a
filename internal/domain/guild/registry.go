package guild

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrHeroMissing   = errors.New("hero not found in registry")
	ErrHeroDuplicate = errors.New("hero already registered")
)

// LocationKind says where a hero id currently lives. Every alive hero is in
// the roster or on exactly one quest; dead heroes are in the graveyard.
type LocationKind string

const (
	LocationRoster    LocationKind = "roster"
	LocationQuest     LocationKind = "quest"
	LocationGraveyard LocationKind = "graveyard"
	LocationUnknown   LocationKind = "unknown"
)

type Location struct {
	Kind    LocationKind
	QuestID string
}

// Registry is the single authoritative hero store. Quests hold only hero
// ids; every read and every ownership transfer goes through here.
type Registry struct {
	Heroes    map[string]*Hero `json:"heroes"`
	Graveyard []GraveEntry     `json:"graveyard,omitempty"`
}

func NewRegistry() Registry {
	return Registry{Heroes: map[string]*Hero{}}
}

func (r *Registry) Add(h *Hero) error {
	if h == nil || h.ID == "" {
		return fmt.Errorf("add hero: missing id")
	}
	if r.Heroes == nil {
		r.Heroes = map[string]*Hero{}
	}
	if _, ok := r.Heroes[h.ID]; ok {
		return fmt.Errorf("add hero %s: %w", h.ID, ErrHeroDuplicate)
	}
	if h.Status == "" {
		h.Status = HeroIdle
	}
	r.Heroes[h.ID] = h
	return nil
}

func (r *Registry) Get(id string) (*Hero, bool) {
	h, ok := r.Heroes[id]
	return h, ok
}

// Lookup resolves a hero id list, failing on the first stale reference.
func (r *Registry) Lookup(ids []string) ([]*Hero, error) {
	out := make([]*Hero, 0, len(ids))
	for _, id := range ids {
		h, ok := r.Heroes[id]
		if !ok {
			return nil, fmt.Errorf("hero %s: %w", id, ErrHeroMissing)
		}
		out = append(out, h)
	}
	return out, nil
}

func (r *Registry) Locate(id string) Location {
	if h, ok := r.Heroes[id]; ok {
		if h.QuestID != "" {
			return Location{Kind: LocationQuest, QuestID: h.QuestID}
		}
		return Location{Kind: LocationRoster}
	}
	for _, g := range r.Graveyard {
		if g.HeroID == id {
			return Location{Kind: LocationGraveyard}
		}
	}
	return Location{Kind: LocationUnknown}
}

// AttachToQuest transfers ownership of every listed hero to the quest in one
// step. All heroes are validated before any of them is mutated.
func (r *Registry) AttachToQuest(ids []string, questID string) error {
	heroes, err := r.Lookup(ids)
	if err != nil {
		return err
	}
	for _, h := range heroes {
		if h.Status != HeroIdle {
			return fmt.Errorf("hero %s is %s, not idle", h.ID, h.Status)
		}
	}
	for _, h := range heroes {
		h.QuestID = questID
		h.Status = HeroTraveling
	}
	return nil
}

// Release returns a hero from its quest to the roster and starts its rest.
func (r *Registry) Release(id string, restSeconds float64) {
	h, ok := r.Heroes[id]
	if !ok {
		return
	}
	h.QuestID = ""
	if restSeconds > 0 {
		h.Status = HeroResting
		h.RestRemaining = restSeconds
	} else {
		h.Status = HeroIdle
		h.RestRemaining = 0
	}
}

// Bury removes a hero from the living set and appends a grave entry. A hero
// can be buried at most once; a second call is a stale reference.
func (r *Registry) Bury(id, cause string, now time.Time) error {
	h, ok := r.Heroes[id]
	if !ok {
		return fmt.Errorf("bury hero %s: %w", id, ErrHeroMissing)
	}
	delete(r.Heroes, id)
	r.Graveyard = append(r.Graveyard, GraveEntry{
		HeroID: h.ID,
		Name:   h.Name,
		Cause:  cause,
		DiedAt: now,
	})
	return nil
}

// RestingIDs lists resting heroes in stable id order so tick events are
// deterministic.
func (r *Registry) RestingIDs() []string {
	ids := make([]string, 0)
	for id, h := range r.Heroes {
		if h.Status == HeroResting {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
