package guild

import (
	"fmt"
	"time"
)

// Machine enforces the quest phase sequence and owns the player commands
// that gate it. Travel, execute and return are timed; the awaiting_* phases
// persist until the matching command arrives. Commands issued in the wrong
// phase are no-ops, and a rejected command mutates nothing.
type Machine struct {
	Resolver        Resolver
	Bonds           BondTracker
	BaseRestSeconds float64
}

func NewMachine(rnd Rand) Machine {
	return Machine{
		Resolver:        Resolver{Rand: rnd},
		Bonds:           NewBondTracker(FormationThreshold),
		BaseRestSeconds: BaseRestSeconds,
	}
}

func ev(eventType, questID, heroID string, now time.Time, payload map[string]any) OutcomeEvent {
	return OutcomeEvent{
		Type:       eventType,
		QuestID:    questID,
		HeroID:     heroID,
		OccurredAt: now,
		Payload:    payload,
	}
}

// AssignParty binds idle heroes to an available quest and starts travel.
// All validation happens before any mutation; a rejection is (false, reason)
// and leaves every hero and the quest untouched.
func (m Machine) AssignParty(state *State, questID string, heroIDs []string, mods Modifiers) (bool, string) {
	q := state.Quest(questID)
	if q == nil {
		return false, "unknown quest"
	}
	if q.Phase != PhaseAvailable {
		return false, ""
	}
	if len(heroIDs) == 0 {
		return false, "no heroes assigned"
	}
	maxHeroes := q.MaxHeroes
	if maxHeroes <= 0 {
		maxHeroes = PartySize
	}
	if len(heroIDs) > maxHeroes {
		return false, fmt.Sprintf("quest allows at most %d heroes", maxHeroes)
	}
	seen := make(map[string]bool, len(heroIDs))
	for _, id := range heroIDs {
		if seen[id] {
			return false, fmt.Sprintf("hero %s listed twice", id)
		}
		seen[id] = true
	}
	if err := state.Registry.AttachToQuest(heroIDs, q.ID); err != nil {
		return false, err.Error()
	}

	q.HeroIDs = append([]string(nil), heroIDs...)
	q.Phase = PhaseTravel
	q.PhaseProgress = 0
	q.Mods = mods

	// First shared attempt by an eligible four starts bond tracking.
	if heroes, err := state.Registry.Lookup(heroIDs); err == nil {
		m.Bonds.GetOrCreateProtoParty(state, heroes)
	}
	return true, "party dispatched"
}

// ExecuteQuest fires the gated execution step. For field quests the outcome
// is resolved up front and cached on the quest; the execute timer then plays
// it out. Dungeon floors resolve one by one as the timer crosses each floor
// boundary. Returns nils when the quest is not awaiting execution.
func (m Machine) ExecuteQuest(state *State, questID string, now time.Time) (*QuestResult, []*Hero, []OutcomeEvent) {
	q := state.Quest(questID)
	if q == nil || q.Phase != PhaseAwaitingExecute {
		return nil, nil, nil
	}
	heroes, err := state.Registry.Lookup(q.HeroIDs)
	if err != nil {
		return nil, nil, []OutcomeEvent{ev(EventStaleHero, q.ID, "", now, map[string]any{"error": err.Error()})}
	}

	q.Phase = PhaseExecute
	q.PhaseProgress = 0
	for _, h := range heroes {
		h.Status = HeroQuesting
	}

	if !q.IsDungeon {
		luck, rerollable := m.bondBonus(state, heroes)
		q.Result = m.Resolver.Resolve(q, heroes, luck, rerollable)
	}

	events := []OutcomeEvent{ev(EventPhaseChanged, q.ID, "", now, map[string]any{
		"phase": string(PhaseExecute),
	})}
	return q.Result, heroes, events
}

// StartReturn claims the cached result and sends the party home. Valid only
// once execution has finished; the claim distributes gold and XP, records
// the shared success for bond tracking, and advances the quest through
// awaiting_return into the timed return leg.
func (m Machine) StartReturn(state *State, questID string, now time.Time) (*QuestResult, []OutcomeEvent) {
	q := state.Quest(questID)
	if q == nil || q.Phase != PhaseAwaitingClaim {
		return nil, nil
	}
	events := m.claim(state, q, now)
	events = append(events, m.shortCircuitToReturn(state, q, now)...)
	return q.Result, events
}

// Retreat abandons a dungeon mid-execute. The partial result is compiled and
// claimed immediately and the party heads straight home, skipping the
// remaining floors.
func (m Machine) Retreat(state *State, questID string, now time.Time) (bool, string, []OutcomeEvent) {
	q := state.Quest(questID)
	if q == nil {
		return false, "unknown quest", nil
	}
	if !q.IsDungeon || q.Phase != PhaseExecute || q.HasRetreated {
		return false, "", nil
	}

	q.HasRetreated = true
	q.Result = m.Resolver.CompileDungeonResult(q)
	events := []OutcomeEvent{ev(EventRetreated, q.ID, "", now, map[string]any{
		"floor": q.CurrentFloor,
	})}
	events = append(events, m.claim(state, q, now)...)
	events = append(events, m.shortCircuitToReturn(state, q, now)...)
	return true, fmt.Sprintf("retreating after floor %d", q.CurrentFloor), events
}

// bondBonus reports the resolution perks the current heroes earn from their
// formed party: a flat luck bonus and re-roll eligibility.
func (m Machine) bondBonus(state *State, heroes []*Hero) (float64, bool) {
	if m.Bonds.FormedParty(state, heroes) == nil {
		return 0, false
	}
	return FormedPartyLuckBonus, true
}

// applyOutcomes commits resolution outcomes to the registry. Deaths move the
// hero from the quest's set to the graveyard exactly once and vacate any
// party slot; revivals consume the charm; injuries never downgrade.
func (m Machine) applyOutcomes(state *State, q *Quest, outcomes []HeroOutcome, now time.Time) []OutcomeEvent {
	events := make([]OutcomeEvent, 0, len(outcomes))
	for _, out := range outcomes {
		switch out.Kind {
		case OutcomeDied:
			h, ok := state.Registry.Get(out.HeroID)
			if !ok {
				continue
			}
			if h.PartyID != "" {
				m.Bonds.RemoveMember(m.Bonds.PartyByID(state, h.PartyID), h.ID)
			}
			q.HeroIDs = removeID(q.HeroIDs, out.HeroID)
			if err := state.Registry.Bury(out.HeroID, q.Name, now); err != nil {
				continue
			}
			events = append(events, ev(EventHeroDied, q.ID, out.HeroID, now, nil))
		case OutcomeRevived:
			h, ok := state.Registry.Get(out.HeroID)
			if !ok {
				continue
			}
			h.ReviveCharm = false
			h.Injury = InjuryCritical
			events = append(events, ev(EventHeroRevived, q.ID, out.HeroID, now, nil))
		case OutcomeInjured:
			h, ok := state.Registry.Get(out.HeroID)
			if !ok {
				continue
			}
			if out.Injury > h.Injury {
				h.Injury = out.Injury
			}
			events = append(events, ev(EventHeroInjured, q.ID, out.HeroID, now, map[string]any{
				"tier": out.Injury.String(),
			}))
		}
	}
	return events
}

// claim applies the cached result: reward payout, per-hero XP with the
// rank-differential bonus, and the shared-success bond record.
func (m Machine) claim(state *State, q *Quest, now time.Time) []OutcomeEvent {
	result := q.Result
	if result == nil {
		result = &QuestResult{Message: q.Name + " produced no result"}
		q.Result = result
	}

	partySize := len(result.HeroOutcomes)
	if partySize == 0 {
		partySize = len(q.HeroIDs)
	}
	events := []OutcomeEvent{ev(EventRewardClaimed, q.ID, "", now, map[string]any{
		"success": result.Success,
		"gold":    result.GoldReward,
		"xp":      result.XPReward,
	})}

	survivors, err := state.Registry.Lookup(q.HeroIDs)
	if err != nil {
		events = append(events, ev(EventStaleHero, q.ID, "", now, map[string]any{"error": err.Error()}))
		return events
	}
	for _, h := range survivors {
		h.XP += HeroXPShare(result.XPReward, partySize, q.Rank, h.Rank, result.Success)
	}

	if result.Success {
		if party, justFormed := m.Bonds.RecordQuestSuccess(state, survivors, now); justFormed {
			events = append(events, ev(EventPartyFormed, q.ID, "", now, map[string]any{
				"party_id": party.ID,
			}))
		}
	}
	return events
}

func (m Machine) shortCircuitToReturn(state *State, q *Quest, now time.Time) []OutcomeEvent {
	q.Phase = PhaseReturning
	q.PhaseProgress = 0
	for _, id := range q.HeroIDs {
		if h, ok := state.Registry.Get(id); ok {
			h.Status = HeroReturning
		}
	}
	return []OutcomeEvent{ev(EventPhaseChanged, q.ID, "", now, map[string]any{
		"phase": string(PhaseReturning),
	})}
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
