package guild

import "time"

// Scheduler advances every active quest's phase timer and every resting
// hero's rest timer by dt, emitting outcome events for the caller to render.
// It is the only place timed transitions fire; the gated awaiting_* phases
// pass through it untouched. A zero dt is a strict no-op.
type Scheduler struct {
	Machine Machine
}

func NewScheduler(rnd Rand) Scheduler {
	return Scheduler{Machine: NewMachine(rnd)}
}

// Tick processes quests in their list order, so event emission order is
// stable. Quests that reach a terminal phase are collected and removed only
// after the full pass; a quest with a stale hero reference is skipped
// without aborting the rest of the tick.
func (s Scheduler) Tick(state *State, dt float64, now time.Time) []OutcomeEvent {
	if dt <= 0 {
		return nil
	}

	events := make([]OutcomeEvent, 0)
	resting := state.Registry.RestingIDs()

	quests := append([]*Quest(nil), state.Quests...)
	for _, q := range quests {
		events = append(events, s.advanceQuest(state, q, dt, now)...)
	}

	remaining := state.Quests[:0]
	for _, q := range state.Quests {
		if !q.Phase.Terminal() {
			remaining = append(remaining, q)
		}
	}
	state.Quests = remaining

	for _, id := range resting {
		h, ok := state.Registry.Get(id)
		if !ok || h.Status != HeroResting {
			continue
		}
		h.RestRemaining -= dt
		if h.RestRemaining <= 0 {
			h.RestRemaining = 0
			h.Status = HeroIdle
			h.Injury = InjuryNone
			events = append(events, ev(EventRestComplete, "", id, now, nil))
		}
	}

	state.UpdatedAt = now
	state.Version++
	return events
}

func (s Scheduler) advanceQuest(state *State, q *Quest, dt float64, now time.Time) []OutcomeEvent {
	switch q.Phase {
	case PhaseTravel:
		q.PhaseProgress += dt
		if q.PhaseProgress >= q.TravelDuration() {
			return s.arrive(state, q, now)
		}
	case PhaseExecute:
		q.PhaseProgress += dt
		if q.IsDungeon {
			return s.advanceDungeon(state, q, now)
		}
		if q.PhaseProgress >= q.ExecuteDuration() {
			return s.executeComplete(state, q, now)
		}
	case PhaseReturning:
		q.PhaseProgress += dt
		if q.PhaseProgress >= q.ReturnDuration() {
			return s.returnComplete(state, q, now)
		}
	}
	return nil
}

func (s Scheduler) arrive(state *State, q *Quest, now time.Time) []OutcomeEvent {
	heroes, err := state.Registry.Lookup(q.HeroIDs)
	if err != nil {
		return []OutcomeEvent{ev(EventStaleHero, q.ID, "", now, map[string]any{"error": err.Error()})}
	}
	q.Phase = PhaseAwaitingExecute
	q.PhaseProgress = 0
	for _, h := range heroes {
		h.Status = HeroAwaitingExecute
	}
	return []OutcomeEvent{ev(EventPhaseChanged, q.ID, "", now, map[string]any{
		"phase": string(PhaseAwaitingExecute),
	})}
}

// executeComplete plays out a field quest's cached resolution: outcomes are
// committed, then the quest waits for its reward claim. A party wipe leaves
// nobody to claim, so the quest heads straight into the return leg and ends
// failed.
func (s Scheduler) executeComplete(state *State, q *Quest, now time.Time) []OutcomeEvent {
	events := make([]OutcomeEvent, 0, 4)
	if q.Result != nil {
		events = append(events, s.Machine.applyOutcomes(state, q, q.Result.HeroOutcomes, now)...)
	}
	if len(q.HeroIDs) == 0 {
		events = append(events, ev(EventPartyWiped, q.ID, "", now, nil))
		events = append(events, s.Machine.shortCircuitToReturn(state, q, now)...)
		return events
	}

	q.Phase = PhaseAwaitingClaim
	q.PhaseProgress = 0
	for _, id := range q.HeroIDs {
		if h, ok := state.Registry.Get(id); ok {
			h.Status = HeroAwaitingReturn
		}
	}
	events = append(events, ev(EventPhaseChanged, q.ID, "", now, map[string]any{
		"phase": string(PhaseAwaitingClaim),
	}))
	return events
}

// advanceDungeon resolves every floor boundary the execute timer has crossed
// this tick. A wipe or a retreat-in-progress stops floor progression.
func (s Scheduler) advanceDungeon(state *State, q *Quest, now time.Time) []OutcomeEvent {
	events := make([]OutcomeEvent, 0, 4)
	floorDur := q.FloorDuration()

	for q.Phase == PhaseExecute && q.CurrentFloor < q.FloorCount &&
		q.PhaseProgress >= floorDur*float64(q.CurrentFloor+1) {

		heroes, err := state.Registry.Lookup(q.HeroIDs)
		if err != nil {
			events = append(events, ev(EventStaleHero, q.ID, "", now, map[string]any{"error": err.Error()}))
			return events
		}

		floor := q.CurrentFloor + 1
		luck, _ := s.Machine.bondBonus(state, heroes)
		result, outcomes := s.Machine.Resolver.ResolveFloor(q, heroes, floor, luck)
		q.FloorLog = append(q.FloorLog, result)
		q.CurrentFloor = floor

		events = append(events, ev(EventFloorResolved, q.ID, "", now, map[string]any{
			"floor":   floor,
			"success": result.Success,
		}))
		events = append(events, s.Machine.applyOutcomes(state, q, outcomes, now)...)

		if result.PartyWiped {
			q.Result = s.Machine.Resolver.CompileDungeonResult(q)
			events = append(events, ev(EventPartyWiped, q.ID, "", now, map[string]any{"floor": floor}))
			events = append(events, s.Machine.shortCircuitToReturn(state, q, now)...)
			return events
		}
	}

	if q.Phase == PhaseExecute && q.CurrentFloor >= q.FloorCount {
		q.Result = s.Machine.Resolver.CompileDungeonResult(q)
		q.Phase = PhaseAwaitingClaim
		q.PhaseProgress = 0
		for _, id := range q.HeroIDs {
			if h, ok := state.Registry.Get(id); ok {
				h.Status = HeroAwaitingReturn
			}
		}
		events = append(events, ev(EventPhaseChanged, q.ID, "", now, map[string]any{
			"phase": string(PhaseAwaitingClaim),
		}))
	}
	return events
}

// returnComplete releases survivors to the roster with an injury-scaled rest
// window and settles the quest's terminal phase.
func (s Scheduler) returnComplete(state *State, q *Quest, now time.Time) []OutcomeEvent {
	events := make([]OutcomeEvent, 0, 2)
	for _, id := range q.HeroIDs {
		h, ok := state.Registry.Get(id)
		if !ok {
			events = append(events, ev(EventStaleHero, q.ID, id, now, nil))
			continue
		}
		rest := RestDuration(s.Machine.BaseRestSeconds, h.Injury)
		state.Registry.Release(id, rest)
	}

	success := q.Result != nil && q.Result.Success
	if success {
		q.Phase = PhaseCompleted
		events = append(events, ev(EventQuestComplete, q.ID, "", now, map[string]any{
			"gold": q.Result.GoldReward,
			"xp":   q.Result.XPReward,
		}))
	} else {
		q.Phase = PhaseFailed
		events = append(events, ev(EventQuestFailed, q.ID, "", now, nil))
	}
	q.PhaseProgress = 0
	return events
}
