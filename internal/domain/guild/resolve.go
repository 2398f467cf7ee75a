package guild

import "fmt"

// Resolver owns the probabilistic part of quest execution: whole-quest
// resolution for field quests and per-floor resolution for dungeons. It
// never mutates heroes; callers apply the outcomes it reports.
type Resolver struct {
	Rand Rand
}

func avgLuck(heroes []*Hero) float64 {
	if len(heroes) == 0 {
		return 0
	}
	total := 0
	for _, h := range heroes {
		total += h.Stats.Luck
	}
	return float64(total) / float64(len(heroes))
}

func clampChance(c float64) float64 {
	if c < MinSuccessChance {
		return MinSuccessChance
	}
	if c > MaxSuccessChance {
		return MaxSuccessChance
	}
	return c
}

// SuccessChance is the base chance for the quest rank adjusted by average
// party luck plus any formed-party bonus.
func (r Resolver) SuccessChance(q *Quest, heroes []*Hero, luckBonus float64) float64 {
	chance := RankBaseChance(q.Rank) + avgLuck(heroes)*LuckChancePerPoint + luckBonus
	return clampChance(chance)
}

// FloorChance applies cumulative fatigue on top of the quest chance. Fatigue
// grows with the floor the party is entering.
func (r Resolver) FloorChance(q *Quest, heroes []*Hero, floor int, luckBonus float64) float64 {
	fatigue := float64(floor-1) * FatiguePerFloor
	return clampChance(r.SuccessChance(q, heroes, luckBonus) - fatigue)
}

// ResolveFloor rolls one dungeon floor. On a failed combat floor at or past
// the death-eligible depth every hero rolls independently against the floor
// death chance; a protector in the party scales that chance down. Heroes
// holding a revive charm convert an eligible death into a revival.
func (r Resolver) ResolveFloor(q *Quest, heroes []*Hero, floor int, luckBonus float64) (FloorResult, []HeroOutcome) {
	result := FloorResult{Floor: floor}
	chance := r.FloorChance(q, heroes, floor, luckBonus)
	result.Success = r.Rand.Float64() < chance

	outcomes := make([]HeroOutcome, 0, len(heroes))
	if result.Success {
		for _, h := range heroes {
			outcomes = append(outcomes, HeroOutcome{HeroID: h.ID, Kind: OutcomeUnaffected})
		}
		return result, outcomes
	}

	protector := hasProtector(heroes)
	deathChance := 0.0
	if q.Combat && floor >= DeathEligibleFloor {
		deathChance = FloorDeathChance
		if protector {
			deathChance *= ProtectorDeathFactor
		}
	}
	injury := failureInjury(q.Rank, protector)
	for _, h := range heroes {
		if deathChance > 0 && r.Rand.Float64() < deathChance {
			if h.ReviveCharm {
				result.Revived = append(result.Revived, h.ID)
				outcomes = append(outcomes, HeroOutcome{HeroID: h.ID, Kind: OutcomeRevived, Injury: InjuryCritical})
				continue
			}
			result.Deaths = append(result.Deaths, h.ID)
			outcomes = append(outcomes, HeroOutcome{HeroID: h.ID, Kind: OutcomeDied})
			continue
		}
		result.Injuries = append(result.Injuries, h.ID)
		outcomes = append(outcomes, HeroOutcome{HeroID: h.ID, Kind: OutcomeInjured, Injury: injury})
	}
	result.PartyWiped = len(result.Deaths) == len(heroes)
	return result, outcomes
}

// Resolve decides a whole non-dungeon quest with a single uniform draw. A
// currently-formed party gets exactly one retry on failure; the second draw
// is final no matter what.
func (r Resolver) Resolve(q *Quest, heroes []*Hero, luckBonus float64, rerollable bool) *QuestResult {
	chance := r.SuccessChance(q, heroes, luckBonus)
	success := r.Rand.Float64() < chance
	rerolled := false
	if !success && rerollable {
		success = r.Rand.Float64() < chance
		rerolled = true
	}

	result := &QuestResult{Success: success, Rerolled: rerolled}
	if success {
		result.GoldReward = q.GoldReward
		result.XPReward = q.XPReward
		result.Message = fmt.Sprintf("%s cleared", q.Name)
		for _, h := range heroes {
			result.HeroOutcomes = append(result.HeroOutcomes, HeroOutcome{HeroID: h.ID, Kind: OutcomeUnaffected})
		}
		return result
	}

	result.Message = fmt.Sprintf("%s failed", q.Name)
	protector := hasProtector(heroes)
	deathChance := 0.0
	if q.Combat && q.Rank.DeathEligible() {
		deathChance = QuestDeathChance
		if protector {
			deathChance *= ProtectorDeathFactor
		}
	}
	injury := failureInjury(q.Rank, protector)
	for _, h := range heroes {
		if deathChance > 0 && r.Rand.Float64() < deathChance {
			if h.ReviveCharm {
				result.HeroOutcomes = append(result.HeroOutcomes, HeroOutcome{HeroID: h.ID, Kind: OutcomeRevived, Injury: InjuryCritical})
				continue
			}
			result.HeroOutcomes = append(result.HeroOutcomes, HeroOutcome{HeroID: h.ID, Kind: OutcomeDied})
			continue
		}
		result.HeroOutcomes = append(result.HeroOutcomes, HeroOutcome{HeroID: h.ID, Kind: OutcomeInjured, Injury: injury})
	}
	return result
}

// CompileDungeonResult folds the floor log into the overall outcome. A full
// clear needs every floor succeeded and no retreat; a partial clear pays
// floorsSucceeded/floorCount of base rewards scaled by the penalty factor.
func (r Resolver) CompileDungeonResult(q *Quest) *QuestResult {
	succeeded := 0
	for _, f := range q.FloorLog {
		if f.Success {
			succeeded++
		}
	}
	full := !q.HasRetreated && len(q.FloorLog) == q.FloorCount && succeeded == q.FloorCount

	result := &QuestResult{
		Success:       full,
		FloorsCleared: succeeded,
	}
	if full {
		result.GoldReward = q.GoldReward
		result.XPReward = q.XPReward
		result.Message = fmt.Sprintf("%s fully cleared (%d floors)", q.Name, q.FloorCount)
		return result
	}

	share := 0.0
	if q.FloorCount > 0 {
		share = float64(succeeded) / float64(q.FloorCount) * PartialClearPenalty
	}
	result.GoldReward = int(float64(q.GoldReward) * share)
	result.XPReward = int(float64(q.XPReward) * share)
	if q.HasRetreated {
		result.Message = fmt.Sprintf("%s abandoned after floor %d", q.Name, q.CurrentFloor)
	} else {
		result.Message = fmt.Sprintf("%s failed on floor %d", q.Name, q.CurrentFloor)
	}
	return result
}

// HeroXPShare splits the total reward evenly, then adds a fixed percentage
// per rank the quest sits above the hero. The bonus applies only on success.
func HeroXPShare(totalXP, partySize int, questRank, heroRank Rank, success bool) int {
	if partySize <= 0 {
		return 0
	}
	share := float64(totalXP) / float64(partySize)
	if success {
		diff := questRank.Index() - heroRank.Index()
		if diff > 0 {
			share *= 1 + RankXPStepBonus*float64(diff)
		}
	}
	return int(share)
}
