package guild

const (
	PartySize          = 4
	FormationThreshold = 3

	FatiguePerFloor      = 0.04
	DeathEligibleFloor   = 3
	FloorDeathChance     = 0.12
	QuestDeathChance     = 0.25
	ProtectorDeathFactor = 0.30

	FormedPartyLuckBonus = 0.05
	LuckChancePerPoint   = 0.002

	MinSuccessChance = 0.05
	MaxSuccessChance = 0.95

	PartialClearPenalty = 0.5
	RankXPStepBonus     = 0.4

	BaseRestSeconds = 60.0
)

var rankBaseChance = map[Rank]float64{
	RankE: 0.85,
	RankD: 0.78,
	RankC: 0.68,
	RankB: 0.58,
	RankA: 0.46,
	RankS: 0.35,
}

// RankBaseChance is the unmodified success chance for a quest of the given
// rank. Unknown ranks fall back to an even roll.
func RankBaseChance(r Rank) float64 {
	if c, ok := rankBaseChance[r]; ok {
		return c
	}
	return 0.5
}

var injuryRestMultiplier = map[InjuryTier]float64{
	InjuryNone:     1.0,
	InjuryLight:    1.5,
	InjuryModerate: 2.0,
	InjurySevere:   3.0,
	InjuryCritical: 4.0,
}

// RestDuration scales the base rest window by injury severity.
func RestDuration(baseSeconds float64, tier InjuryTier) float64 {
	m, ok := injuryRestMultiplier[tier]
	if !ok {
		m = 1.0
	}
	return baseSeconds * m
}

// failureInjury maps quest rank to the injury tier handed to survivors of a
// failed resolution. A protector in the party softens it by one tier.
func failureInjury(rank Rank, protector bool) InjuryTier {
	var tier InjuryTier
	switch rank {
	case RankE, RankD:
		tier = InjuryLight
	case RankC, RankB:
		tier = InjuryModerate
	case RankA:
		tier = InjurySevere
	default:
		tier = InjuryCritical
	}
	if protector && tier > InjuryNone {
		tier--
	}
	return tier
}
