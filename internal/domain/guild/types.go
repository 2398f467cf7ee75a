package guild

import (
	"encoding/json"
	"time"
)

type Class string

const (
	ClassWarrior  Class = "warrior"
	ClassMage     Class = "mage"
	ClassRanger   Class = "ranger"
	ClassCleric   Class = "cleric"
	ClassGuardian Class = "guardian"
)

// Protector classes shield their party from death rolls.
func (c Class) Protector() bool {
	return c == ClassGuardian
}

type Rank string

const (
	RankE Rank = "E"
	RankD Rank = "D"
	RankC Rank = "C"
	RankB Rank = "B"
	RankA Rank = "A"
	RankS Rank = "S"
)

var rankOrder = map[Rank]int{
	RankE: 0,
	RankD: 1,
	RankC: 2,
	RankB: 3,
	RankA: 4,
	RankS: 5,
}

func (r Rank) Index() int {
	return rankOrder[r]
}

func (r Rank) DeathEligible() bool {
	return r == RankA || r == RankS
}

type HeroStatus string

const (
	HeroIdle            HeroStatus = "idle"
	HeroTraveling       HeroStatus = "traveling"
	HeroAtLocation      HeroStatus = "at_location"
	HeroQuesting        HeroStatus = "questing"
	HeroAwaitingExecute HeroStatus = "awaiting_execute"
	HeroAwaitingReturn  HeroStatus = "awaiting_return"
	HeroReturning       HeroStatus = "returning"
	HeroResting         HeroStatus = "resting"
)

type InjuryTier int

const (
	InjuryNone InjuryTier = iota
	InjuryLight
	InjuryModerate
	InjurySevere
	InjuryCritical
)

func (t InjuryTier) String() string {
	switch t {
	case InjuryNone:
		return "none"
	case InjuryLight:
		return "light"
	case InjuryModerate:
		return "moderate"
	case InjurySevere:
		return "severe"
	case InjuryCritical:
		return "critical"
	default:
		return "unknown"
	}
}

type Stats struct {
	Strength int `json:"strength"`
	Magic    int `json:"magic"`
	Agility  int `json:"agility"`
	Vitality int `json:"vitality"`
	Luck     int `json:"luck"`
}

func (s Stats) Power() int {
	return s.Strength + s.Magic + s.Agility + s.Vitality
}

func (s Stats) Add(o Stats) Stats {
	return Stats{
		Strength: s.Strength + o.Strength,
		Magic:    s.Magic + o.Magic,
		Agility:  s.Agility + o.Agility,
		Vitality: s.Vitality + o.Vitality,
		Luck:     s.Luck + o.Luck,
	}
}

type Hero struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Class         Class      `json:"class"`
	Rank          Rank       `json:"rank"`
	Level         int        `json:"level"`
	XP            int        `json:"xp"`
	Stats         Stats      `json:"stats"`
	Status        HeroStatus `json:"status"`
	QuestID       string     `json:"quest_id,omitempty"`
	PartyID       string     `json:"party_id,omitempty"`
	Injury        InjuryTier `json:"injury"`
	RestRemaining float64    `json:"rest_remaining,omitempty"`
	ReviveCharm   bool       `json:"revive_charm,omitempty"`
}

type QuestPhase string

const (
	PhaseAvailable       QuestPhase = "available"
	PhaseTravel          QuestPhase = "travel"
	PhaseAwaitingExecute QuestPhase = "awaiting_execute"
	PhaseExecute         QuestPhase = "execute"
	PhaseAwaitingClaim   QuestPhase = "awaiting_claim"
	PhaseAwaitingReturn  QuestPhase = "awaiting_return"
	PhaseReturning       QuestPhase = "returning"
	PhaseCompleted       QuestPhase = "completed"
	PhaseFailed          QuestPhase = "failed"
)

var phaseOrder = map[QuestPhase]int{
	PhaseAvailable:       0,
	PhaseTravel:          1,
	PhaseAwaitingExecute: 2,
	PhaseExecute:         3,
	PhaseAwaitingClaim:   4,
	PhaseAwaitingReturn:  5,
	PhaseReturning:       6,
	PhaseCompleted:       7,
	PhaseFailed:          7,
}

func (p QuestPhase) Index() int {
	return phaseOrder[p]
}

func (p QuestPhase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// Modifiers aggregates the external time adjustments for a quest run. Mount
// speed and passive reductions are computed by collaborators at assignment
// time; zero values mean "no adjustment".
type Modifiers struct {
	TravelSpeed        float64 `json:"travel_speed,omitempty"`
	TravelReduction    float64 `json:"travel_reduction,omitempty"`
	ExecuteReduction   float64 `json:"execute_reduction,omitempty"`
	QuestTimeReduction float64 `json:"quest_time_reduction,omitempty"`
}

type HeroOutcomeKind string

const (
	OutcomeDied       HeroOutcomeKind = "died"
	OutcomeRevived    HeroOutcomeKind = "revived"
	OutcomeInjured    HeroOutcomeKind = "injured"
	OutcomeUnaffected HeroOutcomeKind = "unaffected"
)

type HeroOutcome struct {
	HeroID string          `json:"hero_id"`
	Kind   HeroOutcomeKind `json:"kind"`
	Injury InjuryTier      `json:"injury"`
}

type FloorResult struct {
	Floor      int      `json:"floor"`
	Success    bool     `json:"success"`
	Deaths     []string `json:"deaths,omitempty"`
	Revived    []string `json:"revived,omitempty"`
	Injuries   []string `json:"injuries,omitempty"`
	PartyWiped bool     `json:"party_wiped,omitempty"`
}

type QuestResult struct {
	Success       bool          `json:"success"`
	GoldReward    int           `json:"gold_reward"`
	XPReward      int           `json:"xp_reward"`
	Message       string        `json:"message"`
	Rerolled      bool          `json:"rerolled,omitempty"`
	FloorsCleared int           `json:"floors_cleared,omitempty"`
	HeroOutcomes  []HeroOutcome `json:"hero_outcomes,omitempty"`
}

type Quest struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Rank       Rank    `json:"rank"`
	Combat     bool    `json:"combat"`
	MaxHeroes  int     `json:"max_heroes"`
	TravelTime float64 `json:"travel_time"`
	ExecTime   float64 `json:"exec_time"`
	ReturnTime float64 `json:"return_time"`
	GoldReward int     `json:"gold_reward"`
	XPReward   int     `json:"xp_reward"`

	HeroIDs       []string   `json:"hero_ids,omitempty"`
	Phase         QuestPhase `json:"phase"`
	PhaseProgress float64    `json:"phase_progress"`
	Mods          Modifiers  `json:"mods"`

	IsDungeon    bool          `json:"is_dungeon,omitempty"`
	FloorCount   int           `json:"floor_count,omitempty"`
	CurrentFloor int           `json:"current_floor,omitempty"`
	FloorLog     []FloorResult `json:"floor_log,omitempty"`
	HasRetreated bool          `json:"has_retreated,omitempty"`

	Result *QuestResult `json:"result,omitempty"`
}

// TravelDuration is base travel time scaled by mount speed and the
// travel/quest time reductions.
func (q *Quest) TravelDuration() float64 {
	speed := q.Mods.TravelSpeed
	if speed <= 0 {
		speed = 1
	}
	return q.TravelTime * speed * (1 - q.Mods.TravelReduction) * (1 - q.Mods.QuestTimeReduction)
}

func (q *Quest) ExecuteDuration() float64 {
	return q.ExecTime * (1 - q.Mods.ExecuteReduction) * (1 - q.Mods.QuestTimeReduction)
}

func (q *Quest) ReturnDuration() float64 {
	speed := q.Mods.TravelSpeed
	if speed <= 0 {
		speed = 1
	}
	return q.ReturnTime * speed * (1 - q.Mods.TravelReduction) * (1 - q.Mods.QuestTimeReduction)
}

// FloorDuration divides the execute window evenly across dungeon floors.
func (q *Quest) FloorDuration() float64 {
	if q.FloorCount <= 0 {
		return q.ExecuteDuration()
	}
	return q.ExecuteDuration() / float64(q.FloorCount)
}

type Party struct {
	ID             string         `json:"id"`
	MemberIDs      []string       `json:"member_ids"`
	QuestsTogether map[string]int `json:"quests_together"`
	Formed         bool           `json:"formed"`
	FormedAt       time.Time      `json:"formed_at,omitempty"`
}

type OutcomeEvent struct {
	Type       string         `json:"type"`
	QuestID    string         `json:"quest_id,omitempty"`
	HeroID     string         `json:"hero_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

const (
	EventPhaseChanged  = "phase_changed"
	EventFloorResolved = "floor_resolved"
	EventHeroDied      = "hero_died"
	EventHeroRevived   = "hero_revived"
	EventHeroInjured   = "hero_injured"
	EventPartyWiped    = "party_wiped"
	EventRetreated     = "retreated"
	EventRewardClaimed = "reward_claimed"
	EventQuestComplete = "quest_completed"
	EventQuestFailed   = "quest_failed"
	EventRestComplete  = "rest_complete"
	EventPartyFormed   = "party_formed"
	EventStaleHero     = "stale_hero_reference"
)

// BondBook holds the groups the tracker is watching plus promoted parties.
type BondBook struct {
	Proto  []*Party `json:"proto,omitempty"`
	Formed []*Party `json:"formed,omitempty"`
}

type GraveEntry struct {
	HeroID string    `json:"hero_id"`
	Name   string    `json:"name"`
	Cause  string    `json:"cause"`
	DiedAt time.Time `json:"died_at"`
}

// State is the guild aggregate: the authoritative hero registry, active
// quests in processing order, and the bond tracker's books.
type State struct {
	GuildID   string    `json:"guild_id"`
	Registry  Registry  `json:"registry"`
	Quests    []*Quest  `json:"quests,omitempty"`
	Bonds     BondBook  `json:"bonds"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns an independent deep copy. Stores hand out clones so two
// live aggregates never alias the same hero record.
func (s State) Clone() State {
	b, err := json.Marshal(s)
	if err != nil {
		return State{GuildID: s.GuildID, Registry: NewRegistry()}
	}
	var out State
	if err := json.Unmarshal(b, &out); err != nil {
		return State{GuildID: s.GuildID, Registry: NewRegistry()}
	}
	if out.Registry.Heroes == nil {
		out.Registry.Heroes = map[string]*Hero{}
	}
	return out
}

func (s *State) Quest(id string) *Quest {
	for _, q := range s.Quests {
		if q.ID == id {
			return q
		}
	}
	return nil
}
