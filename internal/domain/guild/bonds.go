package guild

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// BondTracker watches which 4-hero groups quest together repeatedly and
// promotes them to formed parties once every member has enough shared
// successes. It mutates only the aggregate's BondBook and hero party tags.
type BondTracker struct {
	Threshold int
}

func NewBondTracker(threshold int) BondTracker {
	if threshold <= 0 {
		threshold = FormationThreshold
	}
	return BondTracker{Threshold: threshold}
}

func memberKey(heroes []*Hero) []string {
	ids := make([]string, 0, len(heroes))
	for _, h := range heroes {
		ids = append(ids, h.ID)
	}
	sort.Strings(ids)
	return ids
}

func sameMembers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func distinctClasses(heroes []*Hero) bool {
	seen := map[Class]bool{}
	for _, h := range heroes {
		if seen[h.Class] {
			return false
		}
		seen[h.Class] = true
	}
	return true
}

func hasProtector(heroes []*Hero) bool {
	for _, h := range heroes {
		if h.Class.Protector() {
			return true
		}
	}
	return false
}

// GetOrCreateProtoParty returns the tracked group for these heroes, creating
// one when the group is eligible: exactly 4 heroes, all classes distinct,
// none already committed to a formed party. Ineligible groups return nil.
func (t BondTracker) GetOrCreateProtoParty(state *State, heroes []*Hero) *Party {
	if len(heroes) != PartySize || !distinctClasses(heroes) {
		return nil
	}
	for _, h := range heroes {
		if h.PartyID != "" && t.formedByID(state, h.PartyID) != nil {
			return nil
		}
	}
	key := memberKey(heroes)
	for _, p := range state.Bonds.Proto {
		if sameMembers(p.MemberIDs, key) {
			return p
		}
	}
	party := &Party{
		ID:             uuid.NewString(),
		MemberIDs:      key,
		QuestsTogether: map[string]int{},
	}
	state.Bonds.Proto = append(state.Bonds.Proto, party)
	return party
}

// RecordQuestSuccess bumps each member's counter for this specific group.
// The group is promoted proto->formed on the single call where the last
// member reaches the threshold; justFormed is true only then.
func (t BondTracker) RecordQuestSuccess(state *State, heroes []*Hero, now time.Time) (*Party, bool) {
	if party := t.FormedParty(state, heroes); party != nil {
		for _, id := range party.MemberIDs {
			party.QuestsTogether[id]++
		}
		return party, false
	}

	party := t.GetOrCreateProtoParty(state, heroes)
	if party == nil {
		return nil, false
	}
	for _, id := range party.MemberIDs {
		party.QuestsTogether[id]++
	}
	for _, id := range party.MemberIDs {
		if party.QuestsTogether[id] < t.Threshold {
			return party, false
		}
	}

	party.Formed = true
	party.FormedAt = now
	for _, id := range party.MemberIDs {
		if h, ok := state.Registry.Get(id); ok {
			h.PartyID = party.ID
		}
	}
	state.Bonds.Proto = removeParty(state.Bonds.Proto, party.ID)
	state.Bonds.Formed = append(state.Bonds.Formed, party)
	return party, true
}

// FormedParty reports the formed party these exact heroes belong to, or nil.
// Bonus eligibility requires all current members to share one formed party.
func (t BondTracker) FormedParty(state *State, heroes []*Hero) *Party {
	if len(heroes) != PartySize {
		return nil
	}
	id := heroes[0].PartyID
	if id == "" {
		return nil
	}
	for _, h := range heroes[1:] {
		if h.PartyID != id {
			return nil
		}
	}
	party := t.formedByID(state, id)
	if party == nil || !sameMembers(party.MemberIDs, memberKey(heroes)) {
		return nil
	}
	return party
}

func (t BondTracker) formedByID(state *State, id string) *Party {
	for _, p := range state.Bonds.Formed {
		if p.ID == id && p.Formed {
			return p
		}
	}
	return nil
}

// AddMember fills a vacated slot with a class-distinct replacement. The new
// slot starts at 0 shared quests, so full bonuses need re-qualification.
func (t BondTracker) AddMember(state *State, party *Party, hero *Hero) (bool, string) {
	if party == nil || hero == nil {
		return false, "missing party or hero"
	}
	if len(party.MemberIDs) >= PartySize {
		return false, "party has no open slot"
	}
	if hero.PartyID != "" {
		return false, "hero already belongs to a party"
	}
	for _, id := range party.MemberIDs {
		member, ok := state.Registry.Get(id)
		if ok && member.Class == hero.Class {
			return false, "party already has a " + string(hero.Class)
		}
	}
	party.MemberIDs = append(party.MemberIDs, hero.ID)
	sort.Strings(party.MemberIDs)
	party.QuestsTogether[hero.ID] = 0
	hero.PartyID = party.ID
	return true, ""
}

// RemoveMember vacates a slot (death or explicit removal) and drops the
// slot's counter.
func (t BondTracker) RemoveMember(party *Party, heroID string) {
	if party == nil {
		return
	}
	for i, id := range party.MemberIDs {
		if id == heroID {
			party.MemberIDs = append(party.MemberIDs[:i], party.MemberIDs[i+1:]...)
			delete(party.QuestsTogether, heroID)
			return
		}
	}
}

// Disband destroys a formed party and clears member tags.
func (t BondTracker) Disband(state *State, partyID string) bool {
	party := t.formedByID(state, partyID)
	if party == nil {
		return false
	}
	for _, id := range party.MemberIDs {
		if h, ok := state.Registry.Get(id); ok && h.PartyID == partyID {
			h.PartyID = ""
		}
	}
	state.Bonds.Formed = removeParty(state.Bonds.Formed, partyID)
	return true
}

// PartyByID searches formed then proto books.
func (t BondTracker) PartyByID(state *State, partyID string) *Party {
	for _, p := range state.Bonds.Formed {
		if p.ID == partyID {
			return p
		}
	}
	for _, p := range state.Bonds.Proto {
		if p.ID == partyID {
			return p
		}
	}
	return nil
}

func removeParty(parties []*Party, id string) []*Party {
	out := parties[:0]
	for _, p := range parties {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}
