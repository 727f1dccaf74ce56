package progression

import (
	"math"
	"sort"

	"hordesim.ai/internal/sim/catalogs"
)

const (
	// DefaultCreatureKills is the first threshold for creatures without
	// kills_per_level.
	DefaultCreatureKills = 10
	CreatureLevelGrowth  = 1.1
)

// CreatureXP tracks one ally's kill credit toward its next level.
type CreatureXP struct {
	Level        int `json:"level"`
	Kills        int `json:"kills"`
	KillsForNext int `json:"kills_for_next"`
	MaxLevel     int `json:"max_level"`
}

func NewCreatureXP(def catalogs.CreatureDef) CreatureXP {
	xp := CreatureXP{Level: 1, MaxLevel: def.MaxLevel, KillsForNext: DefaultCreatureKills}
	if len(def.KillsPerLevel) > 0 {
		xp.KillsForNext = def.KillsPerLevel[0]
	}
	if xp.MaxLevel < 1 {
		xp.MaxLevel = 1
	}
	return xp
}

// Credit adds one kill and reports whether the creature leveled. Overflow
// kills carry over; at MaxLevel kills keep counting without leveling.
func (x *CreatureXP) Credit(def catalogs.CreatureDef) bool {
	x.Kills++
	if x.Level >= x.MaxLevel || x.KillsForNext <= 0 || x.Kills < x.KillsForNext {
		return false
	}
	x.Kills -= x.KillsForNext
	x.Level++
	if x.Level-1 < len(def.KillsPerLevel) {
		x.KillsForNext = def.KillsPerLevel[x.Level-1]
	} else {
		x.KillsForNext = math.MaxInt32
	}
	return true
}

// Member is one living ally considered for evolution.
type Member struct {
	Key        int
	CreatureID string
	Level      int
}

// Evolution consumes Members (keys) and yields one Into creature.
type Evolution struct {
	From    string
	Into    string
	Members []int
}

// NextEvolution finds at most one group of same-kind allies large enough to
// evolve. Creature ids are tried in sorted order and the lowest-level
// members are consumed first.
func NextEvolution(members []Member, defs func(id string) (catalogs.CreatureDef, bool)) (Evolution, bool) {
	groups := map[string][]Member{}
	for _, m := range members {
		groups[m.CreatureID] = append(groups[m.CreatureID], m)
	}
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		def, ok := defs(id)
		if !ok || def.EvolvesInto == "" || def.EvolutionCount <= 0 {
			continue
		}
		g := groups[id]
		if len(g) < def.EvolutionCount {
			continue
		}
		sort.SliceStable(g, func(i, j int) bool { return g[i].Level < g[j].Level })
		ev := Evolution{From: id, Into: def.EvolvesInto}
		for _, m := range g[:def.EvolutionCount] {
			ev.Members = append(ev.Members, m.Key)
		}
		return ev, true
	}
	return Evolution{}, false
}
