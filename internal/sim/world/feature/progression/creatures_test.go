package progression

import (
	"testing"

	"hordesim.ai/internal/sim/catalogs"
)

func TestCreatureXPLevels(t *testing.T) {
	def := catalogs.CreatureDef{ID: "imp", KillsPerLevel: []int{2, 3}, MaxLevel: 3}
	x := NewCreatureXP(def)
	if x.Level != 1 || x.KillsForNext != 2 {
		t.Fatalf("initial: %+v", x)
	}
	if x.Credit(def) {
		t.Fatalf("leveled after one kill")
	}
	if !x.Credit(def) || x.Level != 2 || x.Kills != 0 || x.KillsForNext != 3 {
		t.Fatalf("level 2: %+v", x)
	}
	for i := 0; i < 2; i++ {
		if x.Credit(def) {
			t.Fatalf("early level 3: %+v", x)
		}
	}
	if !x.Credit(def) || x.Level != 3 {
		t.Fatalf("level 3: %+v", x)
	}
	for i := 0; i < 100; i++ {
		if x.Credit(def) {
			t.Fatalf("leveled past max: %+v", x)
		}
	}
	if x.Level != 3 || x.Kills != 100 {
		t.Fatalf("capped: %+v", x)
	}
}

func TestCreatureXPWithoutThresholdsNeverLevels(t *testing.T) {
	def := catalogs.CreatureDef{ID: "rock"}
	x := NewCreatureXP(def)
	if x.MaxLevel != 1 || x.KillsForNext != DefaultCreatureKills {
		t.Fatalf("initial: %+v", x)
	}
	for i := 0; i < 50; i++ {
		if x.Credit(def) {
			t.Fatalf("leveled without a level table")
		}
	}
}

func TestNextEvolution(t *testing.T) {
	defs := map[string]catalogs.CreatureDef{
		"imp":   {ID: "imp", EvolvesInto: "fiend", EvolutionCount: 3},
		"hound": {ID: "hound", EvolvesInto: "hellhound", EvolutionCount: 2},
		"fiend": {ID: "fiend"},
	}
	lookup := func(id string) (catalogs.CreatureDef, bool) {
		d, ok := defs[id]
		return d, ok
	}

	if _, ok := NextEvolution([]Member{{Key: 0, CreatureID: "imp"}, {Key: 1, CreatureID: "imp"}}, lookup); ok {
		t.Fatalf("two imps should not evolve")
	}

	members := []Member{
		{Key: 0, CreatureID: "imp", Level: 3},
		{Key: 1, CreatureID: "imp", Level: 1},
		{Key: 2, CreatureID: "fiend", Level: 1},
		{Key: 3, CreatureID: "imp", Level: 2},
		{Key: 4, CreatureID: "imp", Level: 1},
		{Key: 5, CreatureID: "hound", Level: 1},
	}
	ev, ok := NextEvolution(members, lookup)
	if !ok || ev.From != "imp" || ev.Into != "fiend" {
		t.Fatalf("evolution: %+v ok=%v", ev, ok)
	}
	// Lowest levels first, ties keep input order.
	want := []int{1, 4, 3}
	if len(ev.Members) != len(want) {
		t.Fatalf("members=%v", ev.Members)
	}
	for i, k := range want {
		if ev.Members[i] != k {
			t.Fatalf("members=%v want %v", ev.Members, want)
		}
	}

	members = append(members, Member{Key: 6, CreatureID: "hound"})
	if ev, _ := NextEvolution(members, lookup); ev.From != "hound" {
		t.Fatalf("hound sorts before imp, got %+v", ev)
	}
}
