package world

import (
	"io"
	"log"
	"testing"

	"hordesim.ai/internal/sim/catalogs"
	"hordesim.ai/internal/sim/world/feature/combat"
	"hordesim.ai/internal/sim/world/logic/mathx"
)

func newTestWorld(t *testing.T, mut func(*WorldConfig)) *World {
	t.Helper()
	cfg := WorldConfig{ID: "TEST", TickRateHz: 30, Seed: 42}
	if mut != nil {
		mut(&cfg)
	}
	w, err := New(cfg, catalogs.Defaults())
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	w.SetLogger(log.New(io.Discard, "", 0))
	return w
}

func creatureID(t *testing.T, w *World, id string) uint16 {
	t.Helper()
	idx, ok := w.catalogs.Creatures.Index[id]
	if !ok {
		t.Fatalf("missing creature %q", id)
	}
	return idx
}

// placeEnemy drops a goblin at pos with the given health.
func placeEnemy(t *testing.T, w *World, pos mathx.Vec2, hp float64) *Enemy {
	t.Helper()
	idx, ok := w.catalogs.Enemies.Index["goblin"]
	if !ok {
		t.Fatalf("missing enemy goblin")
	}
	def, _ := w.catalogs.Enemies.Get(idx)
	e := &Enemy{
		ID:       w.newActorID(),
		DefID:    idx,
		Def:      def,
		Pos:      pos,
		HP:       hp,
		MaxHP:    hp,
		Damage:   def.BaseDamage,
		Alive:    true,
		Cooldown: combat.NewCooldown(def.AttackSpeed),
	}
	w.enemies = append(w.enemies, e)
	return e
}

// quiet stops the world from spawning or moving the player so a test can
// stage its own encounter.
func quiet(w *World) {
	w.settings.SpawnMultiplier = 0
	w.cfg.PlayerSpeed = 0
}

func stepN(w *World, n int) []TickLogEntry {
	out := make([]TickLogEntry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, w.StepOnce(TickInput{}))
	}
	return out
}

func hasEvent(entry TickLogEntry, kind string) bool {
	for _, ev := range entry.Events {
		if ev.Kind == kind {
			return true
		}
	}
	return false
}
