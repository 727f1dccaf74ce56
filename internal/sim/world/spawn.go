package world

import (
	"hordesim.ai/internal/sim/world/feature/combat"
	"hordesim.ai/internal/sim/world/feature/director/spawns"
	"hordesim.ai/internal/sim/world/logic/mathx"
)

// systemSpawn is phase 2: when the director's interval elapses, place one
// throttled batch in clusters around the player.
func (w *World) systemSpawn(nowTick uint64, dt float64) {
	dec := w.director.Decide(w.waves.Current)
	w.spawnTimer += dt
	if w.spawnTimer < dec.Interval {
		return
	}
	w.spawnTimer = 0

	room := w.settings.MaxEnemies - len(w.enemies)
	if room <= 0 || w.settings.SpawnMultiplier <= 0 {
		return
	}
	n := spawns.BatchSize(dec.Batch.Min, dec.Batch.Max, dec.Throttle, w.settings.SpawnMultiplier, w.rng)
	if n > room {
		n = room
	}

	spawned := 0
	for i, pos := range spawns.Plan(w.player.Pos, n, w.rng) {
		defID, ok := w.catalogs.Enemies.PickForWave(dec.Wave, mathx.Hash2(w.cfg.Seed, int(nowTick), i))
		if !ok {
			continue
		}
		def, _ := w.catalogs.Enemies.Get(defID)
		elite := w.rng.Float64() < dec.EliteChance
		hp, dmg := combat.ScaleEnemy(def.BaseHP, def.BaseDamage, dec.HPScale, elite)
		w.enemies = append(w.enemies, &Enemy{
			ID:       w.newActorID(),
			DefID:    defID,
			Def:      def,
			Pos:      pos,
			HP:       hp,
			MaxHP:    hp,
			Damage:   dmg,
			Elite:    elite,
			Alive:    true,
			Cooldown: combat.NewCooldown(def.AttackSpeed),
		})
		spawned++
	}
	w.cur.spawned += spawned
	w.stats.RecordSpawn(nowTick, spawned)
}
