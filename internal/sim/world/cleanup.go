package world

import (
	"hordesim.ai/internal/sim/catalogs"
	"hordesim.ai/internal/sim/world/feature/combat"
	"hordesim.ai/internal/sim/world/feature/progression"
	"hordesim.ai/internal/sim/world/feature/survival/respawn"
	"hordesim.ai/internal/sim/world/logic/mathx"
	"hordesim.ai/internal/sim/world/logic/pool"
)

// systemCleanup is phase 5: release finished pooled effects, count kills,
// drop far enemies, queue fallen allies, then advance waves and levels.
func (w *World) systemCleanup(nowTick uint64, dt float64) {
	w.projectilePool.ForEachActive(func(h pool.Handle) {
		if w.projectiles[h].Done {
			w.projectiles[h] = Projectile{Hits: w.projectiles[h].Hits[:0]}
			w.projectilePool.Release(h)
		}
	})
	w.damageNumberPool.ForEachActive(func(h pool.Handle) {
		if w.damageNumbers[h].Age >= combat.DamageNumberLifetime {
			w.damageNumbers[h] = DamageNumber{}
			w.damageNumberPool.Release(h)
		}
	})

	clear(w.allyByID)
	for _, a := range w.allies {
		if a.Alive {
			w.allyByID[a.ID] = a
		}
	}

	killed := 0
	far2 := w.cfg.EnemyDespawnDistance * w.cfg.EnemyDespawnDistance
	keep := w.enemies[:0]
	for _, e := range w.enemies {
		switch {
		case !e.Alive:
			killed++
			w.stats.RecordKill(nowTick)
			if a, ok := w.allyByID[e.KilledBy]; ok {
				w.creditKill(a)
			}
		case e.Pos.DistSq(w.player.Pos) > far2:
			w.cur.despawned++
		default:
			keep = append(keep, e)
		}
	}
	clear(w.enemies[len(keep):])
	w.enemies = keep
	w.kills += uint64(killed)

	finished := w.respawns.Tick(dt)
	alive := w.allies[:0]
	for _, a := range w.allies {
		if a.Alive {
			alive = append(alive, a)
			continue
		}
		w.cur.deaths++
		w.stats.RecordAllyDeath(nowTick)
		w.respawns.Push(respawn.Entry{
			CreatureID: a.Def.ID,
			Tier:       a.Def.Tier,
			Remaining:  respawn.Delay(a.Def.Tier, a.Def.RespawnTime),
		})
	}
	lost := len(w.allies) - len(alive)
	clear(w.allies[len(alive):])
	w.allies = alive
	if lost > 0 {
		w.reslotAllies()
	}
	for _, e := range finished {
		if id, ok := w.catalogs.Creatures.Index[e.CreatureID]; ok {
			w.addAlly(id)
		}
	}

	if w.waves.Advance(w.kills) {
		w.cur.events = append(w.cur.events, RunEvent{Kind: EventWave, Wave: w.waves.Current})
		w.log.Printf("run %s wave %d kills=%d enemies=%d", w.RunID(), w.waves.Current, w.kills, len(w.enemies))
	}
	if gained := w.levels.AddKills(killed); gained > 0 {
		for i := 0; i < gained; i++ {
			level := w.levels.Level - gained + 1 + i
			w.cur.events = append(w.cur.events, RunEvent{Kind: EventLevel, Level: level})
			w.levelUpReward(level)
		}
	}
	w.evolveAllies()

	if w.player.HP <= 0 && !w.settings.GodMode {
		w.endRun("player down")
	}
}

// creditKill gives a one kill of credit. A level raises damage and max hp by 10%
// and heals by the hp gained.
func (w *World) creditKill(a *Ally) {
	if !a.XP.Credit(a.Def) {
		return
	}
	a.Damage *= progression.CreatureLevelGrowth
	gain := a.MaxHP * (progression.CreatureLevelGrowth - 1)
	a.MaxHP += gain
	a.HP += gain
	w.cur.events = append(w.cur.events, RunEvent{Kind: EventAllyLevel, Level: a.XP.Level, Ref: a.Def.ID})
}

// levelUpReward rolls the deck once for a player level. The roll is seeded
// by run and level so replays grant the same cards.
func (w *World) levelUpReward(level int) {
	card, ok := w.deck.Roll(mathx.Hash2(w.cfg.Seed, int(w.runNum), level))
	if !ok {
		return
	}
	switch card.Type {
	case catalogs.CardCreature:
		if id, ok := w.catalogs.Creatures.Index[card.ID]; ok {
			w.addAlly(id)
		}
	case catalogs.CardArtifact:
		if def, ok := w.catalogs.Progression.Artifact(card.ID); ok {
			w.artifacts.Apply(def)
			w.cur.events = append(w.cur.events, RunEvent{Kind: EventArtifact, Level: level, Ref: def.ID})
		}
	}
}

// evolveAllies merges at most one group of same-kind allies into the
// creature they evolve into, placed at the group's mean position.
func (w *World) evolveAllies() {
	members := make([]progression.Member, 0, len(w.allies))
	for i, a := range w.allies {
		if a.Alive && a.Def.EvolvesInto != "" {
			members = append(members, progression.Member{Key: i, CreatureID: a.Def.ID, Level: a.XP.Level})
		}
	}
	ev, ok := progression.NextEvolution(members, func(id string) (catalogs.CreatureDef, bool) {
		idx, ok := w.catalogs.Creatures.Index[id]
		if !ok {
			return catalogs.CreatureDef{}, false
		}
		return w.catalogs.Creatures.Get(idx)
	})
	if !ok {
		return
	}
	into, ok := w.catalogs.Creatures.Index[ev.Into]
	if !ok {
		return
	}

	consumed := make(map[int]bool, len(ev.Members))
	var center mathx.Vec2
	for _, k := range ev.Members {
		consumed[k] = true
		center = center.Add(w.allies[k].Pos)
	}
	center = center.Scale(1 / float64(len(ev.Members)))

	keep := w.allies[:0]
	for i, a := range w.allies {
		if !consumed[i] {
			keep = append(keep, a)
		}
	}
	clear(w.allies[len(keep):])
	w.allies = keep

	if a := w.addAlly(into); a != nil {
		a.Pos = center
	}
	w.cur.events = append(w.cur.events, RunEvent{Kind: EventEvolve, Value: float64(len(ev.Members)), Ref: ev.Into})
	w.log.Printf("run %s evolve %dx %s -> %s", w.RunID(), len(ev.Members), ev.From, ev.Into)
}

// endRun closes the current run and immediately starts the next one.
func (w *World) endRun(reason string) {
	w.cur.events = append(w.cur.events, RunEvent{
		Kind:  EventRunEnd,
		Wave:  w.waves.Current,
		Level: w.levels.Level,
		Value: float64(w.kills),
	})
	w.log.Printf("run %s ended (%s) wave=%d level=%d kills=%d", w.RunID(), reason, w.waves.Current, w.levels.Level, w.kills)
	w.startRun()
}
