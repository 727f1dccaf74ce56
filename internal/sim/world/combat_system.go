package world

import (
	"math"

	"hordesim.ai/internal/sim/world/feature/combat"
	"hordesim.ai/internal/sim/world/feature/progression"
	"hordesim.ai/internal/sim/world/logic/crit"
	"hordesim.ai/internal/sim/world/logic/mathx"
	"hordesim.ai/internal/sim/world/logic/pool"
)

// projectileSpread is the angle between shots of a multi-projectile volley.
const projectileSpread = 0.15

// systemCombat is phase 4: ally attacks, projectile flight, enemy attacks,
// then floating damage numbers.
func (w *World) systemCombat(nowTick uint64, dt float64) {
	if w.player.Invuln > 0 {
		w.player.Invuln = math.Max(0, w.player.Invuln-dt)
	}
	w.refreshAffinity()
	w.alliesAttack(nowTick, dt)
	w.stepProjectiles(nowTick, dt)
	w.enemiesAttack(nowTick, dt)
	w.stepDamageNumbers(dt)
}

func (w *World) enemyPos(h uint32) (mathx.Vec2, bool) {
	if int(h) >= len(w.enemies) {
		return mathx.Vec2{}, false
	}
	e := w.enemies[h]
	if !e.Alive {
		return mathx.Vec2{}, false
	}
	return e.Pos, true
}

func (w *World) allyPos(h uint32) (mathx.Vec2, bool) {
	if int(h) >= len(w.allies) {
		return mathx.Vec2{}, false
	}
	a := w.allies[h]
	if !a.Alive {
		return mathx.Vec2{}, false
	}
	return a.Pos, true
}

func (w *World) alliesAttack(nowTick uint64, dt float64) {
	for _, a := range w.allies {
		if !a.Alive {
			continue
		}
		reach := combat.RangeFor(a.Def.Type, a.Def.AttackRange)
		engage := math.Max(reach, AllyEngageRange)
		w.scratch = w.enemyGrid.AppendInRadius(w.scratch[:0], a.Pos, engage)
		h, d2, found := combat.Nearest(a.Pos, engage, w.scratch, w.enemyPos)
		ready := a.Cooldown.Tick(dt)
		if !found {
			a.Target = 0
			if ready {
				a.Cooldown.Elapsed = a.Cooldown.Interval
			}
			continue
		}
		target := w.enemies[h]
		if d2 > reach*reach {
			if chases(a.Def.Type) {
				a.Target = target.ID
				a.Pos = a.Pos.MoveToward(target.Pos, allySpeed(a)*dt)
			} else {
				a.Target = 0
			}
			if ready {
				a.Cooldown.Elapsed = a.Cooldown.Interval
			}
			continue
		}
		a.Target = target.ID
		if ready {
			w.allyAttack(nowTick, a, target)
		}
	}
}

func chases(kind string) bool { return kind == "melee" || kind == "assassin" }

// refreshAffinity sums the affinity of the living allies per color.
func (w *World) refreshAffinity() {
	w.affinity.Reset()
	for _, a := range w.allies {
		if a.Alive && a.Def.Affinity != 0 {
			w.affinity.Add(a.Def.Color, a.Def.Affinity)
		}
	}
}

// allyBonuses combines artifact and affinity bonuses for a. Colors with an
// affinity table gate mega and super crits behind its unlocks.
func (w *World) allyBonuses(a *Ally) (progression.StatBonuses, progression.AffinityBonus, bool) {
	art := w.artifacts.Total(a.Def.ID, a.Def.Color, a.Def.Type)
	table, gated := w.catalogs.Progression.Affinity[a.Def.Color]
	if !gated || len(table) == 0 {
		return art, progression.AffinityBonus{}, false
	}
	return art, progression.BonusFor(table, w.affinity[a.Def.Color]), true
}

func (w *World) critChances(a *Ally) [3]float64 {
	b := w.settings.CritBonus
	art, aff, gated := w.allyBonuses(a)
	out := [3]float64{
		a.Def.CritT1 + art.CritT1 + aff.CritT1 + b[1],
		a.Def.CritT2 + art.CritT2 + b[2],
		a.Def.CritT3 + art.CritT3 + b[3],
	}
	// A debug bonus bypasses the lock.
	if gated && !aff.CritT2Unlock && b[2] <= 0 {
		out[1] = 0
	}
	if gated && !aff.CritT3Unlock && b[3] <= 0 {
		out[2] = 0
	}
	return out
}

func (w *World) allyDamage(a *Ally) float64 {
	art, aff, _ := w.allyBonuses(a)
	return a.Damage * (1 + (art.Damage+aff.Damage)/100) * w.settings.AllyDamageMul
}

func (w *World) allyAttack(nowTick uint64, a *Ally, target *Enemy) {
	base := w.allyDamage(a)
	chances := w.critChances(a)
	if a.Def.Type != "ranged" {
		w.hitEnemy(nowTick, target, base, chances, a.ID)
		return
	}

	count := a.Def.ProjectileCount
	if count < 1 {
		count = 1
	}
	pen := a.Def.ProjectilePenetration
	if pen < 1 {
		pen = 1
	}
	dir := target.Pos.Sub(a.Pos)
	aim := math.Atan2(dir.Y, dir.X)
	for i := 0; i < count; i++ {
		h, ok := w.projectilePool.Acquire()
		if !ok {
			// No visual left; the shot still lands.
			w.cur.poolExhausted++
			w.hitEnemy(nowTick, target, base, chances, a.ID)
			continue
		}
		ang := aim + (float64(i)-float64(count-1)/2)*projectileSpread
		w.projectiles[h] = Projectile{
			Owner:       a.ID,
			Pos:         a.Pos,
			Vel:         mathx.FromAngle(ang, combat.ProjectileSpeed),
			Life:        combat.ProjectileLifetimeFor(pen),
			Damage:      base,
			Chances:     chances,
			Penetration: pen,
			Hits:        w.projectiles[h].Hits[:0],
		}
	}
}

func (w *World) stepProjectiles(nowTick uint64, dt float64) {
	r2 := combat.ProjectileHitRadius * combat.ProjectileHitRadius
	far2 := combat.ProjectileDespawnRange * combat.ProjectileDespawnRange
	w.projectilePool.ForEachActive(func(h pool.Handle) {
		p := &w.projectiles[h]
		if p.Done {
			return
		}
		p.Pos = p.Pos.Add(p.Vel.Scale(dt))
		p.Life -= dt
		if p.Life <= 0 || p.Pos.DistSq(w.player.Pos) > far2 {
			p.Done = true
			return
		}
		w.scratch = w.enemyGrid.AppendNearby(w.scratch[:0], p.Pos)
		for _, eh := range w.scratch {
			e := w.enemies[eh]
			if !e.Alive || e.Pos.DistSq(p.Pos) > r2 || p.alreadyHit(e.ID) {
				continue
			}
			w.hitEnemy(nowTick, e, p.Damage, p.Chances, p.Owner)
			p.Hits = append(p.Hits, e.ID)
			p.Penetration--
			if p.Penetration <= 0 {
				p.Done = true
				return
			}
		}
	})
}

// hitEnemy resolves one hit from attacker. The attacker is credited if the
// hit kills.
func (w *World) hitEnemy(nowTick uint64, e *Enemy, base float64, chances [3]float64, attacker ActorID) {
	if !e.Alive {
		return
	}
	res := crit.ResolveWith(w.rng, base, chances[0], chances[1], chances[2])
	dmg := res.FinalDamage
	e.HP -= dmg
	if e.HP <= 0 {
		e.Alive = false
		e.KilledBy = attacker
	}
	w.director.RecordDamage(dmg, w.simTime)
	w.stats.RecordHit(nowTick, res.Tier.Value(), dmg)
	w.cur.hits++
	w.cur.crits[res.Tier]++
	w.spawnDamageNumber(e.Pos, res)
}

func (w *World) spawnDamageNumber(pos mathx.Vec2, res crit.Result) {
	h, ok := w.damageNumberPool.Acquire()
	if !ok {
		w.cur.poolExhausted++
		return
	}
	w.damageNumbers[h] = DamageNumber{
		Pos:  pos,
		Text: combat.FormatDamage(res.FinalDamage),
		Tier: res.Tier,
	}
}

func (w *World) enemiesAttack(nowTick uint64, dt float64) {
	for _, e := range w.enemies {
		if !e.Alive || !e.Cooldown.Tick(dt) {
			continue
		}
		reach := e.Def.AttackRange
		if reach <= 0 {
			reach = combat.EnemyAttackRange
		}
		dmg := e.Damage * w.settings.EnemyDamageMul

		w.scratch = w.allyGrid.AppendInRadius(w.scratch[:0], e.Pos, reach)
		if h, _, ok := combat.Nearest(e.Pos, reach, w.scratch, w.allyPos); ok {
			a := w.allies[h]
			a.HP -= dmg
			if a.HP <= 0 {
				a.Alive = false
			}
			w.stats.RecordDamageTaken(nowTick, dmg)
			continue
		}

		if e.Pos.Dist(w.player.Pos) <= combat.EnemyContactRange {
			if w.player.Invuln <= 0 && !w.settings.GodMode {
				hit := dmg * combat.ContactDamageMul
				w.player.HP -= hit
				w.player.Invuln = combat.InvincibilitySecs
				w.stats.RecordDamageTaken(nowTick, hit)
			}
			continue
		}
		// Nothing in reach: stay ready for the next tick.
		e.Cooldown.Elapsed = e.Cooldown.Interval
	}
}

func (w *World) stepDamageNumbers(dt float64) {
	w.damageNumberPool.ForEachActive(func(h pool.Handle) {
		n := &w.damageNumbers[h]
		n.Age += dt
		n.Pos.Y -= combat.DamageNumberRise * dt
	})
}
