package world

import (
	"hordesim.ai/internal/sim/world/feature/combat"
	"hordesim.ai/internal/sim/world/logic/mathx"
)

const (
	// AllyRingRadius is how far idle allies sit from the player.
	AllyRingRadius  = 70.0
	// AllyEngageRange bounds how far an ally will look for a target.
	AllyEngageRange = 320.0

	enemyStopRange    = combat.EnemyContactRange * 0.8
	defaultAllySpeed  = 200.0
	defaultEnemySpeed = 80.0
)

// systemMovement runs before the spatial rebuild so the grids see this
// tick's positions.
func (w *World) systemMovement(dt float64) {
	if r := w.cfg.PlayerOrbitRadius; r > 0 {
		w.player.Angle += w.cfg.PlayerSpeed / r * dt
		w.player.Pos = mathx.FromAngle(w.player.Angle, r)
	}

	for _, e := range w.enemies {
		if !e.Alive {
			continue
		}
		speed := e.Def.MovementSpeed
		if speed <= 0 {
			speed = defaultEnemySpeed
		}
		d := e.Pos.Dist(w.player.Pos)
		if d <= enemyStopRange {
			continue
		}
		step := speed * dt
		if step > d-enemyStopRange {
			step = d - enemyStopRange
		}
		e.Pos = e.Pos.MoveToward(w.player.Pos, step)
	}

	// Allies without a target return to their ring slot; chasing happens in
	// combat once targets are known.
	for _, a := range w.allies {
		if !a.Alive || a.Target != 0 {
			continue
		}
		slot := w.player.Pos.Add(mathx.FromAngle(a.Slot, AllyRingRadius))
		a.Pos = a.Pos.MoveToward(slot, allySpeed(a)*dt)
	}
}

func allySpeed(a *Ally) float64 {
	if a.Def.MovementSpeed > 0 {
		return a.Def.MovementSpeed
	}
	return defaultAllySpeed
}

// rebuildSpatial is phase 3. Grid handles are indices into w.enemies and
// w.allies, valid until cleanup compacts those slices.
func (w *World) rebuildSpatial() {
	w.enemyGrid.Clear()
	for i, e := range w.enemies {
		if e.Alive {
			w.enemyGrid.Insert(uint32(i), e.Pos)
		}
	}
	w.allyGrid.Clear()
	for i, a := range w.allies {
		if a.Alive {
			w.allyGrid.Insert(uint32(i), a.Pos)
		}
	}
}
