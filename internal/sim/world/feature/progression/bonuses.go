package progression

import (
	"sort"

	"hordesim.ai/internal/sim/catalogs"
)

// StatBonuses are percentage (damage, attack speed, hp) and flat crit
// chance additions.
type StatBonuses struct {
	Damage      float64 `json:"damage,omitempty"`
	AttackSpeed float64 `json:"attack_speed,omitempty"`
	HP          float64 `json:"hp,omitempty"`
	CritT1      float64 `json:"crit_t1,omitempty"`
	CritT2      float64 `json:"crit_t2,omitempty"`
	CritT3      float64 `json:"crit_t3,omitempty"`
}

func (b *StatBonuses) Add(o StatBonuses) {
	b.Damage += o.Damage
	b.AttackSpeed += o.AttackSpeed
	b.HP += o.HP
	b.CritT1 += o.CritT1
	b.CritT2 += o.CritT2
	b.CritT3 += o.CritT3
}

func bonusesOf(a catalogs.ArtifactDef) StatBonuses {
	return StatBonuses{
		Damage:      a.DamageBonus,
		AttackSpeed: a.AttackSpeedBonus,
		HP:          a.HPBonus,
		CritT1:      a.CritT1Bonus,
		CritT2:      a.CritT2Bonus,
		CritT3:      a.CritT3Bonus,
	}
}

// Artifacts accumulates acquired artifact bonuses per target scope.
type Artifacts struct {
	Global     StatBonuses
	ByColor    map[string]StatBonuses
	ByType     map[string]StatBonuses
	ByCreature map[string]StatBonuses
	Acquired   []string
}

func (a *Artifacts) Reset() {
	*a = Artifacts{}
}

func addTo(m *map[string]StatBonuses, k string, b StatBonuses) {
	if *m == nil {
		*m = map[string]StatBonuses{}
	}
	cur := (*m)[k]
	cur.Add(b)
	(*m)[k] = cur
}

func (a *Artifacts) Apply(def catalogs.ArtifactDef) {
	b := bonusesOf(def)
	switch def.TargetScope {
	case "color":
		addTo(&a.ByColor, def.TargetColor, b)
	case "type":
		addTo(&a.ByType, def.TargetType, b)
	case "creature":
		addTo(&a.ByCreature, def.TargetCreature, b)
	default:
		a.Global.Add(b)
	}
	a.Acquired = append(a.Acquired, def.ID)
}

// Total sums every bucket that matches the creature.
func (a *Artifacts) Total(creatureID, color, kind string) StatBonuses {
	t := a.Global
	if b, ok := a.ByColor[color]; ok {
		t.Add(b)
	}
	if b, ok := a.ByType[kind]; ok {
		t.Add(b)
	}
	if b, ok := a.ByCreature[creatureID]; ok {
		t.Add(b)
	}
	return t
}

// Affinity is the summed affinity of the living allies, per color.
type Affinity map[string]float64

func (a Affinity) Reset() { clear(a) }

func (a Affinity) Add(color string, amount float64) { a[color] += amount }

// AffinityBonus is the highest threshold a color has reached.
type AffinityBonus struct {
	StatBonuses
	CritT2Unlock bool
	CritT3Unlock bool
}

// BonusFor picks the highest threshold whose Min is met. Thresholds must be
// ascending by Min.
func BonusFor(thresholds []catalogs.AffinityThreshold, amount float64) AffinityBonus {
	i := sort.Search(len(thresholds), func(i int) bool { return thresholds[i].Min > amount }) - 1
	if i < 0 {
		return AffinityBonus{}
	}
	th := thresholds[i]
	return AffinityBonus{
		StatBonuses:  StatBonuses{Damage: th.DamageBonus, CritT1: th.CritT1Bonus},
		CritT2Unlock: th.CritT2Unlock,
		CritT3Unlock: th.CritT3Unlock,
	}
}
