package crit

import "testing"

type seqRoller struct {
	vals []float64
	i    int
}

func (s *seqRoller) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

func TestResolveNoChanceNeverCrits(t *testing.T) {
	r := &seqRoller{vals: []float64{0}}
	for i := 0; i < 100; i++ {
		res := ResolveWith(r, 42, 0, 0, 0)
		if res.Tier != TierNone || res.FinalDamage != 42 || res.IsCrit() {
			t.Fatalf("expected no crit, got %+v", res)
		}
	}
	for i := 0; i < 1000; i++ {
		res := Resolve(7, 0, 0, 0)
		if res.Tier != TierNone || res.FinalDamage != 7 {
			t.Fatalf("expected no crit, got %+v", res)
		}
	}
}

func TestResolveMegaGuaranteed(t *testing.T) {
	for i := 0; i < 1000; i++ {
		res := Resolve(50, 0, 100, 0)
		if res.Tier != TierMega || res.FinalDamage != 2500 {
			t.Fatalf("expected mega 2500, got %+v", res)
		}
	}
}

func TestResolveSuperGuaranteedAndCapped(t *testing.T) {
	res := Resolve(10, 0, 0, 100)
	if res.Tier != TierSuper || res.FinalDamage != 10000 {
		t.Fatalf("expected super 10000, got %+v", res)
	}
	res = Resolve(100000, 0, 0, 100)
	if res.Tier != TierSuper || res.FinalDamage != MaxDamage {
		t.Fatalf("expected capped super, got %+v", res)
	}
	if res.BaseDamage != 100000 {
		t.Fatalf("base damage not preserved: %+v", res)
	}
}

func TestResolveOverflowGuaranteedDouble(t *testing.T) {
	for i := 0; i < 1000; i++ {
		res := Resolve(25, 200, 0, 0)
		if res.Tier != TierNormal || res.FinalDamage != 100 {
			t.Fatalf("expected 100 from guaranteed overflow, got %+v", res)
		}
	}
}

func TestResolveOverflowRoll(t *testing.T) {
	// t1=150: overflow succeeds only when the fourth draw lands under 50.
	hit := ResolveWith(&seqRoller{vals: []float64{0.1, 0.99, 0.99, 0.3}}, 10, 150, 0, 0)
	if hit.Tier != TierNormal || hit.FinalDamage != 40 {
		t.Fatalf("expected overflow x4, got %+v", hit)
	}
	miss := ResolveWith(&seqRoller{vals: []float64{0.1, 0.99, 0.99, 0.6}}, 10, 150, 0, 0)
	if miss.Tier != TierNormal || miss.FinalDamage != 20 {
		t.Fatalf("expected plain x2, got %+v", miss)
	}
}

func TestResolveNoOverflowDrawBelowHundred(t *testing.T) {
	r := &seqRoller{vals: []float64{0.1, 0.99, 0.99, 0.0}}
	res := ResolveWith(r, 10, 99, 0, 0)
	if res.FinalDamage != 20 {
		t.Fatalf("expected x2, got %+v", res)
	}
	if r.i != 3 {
		t.Fatalf("expected exactly three draws, got %d", r.i)
	}
}

func TestResolveHigherTierWins(t *testing.T) {
	r := &seqRoller{vals: []float64{0, 0, 0}}
	res := ResolveWith(r, 3, 100, 100, 100)
	if res.Tier != TierSuper || res.FinalDamage != 81 {
		t.Fatalf("expected super to dominate, got %+v", res)
	}
	r = &seqRoller{vals: []float64{0, 0, 0.5}}
	res = ResolveWith(r, 3, 100, 100, 10)
	if res.Tier != TierMega || res.FinalDamage != 9 {
		t.Fatalf("expected mega to dominate normal, got %+v", res)
	}
}

func TestResolveNegativeChance(t *testing.T) {
	r := &seqRoller{vals: []float64{0}}
	res := ResolveWith(r, 5, -10, -10, -10)
	if res.IsCrit() {
		t.Fatalf("negative chance should not crit: %+v", res)
	}
}

func TestResolveCritRate(t *testing.T) {
	const trials = 10000
	crits := 0
	for i := 0; i < trials; i++ {
		if Resolve(1, 50, 0, 0).IsCrit() {
			crits++
		}
	}
	rate := float64(crits) / trials
	if rate < 0.40 || rate > 0.60 {
		t.Fatalf("crit rate out of range: %v", rate)
	}
}

func TestTierOrdering(t *testing.T) {
	if !(TierNone.Value() < TierNormal.Value() && TierNormal.Value() < TierMega.Value() && TierMega.Value() < TierSuper.Value()) {
		t.Fatalf("tier values not ordered")
	}
	if TierSuper.String() != "SUPER" || TierNone.String() != "NONE" {
		t.Fatalf("unexpected names: %s %s", TierSuper, TierNone)
	}
}
