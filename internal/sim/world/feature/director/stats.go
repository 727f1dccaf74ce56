package director

// StatsBucket accumulates combat counters over BucketTicks ticks.
type StatsBucket struct {
	Spawned     int     `json:"spawned"`
	Kills       int     `json:"kills"`
	AllyDeaths  int     `json:"ally_deaths"`
	Crits       [4]int  `json:"crits"`
	DamageDealt float64 `json:"damage_dealt"`
	DamageTaken float64 `json:"damage_taken"`
}

// RunStats is a ring of buckets covering the most recent WindowTicksV ticks.
type RunStats struct {
	BucketTicks  uint64
	WindowTicksV uint64

	Buckets []StatsBucket
	CurIdx  int
	CurBase uint64 // start tick (inclusive) of current bucket
}

func NewRunStats(bucketTicks, windowTicks uint64) *RunStats {
	if bucketTicks == 0 {
		bucketTicks = 30
	}
	if windowTicks < bucketTicks {
		windowTicks = bucketTicks
	}
	n := int(windowTicks / bucketTicks)
	if n < 1 {
		n = 1
	}
	return &RunStats{
		BucketTicks:  bucketTicks,
		WindowTicksV: uint64(n) * bucketTicks,
		Buckets:      make([]StatsBucket, n),
	}
}

func (s *RunStats) rotate(nowTick uint64) {
	// A jump longer than the window clears every bucket; skip the per-bucket walk.
	if nowTick >= s.CurBase+s.WindowTicksV+s.BucketTicks {
		for i := range s.Buckets {
			s.Buckets[i] = StatsBucket{}
		}
		s.CurBase = nowTick - nowTick%s.BucketTicks
		return
	}
	for nowTick >= s.CurBase+s.BucketTicks {
		s.CurIdx = (s.CurIdx + 1) % len(s.Buckets)
		s.Buckets[s.CurIdx] = StatsBucket{}
		s.CurBase += s.BucketTicks
	}
}

func (s *RunStats) cur(nowTick uint64) *StatsBucket {
	s.rotate(nowTick)
	return &s.Buckets[s.CurIdx]
}

func (s *RunStats) RecordSpawn(nowTick uint64, n int) {
	if s == nil {
		return
	}
	s.cur(nowTick).Spawned += n
}

func (s *RunStats) RecordKill(nowTick uint64) {
	if s == nil {
		return
	}
	s.cur(nowTick).Kills++
}

func (s *RunStats) RecordAllyDeath(nowTick uint64) {
	if s == nil {
		return
	}
	s.cur(nowTick).AllyDeaths++
}

func (s *RunStats) RecordHit(nowTick uint64, tier int, damage float64) {
	if s == nil {
		return
	}
	b := s.cur(nowTick)
	if tier >= 0 && tier < len(b.Crits) {
		b.Crits[tier]++
	}
	b.DamageDealt += damage
}

func (s *RunStats) RecordDamageTaken(nowTick uint64, damage float64) {
	if s == nil {
		return
	}
	s.cur(nowTick).DamageTaken += damage
}

func (s *RunStats) WindowTicks() uint64 {
	if s == nil {
		return 0
	}
	return s.WindowTicksV
}

func (s *RunStats) Summarize(nowTick uint64) StatsBucket {
	if s == nil {
		return StatsBucket{}
	}
	s.rotate(nowTick)
	var out StatsBucket
	for _, b := range s.Buckets {
		out.Spawned += b.Spawned
		out.Kills += b.Kills
		out.AllyDeaths += b.AllyDeaths
		for i := range out.Crits {
			out.Crits[i] += b.Crits[i]
		}
		out.DamageDealt += b.DamageDealt
		out.DamageTaken += b.DamageTaken
	}
	return out
}

func (s *RunStats) Reset() {
	if s == nil {
		return
	}
	for i := range s.Buckets {
		s.Buckets[i] = StatsBucket{}
	}
	s.CurIdx = 0
	s.CurBase = 0
}
