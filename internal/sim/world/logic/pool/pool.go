// Package pool recycles a fixed set of integer handles for short-lived actors.
package pool

// Handle indexes a caller-owned slot array of the pool's capacity.
type Handle uint32

// Pool hands out handles in LIFO order: the most recently released handle is
// reused first. Capacity is fixed at construction.
type Pool struct {
	kind      string
	available []Handle
	active    []bool
	nActive   int
}

func New(kind string, capacity int) *Pool {
	if capacity < 0 {
		capacity = 0
	}
	p := &Pool{
		kind:      kind,
		available: make([]Handle, 0, capacity),
		active:    make([]bool, capacity),
	}
	// Push in reverse so the first Acquire yields handle 0.
	for i := capacity - 1; i >= 0; i-- {
		p.available = append(p.available, Handle(i))
	}
	return p
}

func (p *Pool) Kind() string { return p.kind }

// Acquire pops the most recently released handle. It reports false when the
// pool is exhausted; the pool never grows.
func (p *Pool) Acquire() (Handle, bool) {
	n := len(p.available)
	if n == 0 {
		return 0, false
	}
	h := p.available[n-1]
	p.available = p.available[:n-1]
	p.active[h] = true
	p.nActive++
	return h, true
}

// Release returns h to the pool. Releasing a handle that is not active is a no-op.
func (p *Pool) Release(h Handle) bool {
	if !p.IsActive(h) {
		return false
	}
	p.active[h] = false
	p.nActive--
	p.available = append(p.available, h)
	return true
}

func (p *Pool) IsActive(h Handle) bool {
	return int(h) < len(p.active) && p.active[h]
}

// ForEachActive visits active handles in ascending order. fn may release the
// handle it is given.
func (p *Pool) ForEachActive(fn func(Handle)) {
	for i, on := range p.active {
		if on {
			fn(Handle(i))
		}
	}
}

func (p *Pool) HasAvailable() bool  { return len(p.available) > 0 }
func (p *Pool) AvailableCount() int { return len(p.available) }
func (p *Pool) ActiveCount() int    { return p.nActive }
func (p *Pool) Capacity() int       { return len(p.active) }

// Usage is a point-in-time view for telemetry.
type Usage struct {
	Kind      string `json:"kind"`
	Active    int    `json:"active"`
	Available int    `json:"available"`
	Capacity  int    `json:"capacity"`
}

func (p *Pool) Usage() Usage {
	return Usage{Kind: p.kind, Active: p.nActive, Available: len(p.available), Capacity: len(p.active)}
}
