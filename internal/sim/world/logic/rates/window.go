package rates

// Sample is one timestamped amount recorded into a Window.
type Sample struct {
	Amount float64
	At     float64
}

// Window keeps samples in insertion order. Callers push samples with
// non-decreasing timestamps, so eviction only ever trims the front.
type Window struct {
	samples []Sample
	sum     float64
}

func (w *Window) Push(amount, at float64) {
	w.samples = append(w.samples, Sample{Amount: amount, At: at})
	w.sum += amount
}

// Evict drops every leading sample with now-At >= span.
func (w *Window) Evict(now, span float64) {
	i := 0
	for i < len(w.samples) && now-w.samples[i].At >= span {
		i++
	}
	if i == 0 {
		return
	}
	n := copy(w.samples, w.samples[i:])
	w.samples = w.samples[:n]

	w.sum = 0
	for _, s := range w.samples {
		w.sum += s.Amount
	}
}

func (w *Window) Sum() float64 { return w.sum }
func (w *Window) Len() int     { return len(w.samples) }

func (w *Window) Reset() {
	w.samples = w.samples[:0]
	w.sum = 0
}

// Allow is a fixed-window counter: it reports whether one more event fits in
// the window that started at startTick.
func Allow(nowTick uint64, startTick uint64, count int, window uint64, max int) (newStart uint64, newCount int, ok bool, cooldownTicks uint64) {
	newStart = startTick
	newCount = count
	if window == 0 || max <= 0 {
		return newStart, newCount, true, 0
	}

	if nowTick-newStart >= window {
		newStart = nowTick
		newCount = 0
	}
	newCount++
	if newCount <= max {
		return newStart, newCount, true, 0
	}
	return newStart, newCount, false, (newStart + window) - nowTick
}
