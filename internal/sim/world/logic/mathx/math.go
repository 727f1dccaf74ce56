package mathx

import "math"

func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func Clamp01(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return Clamp(x, 0, 1)
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Hash2 mixes a seed with two integer coordinates into a well-distributed roll.
func Hash2(seed int64, a, b int) uint64 {
	ua := uint64(uint32(int32(a)))
	ub := uint64(uint32(int32(b)))
	v := uint64(seed) ^ (ua * 0x9e3779b97f4a7c15) ^ (ub * 0xbf58476d1ce4e5b9)
	return mix64(v)
}
