package mathx

import "math"

// Vec2 is a world-space position or direction in simulation units.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func FromAngle(rad, length float64) Vec2 {
	return Vec2{X: math.Cos(rad) * length, Y: math.Sin(rad) * length}
}

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{X: v.X - o.X, Y: v.Y - o.Y} }
func (v Vec2) Scale(k float64) Vec2 { return Vec2{X: v.X * k, Y: v.Y * k} }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Y) }
func (v Vec2) Dist(o Vec2) float64  { return v.Sub(o).Len() }

func (v Vec2) DistSq(o Vec2) float64 {
	d := v.Sub(o)
	return d.X*d.X + d.Y*d.Y
}

// Normalize returns the unit vector, or the zero vector when v has no length.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{X: v.X / l, Y: v.Y / l}
}

// MoveToward steps from v toward target by at most step units.
func (v Vec2) MoveToward(target Vec2, step float64) Vec2 {
	d := target.Sub(v)
	l := d.Len()
	if l <= step || l == 0 {
		return target
	}
	return v.Add(d.Scale(step / l))
}
