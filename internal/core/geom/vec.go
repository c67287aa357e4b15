// Package geom holds the small amount of 2D math shared by gameplay code.
// World units are tiles; +X is east, +Y is south.
package geom

import "math"

type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(f float64) Vec2 { return Vec2{v.X * f, v.Y * f} }
func (v Vec2) Dot(o Vec2) float64   { return v.X*o.X + v.Y*o.Y }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Y) }
func (v Vec2) Dist(o Vec2) float64  { return v.Sub(o).Len() }
func (v Vec2) Cross(o Vec2) float64 { return v.X*o.Y - v.Y*o.X }
func (v Vec2) Tile() (x, y int)     { return int(math.Floor(v.X)), int(math.Floor(v.Y)) }
func (v Vec2) Right() Vec2          { return Vec2{-v.Y, v.X} }

// Normalize returns the unit vector, or the zero vector for zero input.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// FromYaw returns the unit facing vector for a yaw in degrees (0 = east, 90 = south).
func FromYaw(deg float64) Vec2 {
	r := deg * math.Pi / 180
	return Vec2{math.Cos(r), math.Sin(r)}
}

// Yaw returns the facing angle of v in degrees, in [0, 360).
func (v Vec2) Yaw() float64 {
	d := math.Atan2(v.Y, v.X) * 180 / math.Pi
	if d < 0 {
		d += 360
	}
	return d
}
