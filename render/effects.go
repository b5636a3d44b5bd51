package render

import "time"

// DistanceEffect travels between two tiles, like a missile.
type DistanceEffect struct {
	From, To Position
	Sprite   Sprited
	Start    time.Time
	Duration time.Duration

	expired bool
}

// Fraction is the travelled share of the path in [0, 1].
func (e *DistanceEffect) Fraction(now time.Time) float64 {
	if e.Duration <= 0 {
		return 1
	}
	f := float64(now.Sub(e.Start)) / float64(e.Duration)
	return min(max(f, 0), 1)
}

// Expire ends the effect before it arrives.
func (e *DistanceEffect) Expire() { e.expired = true }

func (e *DistanceEffect) Expired(now time.Time) bool {
	return e.expired || e.Fraction(now) >= 1
}

func lerp(a, b Point, f float64) Point {
	return Point{X: a.X + (b.X-a.X)*f, Y: a.Y + (b.Y-a.Y)*f}
}
