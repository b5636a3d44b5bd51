package render

// Projector places world positions on the screen grid relative to the
// player. Results are in tiles from the top-left visible cell.
type Projector struct {
	Columns, Rows int
	Player        Player
}

// Center is the screen cell the player stands on.
func (p Projector) Center() Point {
	return Point{X: float64(p.Columns-1) / 2, Y: float64(p.Rows-1) / 2}
}

func (p Projector) ProjectStatic(pos Position) Point {
	c := p.Center()
	off := p.Player.MoveOffset()
	me := p.Player.ProjectedPosition()
	q := pos.Projected()
	return Point{
		X: c.X + off.X + float64(q.X-me.X),
		Y: c.Y + off.Y + float64(q.Y-me.Y),
	}
}

// ProjectCreature follows the creature's own step progress and lifts it by
// the height of what it stands on.
func (p Projector) ProjectCreature(c Creature) Point {
	s := p.ProjectStatic(c.Position())
	off := c.MoveOffset()
	e := c.ElevationOffset()
	return Point{X: s.X - off.X - e, Y: s.Y - off.Y - e}
}
