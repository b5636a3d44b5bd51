// Package render turns the visible world into a bounded list of textured
// draw primitives, grouped by texture.
package render

import (
	"tilecore/gfx"
	"tilecore/spr"
)

// Position is a world tile coordinate. Z is the floor.
type Position struct {
	X, Y, Z int
}

// Projected shifts x and y by the floor offset so floors stack diagonally.
func (p Position) Projected() Position {
	d := p.Z % 8
	return Position{X: p.X - d, Y: p.Y - d, Z: p.Z}
}

func (p Position) North() Position { return Position{p.X, p.Y - 1, p.Z} }
func (p Position) South() Position { return Position{p.X, p.Y + 1, p.Z} }
func (p Position) East() Position  { return Position{p.X + 1, p.Y, p.Z} }
func (p Position) West() Position  { return Position{p.X - 1, p.Y, p.Z} }

// Point is a screen position in tile units.
type Point struct {
	X, Y float64
}

type Direction uint8

const (
	North Direction = iota
	East
	South
	West
	NorthEast
	SouthEast
	SouthWest
	NorthWest
)

// Sprited is anything drawn from a grid of sprite cells. Cells extend up and
// left from the anchor tile.
type Sprited interface {
	Dimensions() (w, h, layers int)
	// SpriteID returns the sprite for a cell of the current frame, 0 for
	// none.
	SpriteID(layer, x, y int) uint32
}

type Item interface {
	Sprited
	// OnTop items are drawn after creatures.
	OnTop() bool
	// Elevation in pixels raises the items stacked above.
	Elevation() int
}

type Effect interface {
	Sprited
	Expired() bool
}

type Creature interface {
	Sprited
	Position() Position
	PreviousPosition() Position
	Direction() Direction
	Moving() bool
	Teleported() bool
	// MoveOffset is the sub-tile progress of the current step.
	MoveOffset() Point
	// ElevationOffset is the height of the items below, in tiles.
	ElevationOffset() float64
	EffectsBelow() []Effect
	EffectsAbove() []Effect
}

// Outfitted creatures draw through a mask recolored with their outfit.
type Outfitted interface {
	OutfitMask(layer, x, y int) uint32
	Outfit() spr.Outfit
}

type Tile interface {
	Sprited
	Position() Position
	Items() []Item
	Creatures() []Creature
	Effects() []Effect
}

type Player interface {
	ProjectedPosition() Position
	MoveOffset() Point
	// Depth is the floor the player stands on.
	Depth() int
}

// TileProvider lists visible tiles per floor, bottom floor first.
type TileProvider interface {
	VisibleTiles() [][]Tile
}

// SpriteSource resolves sprite ids to textures, nil when unavailable.
type SpriteSource interface {
	Get(id uint32) gfx.Texture
}

// OutfitSource composes recolored creature sprites.
type OutfitSource interface {
	GetOutfit(base, mask uint32, o spr.Outfit) gfx.Texture
}

// Hover reports the tile under the pointer.
type Hover interface {
	HoveredTile() (Position, bool)
}
