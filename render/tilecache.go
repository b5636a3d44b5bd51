package render

// MaxFloors bounds the floors walked per frame and the distance effect
// layers.
const MaxFloors = 8

// TileCache holds the visible tile lists between invalidations, which the
// world triggers on movement, teleport or login.
type TileCache struct {
	src    TileProvider
	floors [][]Tile
	valid  bool
}

func NewTileCache(src TileProvider) *TileCache {
	return &TileCache{src: src}
}

func (c *TileCache) Invalidate() { c.valid = false }

// Floors returns the cached tiles, refreshing them if invalidated.
func (c *TileCache) Floors() [][]Tile {
	if !c.valid {
		c.floors = c.src.VisibleTiles()
		if len(c.floors) > MaxFloors {
			c.floors = c.floors[:MaxFloors]
		}
		c.valid = true
	}
	return c.floors
}
