package world

import (
	"math"
	"math/rand"

	"github.com/dgrg/dungeon/internal/core/geom"
	"github.com/dgrg/dungeon/internal/data"
)

const navAttempts = 16

// GridNav picks random walkable points on the tile map. It implements
// loot.NavQuerier.
type GridNav struct {
	m   *data.FogMap
	rng *rand.Rand
}

func NewGridNav(m *data.FogMap, rng *rand.Rand) *GridNav {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &GridNav{m: m, rng: rng}
}

// RandomPointInRadius samples uniformly inside the disc around origin and
// returns the first point on a walkable tile. Gives up after a fixed
// number of attempts.
func (n *GridNav) RandomPointInRadius(origin geom.Vec2, radius float64) (geom.Vec2, bool) {
	if radius <= 0 {
		x, y := origin.Tile()
		return origin, n.m.Walkable(x, y)
	}
	for i := 0; i < navAttempts; i++ {
		r := radius * math.Sqrt(n.rng.Float64())
		p := origin.Add(geom.FromYaw(n.rng.Float64() * 360).Scale(r))
		if x, y := p.Tile(); n.m.Walkable(x, y) {
			return p, true
		}
	}
	return geom.Vec2{}, false
}
