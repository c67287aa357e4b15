package world

import (
	"github.com/dgrg/dungeon/internal/core/ecs"
	"github.com/dgrg/dungeon/internal/core/geom"
	"github.com/dgrg/dungeon/internal/interact"
)

const (
	objectRadius = 0.5  // interactables occupy one tile
	traceStep    = 0.05 // sampling step when walking a segment through the map
)

// TraceInteractable implements player.Tracer. It returns the interactable
// closest to from whose tile the segment passes through, stopping at walls.
// Segments are assumed no longer than one AOI cell.
func (s *State) TraceInteractable(from, to geom.Vec2, ignore ecs.EntityID) (*interact.Interactable, bool) {
	limit := s.sightLimit(from, to)
	var (
		best   *interact.Interactable
		bestT  = limit
		bestID ecs.EntityID
	)
	for _, id := range s.nearby(from) {
		if id == ignore {
			continue
		}
		it, ok := s.Interactables.Get(id)
		if !ok {
			continue
		}
		p, _ := s.Positions.Get(id)
		t, d := segmentParam(*p, from, to)
		if d > objectRadius || t > bestT {
			continue
		}
		if t == bestT && best != nil && id > bestID {
			continue
		}
		best, bestT, bestID = it, t, id
	}
	return best, best != nil
}

// TraceMonster implements player.Tracer with a box swept from start to end.
// Dead monsters are skipped.
func (s *State) TraceMonster(start, end geom.Vec2, halfWidth float64, ignore ecs.EntityID) (ecs.EntityID, bool) {
	var (
		best  ecs.EntityID
		bestT = 2.0
	)
	for _, id := range s.nearby(start) {
		if id == ignore {
			continue
		}
		m, ok := s.Monsters.Get(id)
		if !ok || m.Dead {
			continue
		}
		p, _ := s.Positions.Get(id)
		t, d := segmentParam(*p, start, end)
		if d > halfWidth || t > bestT {
			continue
		}
		if t == bestT && !best.IsZero() && id > best {
			continue
		}
		best, bestT = id, t
	}
	return best, !best.IsZero()
}

// sightLimit walks from → to and returns the segment parameter of the
// first tile that blocks sight, or 1 when the segment is clear.
func (s *State) sightLimit(from, to geom.Vec2) float64 {
	dist := from.Dist(to)
	if dist == 0 {
		return 1
	}
	for t := traceStep / dist; t < 1; t += traceStep / dist {
		x, y := from.Add(to.Sub(from).Scale(t)).Tile()
		if s.Map.BlocksSight(x, y) {
			return t
		}
	}
	return 1
}

// segmentParam projects p onto segment a→b. It returns the clamped
// parameter in [0, 1] and the distance from p to that point.
func segmentParam(p, a, b geom.Vec2) (t, dist float64) {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return 0, p.Dist(a)
	}
	t = p.Sub(a).Dot(ab) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return t, p.Dist(a.Add(ab.Scale(t)))
}
