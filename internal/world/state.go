// Package world holds the in-memory dungeon: the ECS entity pool with its
// component stores, the spatial grid used for traces and the tile map.
// Single-goroutine access only (game loop).
package world

import (
	"github.com/dgrg/dungeon/internal/core/ecs"
	"github.com/dgrg/dungeon/internal/core/event"
	"github.com/dgrg/dungeon/internal/core/geom"
	"github.com/dgrg/dungeon/internal/data"
	"github.com/dgrg/dungeon/internal/interact"
)

type State struct {
	ECS *ecs.World
	Map *data.FogMap

	Positions     *ecs.Store[geom.Vec2]
	Monsters      *ecs.Store[MonsterInfo]
	Interactables *ecs.Store[interact.Interactable]
	GroundItems   *ecs.Store[GroundItem]

	aoi    *AOIGrid
	aoiBuf []ecs.EntityID
}

func NewState(m *data.FogMap) *State {
	s := &State{
		ECS:           ecs.NewWorld(),
		Map:           m,
		Positions:     ecs.NewStore[geom.Vec2](),
		Monsters:      ecs.NewStore[MonsterInfo](),
		Interactables: ecs.NewStore[interact.Interactable](),
		GroundItems:   ecs.NewStore[GroundItem](),
		aoi:           NewAOIGrid(),
	}
	s.ECS.Register(s.Positions)
	s.ECS.Register(s.Monsters)
	s.ECS.Register(s.Interactables)
	s.ECS.Register(s.GroundItems)
	return s
}

// Walkable implements player.Terrain.
func (s *State) Walkable(x, y int) bool { return s.Map.Walkable(x, y) }

// Place creates an entity at pos with no other components.
func (s *State) Place(pos geom.Vec2) ecs.EntityID {
	id := s.ECS.CreateEntity()
	s.Positions.Set(id, &pos)
	x, y := pos.Tile()
	s.aoi.Add(id, x, y)
	return id
}

// Position implements player.Locator.
func (s *State) Position(id ecs.EntityID) (geom.Vec2, bool) {
	p, ok := s.Positions.Get(id)
	if !ok {
		return geom.Vec2{}, false
	}
	return *p, true
}

// SetPosition moves an entity, keeping the spatial grid in step.
func (s *State) SetPosition(id ecs.EntityID, pos geom.Vec2) {
	p, ok := s.Positions.Get(id)
	if !ok {
		return
	}
	ox, oy := p.Tile()
	nx, ny := pos.Tile()
	s.aoi.Move(id, ox, oy, nx, ny)
	*p = pos
}

// FollowMoves keeps moved players' positions and grid cells in step with
// PlayerMoved events from bus.
func (s *State) FollowMoves(bus *event.Bus) {
	event.Subscribe(bus, func(ev event.PlayerMoved) {
		s.SetPosition(ev.Entity, ev.To)
	})
}

// Remove queues id for destruction and drops it from the spatial grid now
// so traces stop seeing it this tick.
func (s *State) Remove(id ecs.EntityID) {
	if p, ok := s.Positions.Get(id); ok {
		x, y := p.Tile()
		s.aoi.Remove(id, x, y)
	}
	s.ECS.MarkForDestruction(id)
}

// --- Monsters ---

// SpawnMonster places a monster built from tmpl at pos.
func (s *State) SpawnMonster(tmpl *data.MonsterData, level int, pos geom.Vec2) ecs.EntityID {
	id := s.Place(pos)
	s.Monsters.Set(id, &MonsterInfo{
		MonsterID: tmpl.MonsterID,
		Name:      tmpl.Name,
		Level:     level,
		Tier:      tmpl.Tier,
	})
	return id
}

// MonsterCount returns the number of live monsters.
func (s *State) MonsterCount() int {
	n := 0
	s.Monsters.Each(func(_ ecs.EntityID, m *MonsterInfo) {
		if !m.Dead {
			n++
		}
	})
	return n
}

// --- Interactables ---

// AddInteractable places an unlocked interactable at pos.
func (s *State) AddInteractable(pos geom.Vec2) (ecs.EntityID, *interact.Interactable) {
	id := s.Place(pos)
	it := interact.New(id)
	s.Interactables.Set(id, it)
	return id, it
}

// --- Ground items ---

// AddGroundItem places a pile at pos.
func (s *State) AddGroundItem(g GroundItem, pos geom.Vec2) ecs.EntityID {
	id := s.Place(pos)
	s.GroundItems.Set(id, &g)
	return id
}

// TickGroundItems decrements TTL on ground items and removes expired ones.
func (s *State) TickGroundItems() []ecs.EntityID {
	var expired []ecs.EntityID
	s.GroundItems.Each(func(id ecs.EntityID, g *GroundItem) {
		if g.TTL > 0 {
			g.TTL--
			if g.TTL <= 0 {
				expired = append(expired, id)
			}
		}
	})
	for _, id := range expired {
		s.Remove(id)
	}
	return expired
}

// nearby returns entities in the cells around pos. The slice is reused
// between calls.
func (s *State) nearby(pos geom.Vec2) []ecs.EntityID {
	x, y := pos.Tile()
	s.aoiBuf = s.aoi.GetNearby(x, y, s.aoiBuf[:0])
	return s.aoiBuf
}
