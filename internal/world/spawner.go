package world

import (
	"github.com/dgrg/dungeon/internal/core/ecs"
	"github.com/dgrg/dungeon/internal/core/event"
	"github.com/dgrg/dungeon/internal/core/geom"
	"github.com/dgrg/dungeon/internal/loot"
)

// Spawner turns loot drops into ground items and announces them on the
// bus. It implements loot.Spawner.
type Spawner struct {
	state *State
	bus   *event.Bus
	ttl   int
}

// NewSpawner creates a spawner whose piles expire after ttl ticks (0 keeps
// them forever). bus may be nil.
func NewSpawner(state *State, bus *event.Bus, ttl int) *Spawner {
	return &Spawner{state: state, bus: bus, ttl: ttl}
}

func (s *Spawner) SpawnItem(item loot.Item, origin, dest geom.Vec2) ecs.EntityID {
	base := item.Base()
	count := 1
	if st, ok := item.(*loot.StoredItem); ok && st.Count > 0 {
		count = st.Count
	}
	id := s.state.AddGroundItem(GroundItem{
		ItemID: base.ItemID,
		Name:   item.DisplayName(),
		Count:  count,
		TTL:    s.ttl,
	}, dest)
	if s.bus != nil {
		event.Emit(s.bus, event.ItemDropped{Entity: id, ItemID: base.ItemID, Name: item.DisplayName(), Position: dest})
	}
	return id
}

func (s *Spawner) SpawnGold(amount int, origin, dest geom.Vec2) ecs.EntityID {
	id := s.state.AddGroundItem(GroundItem{Name: "Gold", Count: 1, Gold: amount, TTL: s.ttl}, dest)
	if s.bus != nil {
		event.Emit(s.bus, event.ItemDropped{Entity: id, Name: "Gold", Gold: amount, Position: dest})
	}
	return id
}
