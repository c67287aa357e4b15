package event

import (
	"github.com/dgrg/dungeon/internal/core/ecs"
	"github.com/dgrg/dungeon/internal/core/geom"
)

// PlayerMoved is emitted by the player controller after a position change.
type PlayerMoved struct {
	Entity ecs.EntityID
	From   geom.Vec2
	To     geom.Vec2
}

// MonsterKilled triggers loot drops for the dead monster.
type MonsterKilled struct {
	Entity    ecs.EntityID
	MonsterID int32
	Level     int
	Position  geom.Vec2
}

// ItemDropped reports a drop placed on the ground.
type ItemDropped struct {
	Entity   ecs.EntityID
	ItemID   int32
	Name     string
	Gold     int
	Position geom.Vec2
}
