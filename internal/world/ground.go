package world

// GroundItem is an item or gold pile lying on the map. Not persisted,
// it exists only in memory.
type GroundItem struct {
	ItemID int32  // template ID, 0 for gold
	Name   string // display name
	Count  int
	Gold   int
	TTL    int // ticks remaining until auto-delete (0 = permanent)
}

// IsGold reports whether the pile is gold rather than an item.
func (g *GroundItem) IsGold() bool { return g.ItemID == 0 }

// MonsterInfo is the runtime record of a monster placed in the world.
type MonsterInfo struct {
	MonsterID int32 // template ID
	Name      string
	Level     int
	Tier      int
	Dead      bool
}
