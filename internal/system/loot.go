package system

import (
	"context"
	"time"

	"github.com/dgrg/dungeon/internal/core/event"
	coresys "github.com/dgrg/dungeon/internal/core/system"
	"github.com/dgrg/dungeon/internal/data"
	"github.com/dgrg/dungeon/internal/loot"
	"github.com/dgrg/dungeon/internal/persist"
	"github.com/dgrg/dungeon/internal/world"
	"go.uber.org/zap"
)

// DropRecorder stores what a kill dropped. *persist.LootRepo implements it.
type DropRecorder interface {
	RecordDrops(ctx context.Context, mapID, monsterID int32, drops []persist.DropRow) error
}

// LootSystem rolls loot for killed monsters. Kills arrive on the bus and
// are rolled on the next Update. Phase 2 (Update).
type LootSystem struct {
	world    *world.State
	monsters *data.MonsterTable
	loot     *loot.Manager
	recorder DropRecorder
	mapID    int32
	log      *zap.Logger

	queue []event.MonsterKilled
	total int
}

// NewLootSystem subscribes to MonsterKilled on bus. recorder may be nil.
func NewLootSystem(bus *event.Bus, ws *world.State, monsters *data.MonsterTable, lm *loot.Manager,
	recorder DropRecorder, mapID int32, log *zap.Logger) *LootSystem {
	s := &LootSystem{
		world:    ws,
		monsters: monsters,
		loot:     lm,
		recorder: recorder,
		mapID:    mapID,
		log:      log,
	}
	event.Subscribe(bus, func(ev event.MonsterKilled) {
		s.queue = append(s.queue, ev)
	})
	return s
}

func (s *LootSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *LootSystem) Update(_ time.Duration) {
	for _, ev := range s.queue {
		s.roll(ev)
	}
	s.queue = s.queue[:0]
}

// Dropped returns the number of drops placed since start.
func (s *LootSystem) Dropped() int { return s.total }

func (s *LootSystem) roll(ev event.MonsterKilled) {
	tmpl := s.monsters.Get(ev.MonsterID)
	if tmpl == nil {
		s.log.Warn("killed monster has no template", zap.Int32("monster_id", ev.MonsterID))
		return
	}
	mon := loot.Monster{Data: tmpl, Level: ev.Level, Position: ev.Position}
	if info, ok := s.world.Monsters.Get(ev.Entity); ok {
		info.Dead = true
		mon.Tier = info.Tier
		s.world.Remove(ev.Entity)
	}

	report := s.loot.SpawnDropItemFromMonster(mon)
	s.total += len(report.Drops)
	if report.Skipped > 0 {
		s.log.Info("drops skipped, no reachable ground",
			zap.Int32("monster_id", ev.MonsterID), zap.Int("skipped", report.Skipped))
	}
	if s.recorder == nil || len(report.Drops) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.recorder.RecordDrops(ctx, s.mapID, tmpl.MonsterID, dropRows(report.Drops)); err != nil {
		s.log.Error("record drops failed", zap.Int32("monster_id", tmpl.MonsterID), zap.Error(err))
	}
}

func dropRows(drops []loot.Drop) []persist.DropRow {
	rows := make([]persist.DropRow, 0, len(drops))
	for _, d := range drops {
		row := persist.DropRow{Gold: d.Gold, X: d.Position.X, Y: d.Position.Y}
		if d.Item != nil {
			row.ItemID = d.Item.Base().ItemID
			row.ItemName = d.Item.DisplayName()
			if eq, ok := d.Item.(*loot.EquipItem); ok {
				row.Tier = eq.Tier.Tier.String()
				row.ItemLevel = eq.Level
			}
		}
		rows = append(rows, row)
	}
	return rows
}
