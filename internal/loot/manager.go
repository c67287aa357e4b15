package loot

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/dgrg/dungeon/internal/config"
	"github.com/dgrg/dungeon/internal/core/ecs"
	"github.com/dgrg/dungeon/internal/core/geom"
	"github.com/dgrg/dungeon/internal/data"
	"github.com/dgrg/dungeon/internal/scripting"
	"go.uber.org/zap"
)

var (
	ErrUnknownItem = errors.New("loot: unknown item")
	ErrNoNavPoint  = errors.New("loot: no reachable drop point")
)

// NavQuerier finds a reachable point near origin.
type NavQuerier interface {
	RandomPointInRadius(origin geom.Vec2, radius float64) (geom.Vec2, bool)
}

// Spawner places dropped items and gold in the world. origin is where the
// drop starts, dest where it lands.
type Spawner interface {
	SpawnItem(item Item, origin, dest geom.Vec2) ecs.EntityID
	SpawnGold(amount int, origin, dest geom.Vec2) ecs.EntityID
}

// Formulas is the scripted side of item rolls.
type Formulas interface {
	RollItemOptions(ctx scripting.OptionContext) []scripting.ItemOption
	CalcGoldAmount(level, dropGold int, goldRate float64) int
	CalcItemStat(base, perLevel, level int, multiplier float64) int
}

// Monster is a killed monster as seen by the loot roll.
type Monster struct {
	Data     *data.MonsterData
	Level    int
	Tier     int // gold pile cap; the template tier when zero
	Position geom.Vec2
}

// Drop is one thing placed on the ground.
type Drop struct {
	Entity   ecs.EntityID
	Item     Item // nil for gold
	Gold     int
	Position geom.Vec2
}

// DropReport summarizes one monster's loot.
type DropReport struct {
	MonsterID int32
	Drops     []Drop
	Skipped   int // rolls that succeeded but found no drop point
}

// Manager creates item instances and rolls monster loot. It keeps the
// "current" tier roll and item level that item creation reads, so it is
// game-loop only.
type Manager struct {
	items    *data.ItemTable
	tiers    *data.TierTable
	formulas Formulas
	nav      NavQuerier
	spawn    Spawner
	cfg      config.LootConfig
	rng      *rand.Rand
	names    *namer
	log      *zap.Logger

	defaultRoll  data.TierRollRatio
	currentRoll  data.TierRollRatio
	currentTier  *data.ItemTier
	currentLevel int
}

func NewManager(items *data.ItemTable, tiers *data.TierTable, formulas Formulas, nav NavQuerier, spawn Spawner,
	cfg config.LootConfig, rng *rand.Rand, log *zap.Logger) (*Manager, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	m := &Manager{
		items:       items,
		tiers:       tiers,
		formulas:    formulas,
		nav:         nav,
		spawn:       spawn,
		cfg:         cfg,
		rng:         rng,
		names:       newNamer(),
		log:         log.With(zap.String("component", "loot")),
		defaultRoll: data.DefaultTierRoll,
	}
	m.currentRoll = m.defaultRoll
	if err := m.SetCurrentItemTier(data.TierNormal); err != nil {
		return nil, err
	}
	m.SetCurrentItemLevel(cfg.DefaultItemLevel)
	return m, nil
}

// ItemDropRoll reports whether a drop entry succeeds: a uniform roll in
// [0, 1) must not exceed chance × drop rate.
func (m *Manager) ItemDropRoll(d data.DropItemData) bool {
	chance := d.Chance * m.rate()
	if chance <= 0 {
		return false
	}
	return m.rng.Float64() <= chance
}

func (m *Manager) rate() float64 {
	if m.cfg.DropRate <= 0 {
		return 1
	}
	return m.cfg.DropRate
}

func (m *Manager) SetCurrentItemLevel(level int) {
	if level < 1 {
		level = 1
	}
	m.currentLevel = level
}

func (m *Manager) CurrentItemLevel() int { return m.currentLevel }

func (m *Manager) SetItemTierRoll(r data.TierRollRatio) {
	if r.IsZero() {
		r = m.defaultRoll
	}
	m.currentRoll = r
}

// ResetItemTierRoll restores the default (always normal) roll.
func (m *Manager) ResetItemTierRoll() {
	m.currentRoll = m.defaultRoll
}

func (m *Manager) CurrentItemTierRoll() data.TierRollRatio { return m.currentRoll }

func (m *Manager) SetCurrentItemTier(t data.Tier) error {
	it, err := m.tiers.Get(t)
	if err != nil {
		return err
	}
	m.currentTier = it
	return nil
}

func (m *Manager) CurrentItemTier() *data.ItemTier { return m.currentTier }

// RollItemTier makes r the current roll, rolls a tier from it and makes
// that the current tier. Tiers missing from the table fall back to normal.
func (m *Manager) RollItemTier(r data.TierRollRatio) *data.ItemTier {
	m.SetItemTierRoll(r)
	rolled := m.currentRoll.Roll(m.rng)
	if err := m.SetCurrentItemTier(rolled); err != nil {
		m.log.Warn("rolled tier not in tier table", zap.Stringer("tier", rolled), zap.Error(err))
		_ = m.SetCurrentItemTier(data.TierNormal)
	}
	return m.currentTier
}

// CreateItemInstance builds an item for base according to its type.
func (m *Manager) CreateItemInstance(base *data.BaseItemData) (Item, error) {
	if base == nil {
		return nil, fmt.Errorf("%w: nil template", ErrUnknownItem)
	}
	switch base.Type {
	case data.ItemNormal, data.ItemEnchant, data.ItemGem:
		return m.createNormal(base), nil
	case data.ItemEquip:
		return m.createEquip(base), nil
	case data.ItemMaterial:
		return m.createMaterial(base), nil
	}
	return nil, fmt.Errorf("%w: item %d has type %s", ErrUnknownItem, base.ItemID, base.Type)
}

// CreateItemByID looks up itemID and builds an instance of it.
func (m *Manager) CreateItemByID(itemID int32) (Item, error) {
	base := m.items.Get(itemID)
	if base == nil {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownItem, itemID)
	}
	return m.CreateItemInstance(base)
}

func (m *Manager) createNormal(base *data.BaseItemData) *StoredItem {
	return &StoredItem{Data: base, Count: 1, name: m.names.name(base, nil)}
}

func (m *Manager) createMaterial(base *data.BaseItemData) *MaterialItem {
	return &MaterialItem{StoredItem: StoredItem{Data: base, Count: 1, name: m.names.name(base, nil)}}
}

func (m *Manager) createEquip(base *data.BaseItemData) *EquipItem {
	tier := m.RollItemTier(m.currentRoll)
	level := m.currentLevel
	return &EquipItem{
		StoredItem: StoredItem{Data: base, Count: 1, name: m.names.name(base, tier)},
		Tier:       tier,
		Level:      level,
		Stat:       m.formulas.CalcItemStat(base.BaseStat, base.StatPerLevel, level, tier.StatMultiplier),
		Options: m.formulas.RollItemOptions(scripting.OptionContext{
			ItemID:      base.ItemID,
			ItemLevel:   level,
			Tier:        tier.Tier.String(),
			OptionCount: tier.OptionCount,
		}),
	}
}

// SpawnDropItemFromMonster rolls gold and items for a killed monster using
// its tier roll and level, then restores the defaults.
func (m *Manager) SpawnDropItemFromMonster(mon Monster) DropReport {
	report := DropReport{}
	if mon.Data == nil {
		m.log.Warn("loot roll for monster without template")
		return report
	}
	report.MonsterID = mon.Data.MonsterID

	m.SetItemTierRoll(mon.Data.TierRoll)
	m.SetCurrentItemLevel(mon.Level)
	defer func() {
		m.SetCurrentItemLevel(m.cfg.DefaultItemLevel)
		m.ResetItemTierRoll()
	}()

	m.dropGold(mon, &report)
	m.dropItems(mon, &report)

	m.log.Debug("monster loot rolled",
		zap.Int32("monster_id", report.MonsterID),
		zap.Int("drops", len(report.Drops)),
		zap.Int("skipped", report.Skipped))
	return report
}

func (m *Manager) dropRadius(mon Monster) float64 {
	if mon.Data.DropRadius > 0 {
		return mon.Data.DropRadius
	}
	return m.cfg.DropRadius
}

// dropGold drops a random number of piles in [0, tier].
func (m *Manager) dropGold(mon Monster, report *DropReport) {
	tier := mon.Tier
	if tier <= 0 {
		tier = mon.Data.Tier
	}
	if tier <= 0 || mon.Data.DropGold <= 0 {
		return
	}
	piles := m.rng.Intn(tier + 1)
	amount := m.formulas.CalcGoldAmount(mon.Level, mon.Data.DropGold, m.cfg.GoldRate)
	if amount <= 0 {
		return
	}
	for i := 0; i < piles; i++ {
		d, err := m.CreateAndDropGoldInRandomGround(mon.Position, m.dropRadius(mon), amount)
		if err != nil {
			report.Skipped++
			continue
		}
		report.Drops = append(report.Drops, d)
	}
}

// dropItems walks the drop list in order and stops at the first failed roll.
func (m *Manager) dropItems(mon Monster, report *DropReport) {
	for _, entry := range mon.Data.Drops {
		if !m.ItemDropRoll(entry) {
			return
		}
		item, err := m.CreateItemByID(entry.ItemID)
		if err != nil {
			m.log.Error("drop references bad item", zap.Int32("item_id", entry.ItemID), zap.Error(err))
			continue
		}
		d, err := m.CreateAndDropItemInRandomGround(mon.Position, m.dropRadius(mon), item)
		if err != nil {
			report.Skipped++
			continue
		}
		report.Drops = append(report.Drops, d)
	}
}

// CreateAndDropItemInRandomGround spawns item at origin and lands it on a
// random reachable point within radius.
func (m *Manager) CreateAndDropItemInRandomGround(origin geom.Vec2, radius float64, item Item) (Drop, error) {
	dest, ok := m.nav.RandomPointInRadius(origin, radius)
	if !ok {
		m.log.Debug("no drop point for item", zap.String("item", item.DisplayName()))
		return Drop{}, ErrNoNavPoint
	}
	id := m.spawn.SpawnItem(item, origin, dest)
	return Drop{Entity: id, Item: item, Position: dest}, nil
}

// CreateAndDropGoldInRandomGround is the gold counterpart of
// CreateAndDropItemInRandomGround.
func (m *Manager) CreateAndDropGoldInRandomGround(origin geom.Vec2, radius float64, amount int) (Drop, error) {
	dest, ok := m.nav.RandomPointInRadius(origin, radius)
	if !ok {
		m.log.Debug("no drop point for gold", zap.Int("amount", amount))
		return Drop{}, ErrNoNavPoint
	}
	id := m.spawn.SpawnGold(amount, origin, dest)
	return Drop{Entity: id, Gold: amount, Position: dest}, nil
}
