package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DropItemData is one possible drop. Chance is a probability in [0, 1].
type DropItemData struct {
	ItemID int32   `yaml:"item_id"`
	Chance float64 `yaml:"chance"`
}

// MonsterData is one monster template from monster_list.yaml.
type MonsterData struct {
	MonsterID  int32          `yaml:"monster_id"`
	Name       string         `yaml:"name"`
	Tier       int            `yaml:"tier"`      // max gold piles per kill
	DropGold   int            `yaml:"drop_gold"` // gold per pile per level
	DropRadius float64        `yaml:"drop_radius"`
	TierRoll   TierRollRatio  `yaml:"tier_roll"`
	Drops      []DropItemData `yaml:"drops"`
}

type monsterListFile struct {
	Monsters []MonsterData `yaml:"monsters"`
}

// MonsterTable holds monster templates indexed by MonsterID.
type MonsterTable struct {
	monsters map[int32]*MonsterData
}

func (t *MonsterTable) Get(id int32) *MonsterData {
	return t.monsters[id]
}

func (t *MonsterTable) Count() int {
	return len(t.monsters)
}

// Each calls fn for every monster template.
func (t *MonsterTable) Each(fn func(*MonsterData)) {
	for _, m := range t.monsters {
		fn(m)
	}
}

// LoadMonsterTable loads monster templates and checks every drop against items.
func LoadMonsterTable(path string, items *ItemTable) (*MonsterTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read monster_list: %w", err)
	}
	var f monsterListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse monster_list: %w", err)
	}
	t := &MonsterTable{monsters: make(map[int32]*MonsterData, len(f.Monsters))}
	for i := range f.Monsters {
		m := &f.Monsters[i]
		if m.TierRoll.IsZero() {
			m.TierRoll = DefaultTierRoll
		}
		for _, d := range m.Drops {
			if d.Chance < 0 || d.Chance > 1 {
				return nil, fmt.Errorf("monster_list: monster %d drop %d chance %v outside [0,1]", m.MonsterID, d.ItemID, d.Chance)
			}
			if items != nil && items.Get(d.ItemID) == nil {
				return nil, fmt.Errorf("monster_list: monster %d drops unknown item %d", m.MonsterID, d.ItemID)
			}
		}
		t.monsters[m.MonsterID] = m
	}
	return t, nil
}

// NewMonsterTable builds a table from templates already in memory.
func NewMonsterTable(monsters ...MonsterData) *MonsterTable {
	t := &MonsterTable{monsters: make(map[int32]*MonsterData, len(monsters))}
	for i := range monsters {
		m := monsters[i]
		if m.TierRoll.IsZero() {
			m.TierRoll = DefaultTierRoll
		}
		t.monsters[m.MonsterID] = &m
	}
	return t
}
