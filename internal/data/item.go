package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ItemType selects how an item instance is built when it drops.
type ItemType int

const (
	ItemNormal ItemType = iota
	ItemEquip
	ItemMaterial
	ItemEnchant
	ItemGem
)

var itemTypeNames = [...]string{"normal", "equip", "material", "enchant", "gem"}

func (t ItemType) String() string {
	if t >= 0 && int(t) < len(itemTypeNames) {
		return itemTypeNames[t]
	}
	return fmt.Sprintf("item_type(%d)", int(t))
}

func (t *ItemType) UnmarshalYAML(n *yaml.Node) error {
	for i, name := range itemTypeNames {
		if name == n.Value {
			*t = ItemType(i)
			return nil
		}
	}
	return fmt.Errorf("line %d: unknown item type %q", n.Line, n.Value)
}

// BaseItemData is one item template from item_list.yaml.
type BaseItemData struct {
	ItemID       int32    `yaml:"item_id"`
	Name         string   `yaml:"name"`
	Type         ItemType `yaml:"type"`
	BaseStat     int      `yaml:"base_stat"`
	StatPerLevel int      `yaml:"stat_per_level"` // equip only
	MaxStack     int      `yaml:"max_stack"`
	Price        int      `yaml:"price"`
}

type itemListFile struct {
	Items []BaseItemData `yaml:"items"`
}

// ItemTable holds item templates indexed by ItemID.
type ItemTable struct {
	items map[int32]*BaseItemData
}

// Get returns the template for itemID, or nil.
func (t *ItemTable) Get(itemID int32) *BaseItemData {
	return t.items[itemID]
}

func (t *ItemTable) Count() int {
	return len(t.items)
}

// LoadItemTable loads item templates from a YAML file.
func LoadItemTable(path string) (*ItemTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read item_list: %w", err)
	}
	var f itemListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse item_list: %w", err)
	}
	t := &ItemTable{items: make(map[int32]*BaseItemData, len(f.Items))}
	for i := range f.Items {
		it := &f.Items[i]
		if _, dup := t.items[it.ItemID]; dup {
			return nil, fmt.Errorf("item_list: duplicate item_id %d", it.ItemID)
		}
		if it.MaxStack <= 0 {
			it.MaxStack = 1
		}
		t.items[it.ItemID] = it
	}
	return t, nil
}

// NewItemTable builds a table from templates already in memory.
func NewItemTable(items ...BaseItemData) *ItemTable {
	t := &ItemTable{items: make(map[int32]*BaseItemData, len(items))}
	for i := range items {
		it := items[i]
		if it.MaxStack <= 0 {
			it.MaxStack = 1
		}
		t.items[it.ItemID] = &it
	}
	return t
}
