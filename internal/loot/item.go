package loot

import (
	"strings"

	"github.com/dgrg/dungeon/internal/data"
	"github.com/dgrg/dungeon/internal/scripting"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Item is a rolled item instance. Each item type has its own implementation.
type Item interface {
	Base() *data.BaseItemData
	Kind() data.ItemType
	DisplayName() string
}

// StoredItem is a plain stackable item (normal, enchant and gem types).
type StoredItem struct {
	Data  *data.BaseItemData
	Count int
	name  string
}

func (it *StoredItem) Base() *data.BaseItemData { return it.Data }
func (it *StoredItem) Kind() data.ItemType      { return it.Data.Type }
func (it *StoredItem) DisplayName() string      { return it.name }

// EquipItem carries a rolled tier, stat and random options.
type EquipItem struct {
	StoredItem
	Tier    *data.ItemTier
	Level   int
	Stat    int
	Options []scripting.ItemOption
}

// MaterialItem is a crafting material.
type MaterialItem struct {
	StoredItem
}

// namer builds display names like "Rare Iron Sword".
type namer struct {
	title cases.Caser
}

func newNamer() *namer {
	return &namer{title: cases.Title(language.English)}
}

func (n *namer) name(base *data.BaseItemData, tier *data.ItemTier) string {
	parts := make([]string, 0, 2)
	if tier != nil && tier.Name != "" {
		parts = append(parts, tier.Name)
	}
	parts = append(parts, base.Name)
	return n.title.String(strings.Join(parts, " "))
}
