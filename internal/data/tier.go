package data

import (
	"errors"
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrUnknownTier = errors.New("unknown item tier")

// Tier is an item rarity grade.
type Tier int

const (
	TierNormal Tier = iota
	TierMagic
	TierRare
	TierUnique
	TierLegendary
	tierCount
)

var tierNames = [...]string{"normal", "magic", "rare", "unique", "legendary"}

func (t Tier) String() string {
	if t >= 0 && t < tierCount {
		return tierNames[t]
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

func ParseTier(s string) (Tier, error) {
	for i, name := range tierNames {
		if name == s {
			return Tier(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTier, s)
}

func (t *Tier) UnmarshalYAML(n *yaml.Node) error {
	v, err := ParseTier(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*t = v
	return nil
}

// ItemTier describes how a tier scales a rolled item.
type ItemTier struct {
	Tier           Tier    `yaml:"tier"`
	Name           string  `yaml:"name"` // display prefix, empty for normal
	StatMultiplier float64 `yaml:"stat_multiplier"`
	OptionCount    int     `yaml:"option_count"`
}

type tierListFile struct {
	Tiers []ItemTier `yaml:"tiers"`
}

// TierTable maps every tier to its ItemTier definition.
type TierTable struct {
	tiers map[Tier]*ItemTier
}

func (t *TierTable) Get(tier Tier) (*ItemTier, error) {
	it, ok := t.tiers[tier]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTier, tier)
	}
	return it, nil
}

func (t *TierTable) Count() int {
	return len(t.tiers)
}

// LoadTierTable loads tier definitions. The normal tier is required since
// it backs the default roll.
func LoadTierTable(path string) (*TierTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tier_list: %w", err)
	}
	var f tierListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse tier_list: %w", err)
	}
	t := &TierTable{tiers: make(map[Tier]*ItemTier, len(f.Tiers))}
	for i := range f.Tiers {
		it := &f.Tiers[i]
		if it.StatMultiplier == 0 {
			it.StatMultiplier = 1
		}
		t.tiers[it.Tier] = it
	}
	if _, ok := t.tiers[TierNormal]; !ok {
		return nil, fmt.Errorf("tier_list: missing %s tier", TierNormal)
	}
	return t, nil
}

// TierRollRatio weights each tier for a random roll. Weights need not sum
// to anything in particular.
type TierRollRatio struct {
	Normal    float64 `yaml:"normal"`
	Magic     float64 `yaml:"magic"`
	Rare      float64 `yaml:"rare"`
	Unique    float64 `yaml:"unique"`
	Legendary float64 `yaml:"legendary"`
}

// DefaultTierRoll always rolls normal.
var DefaultTierRoll = TierRollRatio{Normal: 1}

func (r TierRollRatio) weights() [tierCount]float64 {
	return [tierCount]float64{r.Normal, r.Magic, r.Rare, r.Unique, r.Legendary}
}

// IsZero reports whether no tier has any weight.
func (r TierRollRatio) IsZero() bool {
	return r == TierRollRatio{}
}

// Roll picks a tier by weight. A ratio with no positive weight rolls normal.
func (r TierRollRatio) Roll(rng *rand.Rand) Tier {
	w := r.weights()
	total := 0.0
	for _, v := range w {
		if v > 0 {
			total += v
		}
	}
	if total <= 0 {
		return TierNormal
	}
	pick := rng.Float64() * total
	for i, v := range w {
		if v <= 0 {
			continue
		}
		if pick < v {
			return Tier(i)
		}
		pick -= v
	}
	// float rounding left pick at the very top; take the last weighted tier
	for i := len(w) - 1; i >= 0; i-- {
		if w[i] > 0 {
			return Tier(i)
		}
	}
	return TierNormal
}

// NewTierTable builds a table from tiers already in memory.
func NewTierTable(tiers ...ItemTier) *TierTable {
	t := &TierTable{tiers: make(map[Tier]*ItemTier, len(tiers))}
	for i := range tiers {
		it := tiers[i]
		if it.StatMultiplier == 0 {
			it.StatMultiplier = 1
		}
		t.tiers[it.Tier] = &it
	}
	return t
}
