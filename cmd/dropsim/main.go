// dropsim rolls monster loot offline and writes per-monster drop rates to a
// YAML report, for tuning monster_list.yaml and the loot scripts.
//
// Usage:
//
//	go run ./cmd/dropsim <kills> <output.yaml> [level]
//
// The config path is read from DGRG_CONFIG (default config/server.toml).
package main

import (
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strconv"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dgrg/dungeon/internal/config"
	"github.com/dgrg/dungeon/internal/core/ecs"
	"github.com/dgrg/dungeon/internal/core/geom"
	"github.com/dgrg/dungeon/internal/data"
	"github.com/dgrg/dungeon/internal/loot"
	"github.com/dgrg/dungeon/internal/scripting"
)

type itemRate struct {
	ItemID int32   `yaml:"item_id"`
	Name   string  `yaml:"name"`
	Count  int     `yaml:"count"`
	Rate   float64 `yaml:"rate"`
}

type monsterReport struct {
	MonsterID   int32          `yaml:"monster_id"`
	Name        string         `yaml:"name"`
	Kills       int            `yaml:"kills"`
	GoldPerKill float64        `yaml:"gold_per_kill"`
	Skipped     int            `yaml:"skipped,omitempty"`
	Items       []itemRate     `yaml:"items"`
	Tiers       map[string]int `yaml:"tiers,omitempty"`
}

// anywhere lands every drop on its origin; terrain plays no part in rates.
type anywhere struct{}

func (anywhere) RandomPointInRadius(origin geom.Vec2, _ float64) (geom.Vec2, bool) {
	return origin, true
}

// tally counts what the loot manager spawns.
type tally struct {
	next  uint32
	gold  int
	items map[int32]*itemRate
	tiers map[string]int
}

func (t *tally) reset() {
	t.gold = 0
	t.items = make(map[int32]*itemRate)
	t.tiers = make(map[string]int)
}

func (t *tally) id() ecs.EntityID {
	t.next++
	return ecs.NewEntityID(t.next, 0)
}

func (t *tally) SpawnItem(item loot.Item, _, _ geom.Vec2) ecs.EntityID {
	base := item.Base()
	r, ok := t.items[base.ItemID]
	if !ok {
		r = &itemRate{ItemID: base.ItemID, Name: base.Name}
		t.items[base.ItemID] = r
	}
	r.Count++
	if eq, ok := item.(*loot.EquipItem); ok && eq.Tier != nil {
		t.tiers[eq.Tier.Tier.String()]++
	}
	return t.id()
}

func (t *tally) SpawnGold(amount int, _, _ geom.Vec2) ecs.EntityID {
	t.gold += amount
	return t.id()
}

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Usage: dropsim <kills> <output.yaml> [level]")
		os.Exit(1)
	}
	kills, err := strconv.Atoi(os.Args[1])
	if err != nil || kills <= 0 {
		fmt.Fprintf(os.Stderr, "bad kill count %q\n", os.Args[1])
		os.Exit(1)
	}
	level := 1
	if len(os.Args) > 3 {
		if level, err = strconv.Atoi(os.Args[3]); err != nil || level <= 0 {
			fmt.Fprintf(os.Stderr, "bad level %q\n", os.Args[3])
			os.Exit(1)
		}
	}

	reports, err := simulate(kills, level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	out, err := os.Create(os.Args[2])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer out.Close()

	fmt.Fprintf(out, "# Drop rates: %d kills per monster at level %d\n", kills, level)
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(map[string][]monsterReport{"monsters": reports}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	enc.Close()

	fmt.Printf("Wrote drop rates for %d monsters to %s\n", len(reports), os.Args[2])
}

func simulate(kills, level int) ([]monsterReport, error) {
	cfgPath := "config/server.toml"
	if p := os.Getenv("DGRG_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	log, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	defer log.Sync()

	items, err := data.LoadItemTable(cfg.Data.ItemList)
	if err != nil {
		return nil, fmt.Errorf("load item table: %w", err)
	}
	tiers, err := data.LoadTierTable(cfg.Data.TierList)
	if err != nil {
		return nil, fmt.Errorf("load tier table: %w", err)
	}
	monsters, err := data.LoadMonsterTable(cfg.Data.MonsterList, items)
	if err != nil {
		return nil, fmt.Errorf("load monster table: %w", err)
	}

	rng := rand.New(rand.NewSource(1))
	lua, err := scripting.NewEngine(cfg.Scripting.Dir, rng, log)
	if err != nil {
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	defer lua.Close()

	t := &tally{}
	mgr, err := loot.NewManager(items, tiers, lua, anywhere{}, t, cfg.Loot, rng, log)
	if err != nil {
		return nil, err
	}

	var templates []*data.MonsterData
	monsters.Each(func(m *data.MonsterData) { templates = append(templates, m) })
	sort.Slice(templates, func(i, j int) bool { return templates[i].MonsterID < templates[j].MonsterID })

	reports := make([]monsterReport, 0, len(templates))
	for _, tmpl := range templates {
		t.reset()
		r := monsterReport{MonsterID: tmpl.MonsterID, Name: tmpl.Name, Kills: kills}
		for i := 0; i < kills; i++ {
			rep := mgr.SpawnDropItemFromMonster(loot.Monster{Data: tmpl, Level: level})
			r.Skipped += rep.Skipped
		}
		r.GoldPerKill = float64(t.gold) / float64(kills)
		for _, it := range t.items {
			it.Rate = float64(it.Count) / float64(kills)
			r.Items = append(r.Items, *it)
		}
		sort.Slice(r.Items, func(i, j int) bool { return r.Items[i].ItemID < r.Items[j].ItemID })
		if len(t.tiers) > 0 {
			r.Tiers = t.tiers
		}
		reports = append(reports, r)
	}
	return reports, nil
}
