package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/dgrg/dungeon/internal/config"
	"github.com/dgrg/dungeon/internal/core/ecs"
	"github.com/dgrg/dungeon/internal/core/event"
	"github.com/dgrg/dungeon/internal/core/geom"
	coresys "github.com/dgrg/dungeon/internal/core/system"
	"github.com/dgrg/dungeon/internal/data"
	"github.com/dgrg/dungeon/internal/fog"
	"github.com/dgrg/dungeon/internal/loot"
	"github.com/dgrg/dungeon/internal/persist"
	"github.com/dgrg/dungeon/internal/player"
	"github.com/dgrg/dungeon/internal/scripting"
	"github.com/dgrg/dungeon/internal/system"
	"github.com/dgrg/dungeon/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              DGRG  v0.1.0                 \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m       dungeon fog · loot · headless        \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s\n\n", serverName)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main loop ─────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("DGRG_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	// 3. Static data
	printSection("data")
	itemTable, err := data.LoadItemTable(cfg.Data.ItemList)
	if err != nil {
		return fmt.Errorf("load item table: %w", err)
	}
	printStat("item templates", itemTable.Count())

	tierTable, err := data.LoadTierTable(cfg.Data.TierList)
	if err != nil {
		return fmt.Errorf("load tier table: %w", err)
	}
	printStat("item tiers", tierTable.Count())

	monsterTable, err := data.LoadMonsterTable(cfg.Data.MonsterList, itemTable)
	if err != nil {
		return fmt.Errorf("load monster table: %w", err)
	}
	printStat("monster templates", monsterTable.Count())

	fogMap, err := data.LoadFogMap(cfg.Fog.MapFile)
	if err != nil {
		return fmt.Errorf("load fog map: %w", err)
	}
	printStat("map tiles", fogMap.Width()*fogMap.Height())

	luaEngine, err := scripting.NewEngine(cfg.Scripting.Dir, rng, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK("lua scripts loaded")
	fmt.Println()

	// 4. Optional PostgreSQL
	var (
		recorder     system.DropRecorder
		lootRepo     *persist.LootRepo
		explorations *persist.ExplorationRepo
	)
	fogMgr := fog.NewManager(fogMap, cfg.Fog, log)
	if cfg.Database.Enabled {
		printSection("database")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("postgres connected")

		version, err := persist.RunMigrations(ctx, db.Pool, log)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printStat("schema version", int(version))

		lootRepo = persist.NewLootRepo(db)
		recorder = lootRepo
		explorations = persist.NewExplorationRepo(db)
		mask, found, err := explorations.Load(ctx, cfg.Fog.MapID, fogMap.Width(), fogMap.Height())
		if err != nil {
			log.Warn("saved exploration ignored", zap.Error(err))
		} else if found {
			if err := fogMgr.SeedExplored(mask); err != nil {
				return fmt.Errorf("seed exploration: %w", err)
			}
			printStat("explored tiles restored", countTrue(mask))
		}
		fmt.Println()
	}

	// 5. World, player and loot
	printSection("world")
	bus := event.NewBus()
	ws := world.NewState(fogMap)
	ws.FollowMoves(bus)
	nav := world.NewGridNav(fogMap, rng)
	lootMgr, err := loot.NewManager(itemTable, tierTable, luaEngine, nav,
		world.NewSpawner(ws, bus, cfg.Loot.GroundTTL), cfg.Loot, rng, log)
	if err != nil {
		return fmt.Errorf("loot manager: %w", err)
	}

	start, ok := findStart(fogMap)
	if !ok {
		return fmt.Errorf("fog map %s has no walkable tile", cfg.Fog.MapFile)
	}
	pc := player.NewController(ws.Place(start), start, cfg.Player, ws, bus, log)
	pc.OnKilled.Add(func() { log.Warn("player died") })

	printStat("monsters", spawnMonsters(ws, monsterTable, nav, start, rng))
	printStat("chests", spawnChests(ws, nav, start, 4, log))
	fmt.Println()

	// 6. Systems
	sink := &logSink{log: log.Named("fog_sink")}
	fogSys := system.NewFogSystem(bus, fogMgr, sink, log)
	lootSys := system.NewLootSystem(bus, ws, monsterTable, lootMgr, recorder, cfg.Fog.MapID, log)

	runner := coresys.NewRunner()
	runner.Register(newAutopilot(pc, ws, rng))
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(system.NewInteractionSystem(pc, ws, bus, log))
	runner.Register(lootSys)
	runner.Register(fogSys)
	var persistSys *system.PersistenceSystem
	if explorations != nil {
		persistSys = system.NewPersistenceSystem(fogMgr, explorations, cfg.Fog.MapID,
			fogMap.Width(), fogMap.Height(), log, cfg.Fog.PersistInterval)
		runner.Register(persistSys)
	}
	runner.Register(system.NewCleanupSystem(ws, log))

	if err := fogMgr.Start(); err != nil {
		return fmt.Errorf("fog: %w", err)
	}
	defer fogMgr.Close()
	tx, ty := start.Tile()
	fogSys.Track(pc.Entity, tx, ty)

	// 7. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Server.TickRate)
	defer ticker.Stop()

	printSection("ready")
	printReady(fmt.Sprintf("game loop running (tick: %s)", cfg.Server.TickRate))
	printReady(fmt.Sprintf("fog worker idle wait %s", cfg.Fog.IdleWait))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Server.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			fogMgr.Close()
			if persistSys != nil {
				if err := persistSys.SaveNow(); err != nil {
					log.Error("final exploration save failed", zap.Error(err))
				}
			}
			printSummary(fogMgr, fogSys, lootSys)
			if lootRepo != nil {
				printGoldTotals(lootRepo, monsterTable, log)
			}
			log.Info("server stopped")
			return nil
		}
	}
}

func printSummary(fogMgr *fog.Manager, fogSys *system.FogSystem, lootSys *system.LootSystem) {
	fmt.Println()
	printSection("summary")
	printStat("explored tiles", countTrue(fogMgr.Explored()))
	if w := fogMgr.Worker(); w != nil {
		st := w.Stats()
		printStat("fog frames", int(st.Updates))
		printStat("fog failures", int(st.Failures))
	}
	up, skipped := fogSys.Uploads()
	printStat("texture uploads", up)
	printStat("unchanged frames skipped", skipped)
	printStat("drops", lootSys.Dropped())
}

// printGoldTotals prints the lifetime gold recorded per monster template.
func printGoldTotals(repo *persist.LootRepo, monsters *data.MonsterTable, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var templates []*data.MonsterData
	monsters.Each(func(m *data.MonsterData) { templates = append(templates, m) })
	sort.Slice(templates, func(i, j int) bool { return templates[i].MonsterID < templates[j].MonsterID })
	for _, m := range templates {
		total, err := repo.GoldTotal(ctx, m.MonsterID)
		if err != nil {
			log.Warn("gold total query failed", zap.Int32("monster_id", m.MonsterID), zap.Error(err))
			return
		}
		printStat("gold from "+m.Name, int(total))
	}
}

// findStart returns the walkable tile closest to the map centre.
func findStart(m *data.FogMap) (geom.Vec2, bool) {
	cx, cy := m.Width()/2, m.Height()/2
	best, bestD := geom.Vec2{}, -1
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			if !m.Walkable(x, y) {
				continue
			}
			d := (x-cx)*(x-cx) + (y-cy)*(y-cy)
			if bestD < 0 || d < bestD {
				best, bestD = geom.Vec2{X: float64(x) + 0.5, Y: float64(y) + 0.5}, d
			}
		}
	}
	return best, bestD >= 0
}

// spawnMonsters places two of every monster template around the map.
func spawnMonsters(ws *world.State, monsters *data.MonsterTable, nav *world.GridNav, start geom.Vec2, rng *rand.Rand) int {
	radius := float64(ws.Map.Width()+ws.Map.Height()) / 2
	n := 0
	monsters.Each(func(tmpl *data.MonsterData) {
		for i := 0; i < 2; i++ {
			pos, ok := nav.RandomPointInRadius(start, radius)
			if !ok || pos.Dist(start) < 2 {
				continue
			}
			ws.SpawnMonster(tmpl, 1+rng.Intn(10), pos)
			n++
		}
	})
	return n
}

// spawnChests places chests that lock once opened.
func spawnChests(ws *world.State, nav *world.GridNav, start geom.Vec2, count int, log *zap.Logger) int {
	radius := float64(ws.Map.Width()+ws.Map.Height()) / 2
	n := 0
	for i := 0; i < count; i++ {
		pos, ok := nav.RandomPointInRadius(start, radius)
		if !ok {
			continue
		}
		id, chest := ws.AddInteractable(pos)
		chest.OnInteract.Add(func(by ecs.EntityID) {
			log.Info("chest opened", zap.Stringer("chest", id), zap.Stringer("by", by))
			chest.SetLock()
		})
		chest.OnCantInteract.Add(func(ecs.EntityID) {
			log.Debug("chest already open", zap.Stringer("chest", id))
		})
		n++
	}
	return n
}

func countTrue(mask []bool) int {
	n := 0
	for _, v := range mask {
		if v {
			n++
		}
	}
	return n
}

// logSink stands in for a renderer and logs each uploaded fog texture.
type logSink struct {
	log *zap.Logger
}

func (s *logSink) UploadTexture(t *fog.Texture) {
	s.log.Debug("fog texture",
		zap.Uint64("seq", t.Seq),
		zap.Uint64("revision", t.Revision),
		zap.Binary("digest", t.Digest[:8]))
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
