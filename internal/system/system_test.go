package system

import (
	"context"
	"math/rand"
	"strings"
	"testing"
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
	"github.com/dgrg/dungeon/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

const room = `##########
#........#
#........#
#........#
#........#
##########`

func testMap(t *testing.T, src string) *data.FogMap {
	t.Helper()
	m, err := data.ParseFogMap(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func tick(bus *event.Bus) {
	bus.SwapBuffers()
	bus.DispatchAll()
}

type flatFormulas struct{}

func (flatFormulas) RollItemOptions(scripting.OptionContext) []scripting.ItemOption { return nil }
func (flatFormulas) CalcGoldAmount(level, dropGold int, _ float64) int              { return level * dropGold }
func (flatFormulas) CalcItemStat(base, _, _ int, _ float64) int                     { return base }

type recordedKill struct {
	mapID, monsterID int32
	rows             []persist.DropRow
}

type fakeRecorder struct {
	kills []recordedKill
}

func (r *fakeRecorder) RecordDrops(_ context.Context, mapID, monsterID int32, drops []persist.DropRow) error {
	r.kills = append(r.kills, recordedKill{mapID, monsterID, drops})
	return nil
}

var wolfTmpl = data.MonsterData{
	MonsterID: 100,
	Name:      "wolf",
	Tier:      1,
	DropGold:  5,
	Drops:     []data.DropItemData{{ItemID: 1, Chance: 1}},
}

type lootFixture struct {
	bus      *event.Bus
	world    *world.State
	recorder *fakeRecorder
	loot     *LootSystem
}

func newLootFixture(t *testing.T) *lootFixture {
	t.Helper()
	bus := event.NewBus()
	ws := world.NewState(testMap(t, room))
	items := data.NewItemTable(data.BaseItemData{ItemID: 1, Name: "iron sword", Type: data.ItemEquip, BaseStat: 7})
	tiers := data.NewTierTable(data.ItemTier{Tier: data.TierNormal, Name: "Normal"})
	rng := rand.New(rand.NewSource(3))
	lm, err := loot.NewManager(items, tiers, flatFormulas{}, world.NewGridNav(ws.Map, rng),
		world.NewSpawner(ws, bus, 0), config.Defaults().Loot, rng, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	rec := &fakeRecorder{}
	ls := NewLootSystem(bus, ws, data.NewMonsterTable(wolfTmpl), lm, rec, 7, zaptest.NewLogger(t))
	return &lootFixture{bus: bus, world: ws, recorder: rec, loot: ls}
}

func TestEventDispatchSystem(t *testing.T) {
	bus := event.NewBus()
	got := 0
	event.Subscribe(bus, func(event.PlayerMoved) { got++ })
	s := NewEventDispatchSystem(bus)
	if s.Phase() != coresys.PhasePreUpdate {
		t.Fatalf("phase = %s", s.Phase())
	}
	event.Emit(bus, event.PlayerMoved{})
	s.Update(0)
	if got != 1 {
		t.Fatalf("delivered %d events, want 1", got)
	}
}

type sinkRecorder struct {
	frames []*fog.Texture
}

func (s *sinkRecorder) UploadTexture(t *fog.Texture) { s.frames = append(s.frames, t) }

func TestFogSystemTracksMovesAndSkipsUnchangedFrames(t *testing.T) {
	cell := testMap(t, "###\n#.#\n###")
	cfg := config.Defaults().Fog
	cfg.IdleWait = 2 * time.Millisecond
	mgr := fog.NewManager(cell, cfg, zaptest.NewLogger(t))
	if err := mgr.Start(); err != nil {
		t.Fatal(err)
	}
	defer mgr.Close()

	bus := event.NewBus()
	sink := &sinkRecorder{}
	fs := NewFogSystem(bus, mgr, sink, zaptest.NewLogger(t))
	id := ecs.NewEntityID(1, 0)

	// a move inside one tile is not a vision change
	rev := mgr.Revision()
	event.Emit(bus, event.PlayerMoved{Entity: id, From: geom.Vec2{X: 1.1, Y: 1.1}, To: geom.Vec2{X: 1.6, Y: 1.6}})
	tick(bus)
	if mgr.Revision() != rev {
		t.Fatal("same-tile move changed the vision source")
	}

	event.Emit(bus, event.PlayerMoved{Entity: id, From: geom.Vec2{X: 5, Y: 5}, To: geom.Vec2{X: 1.5, Y: 1.5}})
	tick(bus)
	want := mgr.Revision()
	waitFor(t, "lit frame", func() bool {
		tex := mgr.Texture()
		return tex != nil && tex.Revision == want
	})
	fs.Update(0)
	fs.Update(0)
	if len(sink.frames) != 1 {
		t.Fatalf("uploads = %d, want one per new frame", len(sink.frames))
	}
	if sink.frames[0].At(1, 1) != mgr.Palette().Visible {
		t.Fatal("uploaded frame does not show the player tile")
	}

	// a wider radius in a closed cell lights the same tiles
	mgr.SetVisionSource(uint64(id), 1, 1, 5)
	want = mgr.Revision()
	waitFor(t, "second frame", func() bool { return mgr.Texture().Revision == want })
	fs.Update(0)
	up, skipped := fs.Uploads()
	if up != 1 || skipped != 1 {
		t.Fatalf("uploads = %d skipped = %d, want 1 and 1", up, skipped)
	}
}

func TestLootSystemRollsKillsAndRecordsDrops(t *testing.T) {
	f := newLootFixture(t)
	pos := geom.Vec2{X: 4.5, Y: 2.5}
	wolf := f.world.SpawnMonster(&wolfTmpl, 2, pos)

	var dropped []event.ItemDropped
	event.Subscribe(f.bus, func(ev event.ItemDropped) { dropped = append(dropped, ev) })

	event.Emit(f.bus, event.MonsterKilled{Entity: wolf, MonsterID: 100, Level: 2, Position: pos})
	tick(f.bus)
	f.loot.Update(0)

	if f.loot.Dropped() == 0 {
		t.Fatal("kill dropped nothing")
	}
	if len(f.recorder.kills) != 1 {
		t.Fatalf("recorded kills = %d, want 1", len(f.recorder.kills))
	}
	k := f.recorder.kills[0]
	if k.mapID != 7 || k.monsterID != 100 || len(k.rows) != f.loot.Dropped() {
		t.Fatalf("recorded = %+v", k)
	}
	var sword bool
	for _, r := range k.rows {
		if r.ItemID == 1 {
			sword = true
			if r.Tier != "normal" || r.ItemLevel != 2 {
				t.Fatalf("sword row = %+v", r)
			}
		} else if r.Gold != 10 {
			t.Fatalf("gold row = %+v, want 2 × 5", r)
		}
	}
	if !sword {
		t.Fatal("guaranteed sword missing")
	}

	if m, _ := f.world.Monsters.Get(wolf); !m.Dead {
		t.Fatal("monster not marked dead")
	}
	f.world.ECS.FlushDestroyQueue()
	if f.world.ECS.Alive(wolf) {
		t.Fatal("killed monster not removed")
	}
	if f.world.GroundItems.Len() != f.loot.Dropped() {
		t.Fatalf("ground items = %d", f.world.GroundItems.Len())
	}
	tick(f.bus)
	if len(dropped) != f.loot.Dropped() {
		t.Fatalf("ItemDropped events = %d", len(dropped))
	}
}

func TestLootSystemIgnoresUnknownMonster(t *testing.T) {
	f := newLootFixture(t)
	event.Emit(f.bus, event.MonsterKilled{MonsterID: 999, Level: 1})
	tick(f.bus)
	f.loot.Update(0)
	if f.loot.Dropped() != 0 || len(f.recorder.kills) != 0 {
		t.Fatal("unknown monster produced loot")
	}
}

func TestAttackKillsTargetAndFeedsLoot(t *testing.T) {
	f := newLootFixture(t)
	cfg := config.Defaults().Player
	pc := player.NewController(f.world.Place(geom.Vec2{X: 1.5, Y: 2.5}), geom.Vec2{X: 1.5, Y: 2.5},
		cfg, f.world, f.bus, zap.NewNop())
	wolf := f.world.SpawnMonster(&wolfTmpl, 1, geom.Vec2{X: 5.5, Y: 2.5})
	is := NewInteractionSystem(pc, f.world, f.bus, zaptest.NewLogger(t))

	is.Update(0)
	if pc.AttackTarget() != wolf {
		t.Fatalf("target = %v, want the wolf", pc.AttackTarget())
	}
	if !pc.TryAttack(f.world) {
		t.Fatal("attack refused")
	}
	is.Update(0)
	if pc.Attacking() {
		t.Fatal("attack not resolved")
	}
	if !pc.AttackTarget().IsZero() {
		t.Fatal("dead target still selected")
	}

	tick(f.bus)
	f.loot.Update(0)
	if len(f.recorder.kills) != 1 {
		t.Fatal("kill did not reach the loot system")
	}

	// attacking thin air just ends the swing
	pc.TryAttack(nil)
	is.Update(0)
	if pc.Attacking() {
		t.Fatal("empty attack left the player attacking")
	}
}

func TestInteractionSystemFocusesDoor(t *testing.T) {
	bus := event.NewBus()
	ws := world.NewState(testMap(t, room))
	pc := player.NewController(ws.Place(geom.Vec2{X: 1.5, Y: 1.5}), geom.Vec2{X: 1.5, Y: 1.5},
		config.Defaults().Player, ws, bus, zap.NewNop())
	_, door := ws.AddInteractable(geom.Vec2{X: 3.5, Y: 1.5})
	is := NewInteractionSystem(pc, ws, bus, zap.NewNop())

	is.Update(0)
	if !door.Focused() || pc.InteractTarget() != door {
		t.Fatal("door in front of the player not focused")
	}
	pc.Kill()
	door.SetFocusOut()
	is.Update(0)
	if door.Focused() {
		t.Fatal("dead player still tracing")
	}
}

type fakeExplorationStore struct {
	saves [][]bool
}

func (s *fakeExplorationStore) Save(_ context.Context, _ int32, w, h int, mask []bool) error {
	s.saves = append(s.saves, mask)
	return nil
}

func TestPersistenceSystemSavesOnIntervalWhenChanged(t *testing.T) {
	grid := testMap(t, room)
	mgr := fog.NewManager(grid, config.Defaults().Fog, zap.NewNop())
	seed := make([]bool, grid.Width()*grid.Height())
	seed[11] = true
	if err := mgr.SeedExplored(seed); err != nil {
		t.Fatal(err)
	}
	store := &fakeExplorationStore{}
	ps := NewPersistenceSystem(mgr, store, 1, grid.Width(), grid.Height(), zap.NewNop(), 3)

	for i := 0; i < 2; i++ {
		ps.Update(0)
	}
	if len(store.saves) != 0 {
		t.Fatal("saved before the interval")
	}
	ps.Update(0)
	if len(store.saves) != 1 || !store.saves[0][11] {
		t.Fatalf("saves = %d, want the seeded mask once", len(store.saves))
	}
	for i := 0; i < 3; i++ {
		ps.Update(0)
	}
	if len(store.saves) != 1 {
		t.Fatal("unchanged mask saved again")
	}
	if err := ps.SaveNow(); err != nil || len(store.saves) != 2 {
		t.Fatal("SaveNow should always write")
	}
}

func TestCleanupSystemExpiresGroundItems(t *testing.T) {
	ws := world.NewState(testMap(t, room))
	id := ws.AddGroundItem(world.GroundItem{Name: "Gold", Gold: 3, TTL: 1}, geom.Vec2{X: 2.5, Y: 2.5})
	keep := ws.AddGroundItem(world.GroundItem{Name: "Gold", Gold: 3}, geom.Vec2{X: 3.5, Y: 2.5})
	cs := NewCleanupSystem(ws, zap.NewNop())
	cs.Update(0)
	if ws.ECS.Alive(id) {
		t.Fatal("expired pile still alive")
	}
	if !ws.ECS.Alive(keep) {
		t.Fatal("permanent pile removed")
	}
}
