package player

import (
	"math"
	"testing"

	"github.com/dgrg/dungeon/internal/config"
	"github.com/dgrg/dungeon/internal/core/ecs"
	"github.com/dgrg/dungeon/internal/core/event"
	"github.com/dgrg/dungeon/internal/core/geom"
	"github.com/dgrg/dungeon/internal/interact"
	"go.uber.org/zap"
)

type fakeTracer struct {
	interactable *interact.Interactable
	monster      ecs.EntityID
	lastBoxStart geom.Vec2
}

func (f *fakeTracer) TraceInteractable(from, to geom.Vec2, ignore ecs.EntityID) (*interact.Interactable, bool) {
	return f.interactable, f.interactable != nil
}

func (f *fakeTracer) TraceMonster(start, end geom.Vec2, halfWidth float64, ignore ecs.EntityID) (ecs.EntityID, bool) {
	f.lastBoxStart = start
	return f.monster, !f.monster.IsZero()
}

type fakeLocator map[ecs.EntityID]geom.Vec2

func (l fakeLocator) Position(id ecs.EntityID) (geom.Vec2, bool) {
	p, ok := l[id]
	return p, ok
}

type wallTerrain struct{ wallX int }

func (w wallTerrain) Walkable(x, y int) bool { return x != w.wallX }

var playerID = ecs.NewEntityID(1, 0)

func newTestController(bus *event.Bus, terrain Terrain) *Controller {
	return NewController(playerID, geom.Vec2{X: 5.5, Y: 5.5}, config.Defaults().Player, terrain, bus, zap.NewNop())
}

func near(a, b geom.Vec2) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func TestMoveEmitsPlayerMoved(t *testing.T) {
	bus := event.NewBus()
	var moves []event.PlayerMoved
	event.Subscribe(bus, func(ev event.PlayerMoved) { moves = append(moves, ev) })

	c := newTestController(bus, nil)
	c.MoveForward(1)
	c.SetControlYaw(90) // south
	c.MoveForward(2)
	c.MoveRight(0) // ignored

	bus.SwapBuffers()
	bus.DispatchAll()
	if len(moves) != 2 {
		t.Fatalf("moves = %d, want 2", len(moves))
	}
	if !near(moves[0].To, geom.Vec2{X: 6.5, Y: 5.5}) {
		t.Fatalf("first move to %v", moves[0].To)
	}
	if !near(c.Position(), geom.Vec2{X: 6.5, Y: 7.5}) {
		t.Fatalf("position = %v", c.Position())
	}
	if !near(c.Facing(), geom.Vec2{Y: 1}) {
		t.Fatalf("facing = %v, want south", c.Facing())
	}

	// right of south is west
	c.MoveRight(1)
	if !near(c.Position(), geom.Vec2{X: 5.5, Y: 7.5}) {
		t.Fatalf("position after strafe = %v", c.Position())
	}
}

func TestMovementBlockedWhileAttackingOrByTerrain(t *testing.T) {
	c := newTestController(nil, wallTerrain{wallX: 7})
	c.TryAttack(nil)
	c.MoveForward(1)
	if !near(c.Position(), geom.Vec2{X: 5.5, Y: 5.5}) {
		t.Fatal("moved while attacking")
	}
	c.EndAttack()
	c.MoveForward(1)
	c.MoveForward(1) // into the wall column
	if !near(c.Position(), geom.Vec2{X: 6.5, Y: 5.5}) {
		t.Fatalf("position = %v, want stopped before the wall", c.Position())
	}
}

func TestTryCheckInteractableFocus(t *testing.T) {
	c := newTestController(nil, nil)
	door := interact.New(ecs.NewEntityID(9, 0))
	tr := &fakeTracer{interactable: door}

	found, failed := 0, 0
	c.OnFoundInteract.Add(func() { found++ })
	c.OnFailFoundInteract.Add(func() { failed++ })
	var highlights []Highlight
	c.OnHighlight.Add(func(h Highlight) { highlights = append(highlights, h) })

	c.TryCheckInteractable(tr)
	c.TryCheckInteractable(tr)
	if !door.Focused() || found != 2 {
		t.Fatalf("focused=%v found=%d", door.Focused(), found)
	}
	if len(highlights) != 1 {
		t.Fatalf("steady focus re-highlighted: %v", highlights)
	}

	used := 0
	door.OnInteract.Add(func(ecs.EntityID) { used++ })
	if !c.InteractWithTarget() || used != 1 {
		t.Fatal("interaction did not reach the door")
	}

	door.SetLock()
	c.TryCheckInteractable(tr)
	if door.Focused() {
		t.Fatal("locked door should lose focus")
	}
	if c.InteractTarget() != door {
		t.Fatal("locked door should still be the interact target")
	}
	refused := 0
	door.OnCantInteract.Add(func(ecs.EntityID) { refused++ })
	c.InteractWithTarget()
	if refused != 1 {
		t.Fatal("locked door should refuse")
	}

	tr.interactable = nil
	c.TryCheckInteractable(tr)
	if c.InteractTarget() != nil || failed != 1 {
		t.Fatalf("miss: target=%v failed=%d", c.InteractTarget(), failed)
	}
	if c.InteractWithTarget() {
		t.Fatal("nothing to interact with")
	}
}

func TestTryCheckTargetMonster(t *testing.T) {
	c := newTestController(nil, nil)
	wolf, bear := ecs.NewEntityID(20, 0), ecs.NewEntityID(21, 0)
	tr := &fakeTracer{monster: wolf}

	var found, ended []ecs.EntityID
	c.OnFoundMonster.Add(func(id ecs.EntityID) { found = append(found, id) })
	c.OnFoundEndMonster.Add(func(id ecs.EntityID) { ended = append(ended, id) })

	c.TryCheckTargetMonster(tr)
	c.TryCheckTargetMonster(tr)
	if c.AttackTarget() != wolf || len(found) != 1 {
		t.Fatalf("target=%v found=%v", c.AttackTarget(), found)
	}
	if !near(tr.lastBoxStart, geom.Vec2{X: 5.5 + config.Defaults().Player.TargetNear, Y: 5.5}) {
		t.Fatalf("box started at %v", tr.lastBoxStart)
	}

	tr.monster = bear
	c.TryCheckTargetMonster(tr)
	if c.AttackTarget() != bear || len(ended) != 1 || ended[0] != wolf {
		t.Fatalf("switch: target=%v ended=%v", c.AttackTarget(), ended)
	}

	tr.monster = 0
	c.TryCheckTargetMonster(tr)
	c.TryCheckTargetMonster(tr)
	if !c.AttackTarget().IsZero() || len(ended) != 2 {
		t.Fatalf("clear: target=%v ended=%v", c.AttackTarget(), ended)
	}
}

func TestTryAttackFacesTargetAndKillDisablesInput(t *testing.T) {
	c := newTestController(nil, nil)
	wolf := ecs.NewEntityID(20, 0)
	c.SetAttackTarget(wolf)

	var attacked []ecs.EntityID
	c.OnAttack.Add(func(id ecs.EntityID) { attacked = append(attacked, id) })
	if !c.TryAttack(fakeLocator{wolf: {X: 5.5, Y: 1.5}}) {
		t.Fatal("attack refused")
	}
	if !near(c.Facing(), geom.Vec2{Y: -1}) {
		t.Fatalf("facing = %v, want north", c.Facing())
	}
	if c.TryAttack(nil) {
		t.Fatal("second attack while attacking should be refused")
	}
	if len(attacked) != 1 || attacked[0] != wolf {
		t.Fatalf("attacked = %v", attacked)
	}

	killed := 0
	c.OnKilled.Add(func() { killed++ })
	c.Kill()
	c.Kill()
	if killed != 1 || c.InputEnabled() || !c.Dead() {
		t.Fatal("kill should fire once and disable input")
	}
	c.MoveForward(1)
	if c.TryAttack(nil) {
		t.Fatal("dead player attacked")
	}
}
