// Package player holds the player character controller: movement, the
// interactable focus check and attack targeting. Collision queries go through
// Tracer so the controller has no opinion about how the world is stored.
package player

import (
	"github.com/dgrg/dungeon/internal/config"
	"github.com/dgrg/dungeon/internal/core/ecs"
	"github.com/dgrg/dungeon/internal/core/event"
	"github.com/dgrg/dungeon/internal/core/geom"
	"github.com/dgrg/dungeon/internal/interact"
	"go.uber.org/zap"
)

// Tracer answers the two collision queries the controller needs.
type Tracer interface {
	// TraceInteractable returns the first interactable on the segment.
	TraceInteractable(from, to geom.Vec2, ignore ecs.EntityID) (*interact.Interactable, bool)
	// TraceMonster returns the first monster inside the box swept from start
	// to end with the given half width.
	TraceMonster(start, end geom.Vec2, halfWidth float64, ignore ecs.EntityID) (ecs.EntityID, bool)
}

// Locator resolves entity positions.
type Locator interface {
	Position(id ecs.EntityID) (geom.Vec2, bool)
}

// Terrain reports whether a tile can be walked on.
type Terrain interface {
	Walkable(x, y int) bool
}

// Highlight asks the renderer to outline (On) or clear an entity.
type Highlight struct {
	Entity ecs.EntityID
	On     bool
}

type Controller struct {
	Entity ecs.EntityID

	pos        geom.Vec2
	controlYaw float64 // camera yaw, drives movement direction
	facing     geom.Vec2
	attacking  bool
	inputOn    bool
	dead       bool

	interactObj  *interact.Interactable
	attackTarget ecs.EntityID

	cfg     config.PlayerConfig
	terrain Terrain
	bus     *event.Bus
	log     *zap.Logger

	OnFoundInteract     event.Notify
	OnFailFoundInteract event.Notify
	OnFoundMonster      event.Signal[ecs.EntityID]
	OnFoundEndMonster   event.Signal[ecs.EntityID]
	OnAttack            event.Signal[ecs.EntityID]
	OnKilled            event.Notify
	OnHighlight         event.Signal[Highlight]
}

// NewController places the player at pos facing east. terrain may be nil.
func NewController(entity ecs.EntityID, pos geom.Vec2, cfg config.PlayerConfig, terrain Terrain, bus *event.Bus, log *zap.Logger) *Controller {
	return &Controller{
		Entity:  entity,
		pos:     pos,
		facing:  geom.Vec2{X: 1},
		inputOn: true,
		cfg:     cfg,
		terrain: terrain,
		bus:     bus,
		log:     log.With(zap.String("component", "player"), zap.Stringer("entity", entity)),
	}
}

func (c *Controller) Position() geom.Vec2 { return c.pos }
func (c *Controller) Facing() geom.Vec2   { return c.facing }
func (c *Controller) Attacking() bool     { return c.attacking }
func (c *Controller) Dead() bool          { return c.dead }
func (c *Controller) InputEnabled() bool  { return c.inputOn }

// SetControlYaw sets the camera yaw in degrees used by movement input.
func (c *Controller) SetControlYaw(deg float64) { c.controlYaw = deg }

// MoveForward moves along the camera's forward axis.
func (c *Controller) MoveForward(value float64) {
	c.move(geom.FromYaw(c.controlYaw), value)
}

// MoveRight moves along the camera's right axis.
func (c *Controller) MoveRight(value float64) {
	c.move(geom.FromYaw(c.controlYaw).Right(), value)
}

func (c *Controller) move(dir geom.Vec2, value float64) {
	if c.attacking || !c.inputOn || value == 0 {
		return
	}
	step := dir.Scale(value * c.speed())
	to := c.pos.Add(step)
	if c.terrain != nil {
		tx, ty := to.Tile()
		if !c.terrain.Walkable(tx, ty) {
			return
		}
	}
	from := c.pos
	c.pos = to
	c.facing = step.Normalize()
	if c.bus != nil {
		event.Emit(c.bus, event.PlayerMoved{Entity: c.Entity, From: from, To: to})
	}
}

func (c *Controller) speed() float64 {
	if c.cfg.MoveSpeed <= 0 {
		return 1
	}
	return c.cfg.MoveSpeed
}

// TryCheckInteractable traces forward for an interactable. A locked hit is
// remembered but not focused; an unlocked hit is focused and announced.
func (c *Controller) TryCheckInteractable(tr Tracer) {
	end := c.pos.Add(c.facing.Scale(c.cfg.InteractRange))
	hit, ok := tr.TraceInteractable(c.pos, end, c.Entity)

	if c.interactObj != nil && (!ok || hit != c.interactObj || !hit.Unlocked()) {
		c.focusOut(c.interactObj)
	}
	if ok {
		c.interactObj = hit
		if !hit.Unlocked() {
			return
		}
		c.OnFoundInteract.Broadcast()
		if !hit.Focused() {
			c.OnHighlight.Broadcast(Highlight{Entity: hit.Owner, On: true})
			hit.SetFocusIn()
		}
		return
	}
	c.interactObj = nil
	c.OnFailFoundInteract.Broadcast()
}

func (c *Controller) focusOut(it *interact.Interactable) {
	if !it.Focused() {
		return
	}
	c.OnHighlight.Broadcast(Highlight{Entity: it.Owner})
	it.SetFocusOut()
}

// InteractTarget returns the interactable in front of the player, if any.
func (c *Controller) InteractTarget() *interact.Interactable { return c.interactObj }

// SetNullInteract forgets the current interactable.
func (c *Controller) SetNullInteract() {
	if c.interactObj != nil {
		c.focusOut(c.interactObj)
	}
	c.interactObj = nil
}

// InteractWithTarget uses the interactable in front of the player.
func (c *Controller) InteractWithTarget() bool {
	if c.interactObj == nil {
		return false
	}
	c.interactObj.Interact(c.Entity)
	return true
}

// TryCheckTargetMonster sweeps a box in front of the player and tracks the
// first monster it finds as the attack target.
func (c *Controller) TryCheckTargetMonster(tr Tracer) {
	start := c.pos.Add(c.facing.Scale(c.cfg.TargetNear))
	end := c.pos.Add(c.facing.Scale(c.cfg.TargetFar))
	if hit, ok := tr.TraceMonster(start, end, c.cfg.TargetHalfWidth, c.Entity); ok {
		if hit == c.attackTarget {
			return
		}
		c.SetAttackTarget(hit)
		return
	}
	if c.attackTarget.IsZero() {
		return
	}
	c.SetNullAttackTarget()
}

func (c *Controller) AttackTarget() ecs.EntityID { return c.attackTarget }

func (c *Controller) SetAttackTarget(target ecs.EntityID) {
	c.SetNullAttackTarget()
	c.OnFoundMonster.Broadcast(target)
	c.attackTarget = target
	c.OnHighlight.Broadcast(Highlight{Entity: target, On: true})
}

func (c *Controller) SetNullAttackTarget() {
	if c.attackTarget.IsZero() {
		return
	}
	c.OnHighlight.Broadcast(Highlight{Entity: c.attackTarget})
	c.OnFoundEndMonster.Broadcast(c.attackTarget)
	c.attackTarget = 0
}

// TryAttack turns toward the current target, if any, and starts an attack.
// Movement input is ignored until EndAttack.
func (c *Controller) TryAttack(loc Locator) bool {
	if c.dead || c.attacking {
		return false
	}
	if !c.attackTarget.IsZero() && loc != nil {
		if tp, ok := loc.Position(c.attackTarget); ok {
			if dir := tp.Sub(c.pos).Normalize(); dir != (geom.Vec2{}) {
				c.facing = dir
			}
		}
	}
	c.attacking = true
	c.OnAttack.Broadcast(c.attackTarget)
	return true
}

func (c *Controller) EndAttack() { c.attacking = false }

// Kill marks the player dead and disables input.
func (c *Controller) Kill() {
	if c.dead {
		return
	}
	c.dead = true
	c.inputOn = false
	c.attacking = false
	c.log.Info("player killed")
	c.OnKilled.Broadcast()
}
