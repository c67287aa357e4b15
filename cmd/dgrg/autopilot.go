package main

import (
	"math/rand"
	"time"

	coresys "github.com/dgrg/dungeon/internal/core/system"
	"github.com/dgrg/dungeon/internal/player"
	"github.com/dgrg/dungeon/internal/world"
)

const autopilotStep = 0.25 // tiles per tick

// autopilot drives the player when no client is attached: it walks until
// blocked, turns, opens chests and attacks whatever it targets.
// Phase 0 (Input).
type autopilot struct {
	pc    *player.Controller
	world *world.State
	rng   *rand.Rand
	yaw   float64
}

func newAutopilot(pc *player.Controller, ws *world.State, rng *rand.Rand) *autopilot {
	return &autopilot{pc: pc, world: ws, rng: rng}
}

func (a *autopilot) Phase() coresys.Phase { return coresys.PhaseInput }

func (a *autopilot) Update(_ time.Duration) {
	if !a.pc.InputEnabled() {
		return
	}
	if !a.pc.AttackTarget().IsZero() {
		a.pc.TryAttack(a.world)
		return
	}
	if it := a.pc.InteractTarget(); it != nil && it.Focused() {
		a.pc.InteractWithTarget()
	}

	before := a.pc.Position()
	a.pc.SetControlYaw(a.yaw)
	a.pc.MoveForward(autopilotStep)
	if a.pc.Position() == before {
		// blocked: turn left or right by a quarter
		if a.rng.Intn(2) == 0 {
			a.yaw += 90
		} else {
			a.yaw -= 90
		}
		return
	}
	// wander a little so corridors get explored
	if a.rng.Intn(40) == 0 {
		a.yaw += float64(a.rng.Intn(3)-1) * 90
	}
}
