package system

import (
	"time"

	"github.com/dgrg/dungeon/internal/core/ecs"
	"github.com/dgrg/dungeon/internal/core/event"
	coresys "github.com/dgrg/dungeon/internal/core/system"
	"github.com/dgrg/dungeon/internal/player"
	"github.com/dgrg/dungeon/internal/world"
	"go.uber.org/zap"
)

// InteractionSystem runs the player's forward traces every tick and
// resolves attacks started since the last tick. An attack on a live
// monster kills it. Phase 2 (Update).
type InteractionSystem struct {
	player *player.Controller
	world  *world.State
	bus    *event.Bus
	log    *zap.Logger

	attacks []ecs.EntityID
}

func NewInteractionSystem(pc *player.Controller, ws *world.State, bus *event.Bus, log *zap.Logger) *InteractionSystem {
	s := &InteractionSystem{player: pc, world: ws, bus: bus, log: log}
	pc.OnAttack.Add(func(target ecs.EntityID) {
		s.attacks = append(s.attacks, target)
	})
	return s
}

func (s *InteractionSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *InteractionSystem) Update(_ time.Duration) {
	for _, target := range s.attacks {
		s.resolveAttack(target)
	}
	s.attacks = s.attacks[:0]

	if s.player.Dead() {
		return
	}
	s.player.TryCheckInteractable(s.world)
	s.player.TryCheckTargetMonster(s.world)
}

func (s *InteractionSystem) resolveAttack(target ecs.EntityID) {
	defer s.player.EndAttack()
	if target.IsZero() {
		return
	}
	m, ok := s.world.Monsters.Get(target)
	if !ok || m.Dead {
		return
	}
	pos, _ := s.world.Position(target)
	m.Dead = true
	s.player.SetNullAttackTarget()
	s.log.Info("monster killed",
		zap.Stringer("entity", target),
		zap.String("name", m.Name),
		zap.Int("level", m.Level))
	event.Emit(s.bus, event.MonsterKilled{
		Entity:    target,
		MonsterID: m.MonsterID,
		Level:     m.Level,
		Position:  pos,
	})
}
