package system

import (
	"time"

	coresys "github.com/dgrg/dungeon/internal/core/system"
	"github.com/dgrg/dungeon/internal/world"
	"go.uber.org/zap"
)

// CleanupSystem expires ground items and flushes the deferred entity
// destruction queue at tick end. Phase 5 (Cleanup).
type CleanupSystem struct {
	world *world.State
	log   *zap.Logger
}

func NewCleanupSystem(ws *world.State, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{world: ws, log: log}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	if expired := s.world.TickGroundItems(); len(expired) > 0 {
		s.log.Debug("ground items expired", zap.Int("count", len(expired)))
	}
	s.world.ECS.FlushDestroyQueue()
}
