package system

import (
	"context"
	"time"

	coresys "github.com/dgrg/dungeon/internal/core/system"
	"github.com/dgrg/dungeon/internal/fog"
	"go.uber.org/zap"
)

// ExplorationStore saves explored fog. *persist.ExplorationRepo implements it.
type ExplorationStore interface {
	Save(ctx context.Context, mapID int32, width, height int, mask []bool) error
}

// PersistenceSystem periodically saves the explored-tile mask of the
// current map. Saves are skipped while nothing new was explored.
// Phase 4 (Persist).
type PersistenceSystem struct {
	fog       *fog.Manager
	store     ExplorationStore
	mapID     int32
	width     int
	height    int
	log       *zap.Logger
	tickCount int
	interval  int // auto-save every N ticks
	saved     int // explored tiles at the last save
}

func NewPersistenceSystem(mgr *fog.Manager, store ExplorationStore, mapID int32, width, height int,
	log *zap.Logger, intervalTicks int) *PersistenceSystem {
	return &PersistenceSystem{
		fog:      mgr,
		store:    store,
		mapID:    mapID,
		width:    width,
		height:   height,
		log:      log,
		interval: intervalTicks,
		saved:    -1,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	if s.interval <= 0 {
		return
	}
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	if err := s.save(false); err != nil {
		s.log.Error("exploration auto-save failed", zap.Int32("map_id", s.mapID), zap.Error(err))
	}
}

// SaveNow persists the mask immediately, even if unchanged. Called for
// graceful shutdown after the fog worker has stopped.
func (s *PersistenceSystem) SaveNow() error {
	return s.save(true)
}

func (s *PersistenceSystem) save(force bool) error {
	mask := s.fog.Explored()
	n := 0
	for _, v := range mask {
		if v {
			n++
		}
	}
	if !force && n == s.saved {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.Save(ctx, s.mapID, s.width, s.height, mask); err != nil {
		return err
	}
	s.saved = n
	s.log.Debug("exploration saved", zap.Int32("map_id", s.mapID), zap.Int("explored", n))
	return nil
}
