package fog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dgrg/dungeon/internal/config"
	"go.uber.org/zap"
)

// Manager owns the fog worker and the published texture. Vision sources are
// set from the game loop; every change bumps the revision and requests an
// update. The worker reads state only through Snapshot and hands results
// back through Publish.
type Manager struct {
	grid Grid
	cfg  config.FogConfig
	pal  Palette
	log  *zap.Logger
	buf  Buffer

	mu       sync.RWMutex
	sources  map[uint64]VisionSource
	revision uint64
	worker   *Worker
	seed     []bool
	closed   bool
}

func NewManager(grid Grid, cfg config.FogConfig, log *zap.Logger) *Manager {
	return &Manager{
		grid: grid,
		cfg:  cfg,
		pal: Palette{
			Unexplored: cfg.UnexploredValue,
			Explored:   cfg.ExploredValue,
			Visible:    cfg.VisibleValue,
		}.orDefault(),
		log:     log.With(zap.String("component", "fog_manager")),
		sources: make(map[uint64]VisionSource),
	}
}

// Start launches the worker and requests the first frame.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStopped
	}
	if m.worker != nil {
		return ErrStarted
	}
	w, h := m.grid.Width(), m.grid.Height()
	m.worker = newWorker(m, w, h, m.cfg.IdleWait, m.pal, m.seed, m.log)
	m.seed = nil
	m.worker.start()
	m.worker.RequestUpdate()
	m.log.Info("fog manager started",
		zap.Int("width", w), zap.Int("height", h),
		zap.Duration("idle_wait", m.worker.idleWait))
	return nil
}

// Close stops the worker and waits for it to exit. Safe to call repeatedly.
func (m *Manager) Close() {
	m.mu.Lock()
	w := m.worker
	already := m.closed
	m.closed = true
	m.mu.Unlock()

	if w != nil {
		w.Stop()
	}
	if !already {
		m.log.Info("fog manager closed")
	}
}

// SetVisionSource adds or moves a vision source. Radius < 0 uses the
// configured default sight.
func (m *Manager) SetVisionSource(id uint64, x, y, radius int) {
	if radius < 0 {
		radius = m.cfg.DefaultSight
	}
	src := VisionSource{ID: id, X: x, Y: y, Radius: radius}

	m.mu.Lock()
	if old, ok := m.sources[id]; ok && old == src {
		m.mu.Unlock()
		return
	}
	m.sources[id] = src
	m.revision++
	w := m.worker
	m.mu.Unlock()

	if w != nil {
		w.RequestUpdate()
	}
}

func (m *Manager) RemoveVisionSource(id uint64) {
	m.mu.Lock()
	if _, ok := m.sources[id]; !ok {
		m.mu.Unlock()
		return
	}
	delete(m.sources, id)
	m.revision++
	w := m.worker
	m.mu.Unlock()

	if w != nil {
		w.RequestUpdate()
	}
}

// Revision returns the current vision state revision.
func (m *Manager) Revision() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.revision
}

// Snapshot implements Source. Sources are returned in ID order.
func (m *Manager) Snapshot() (*Snapshot, error) {
	m.mu.RLock()
	snap := &Snapshot{
		Revision: m.revision,
		Grid:     m.grid,
		Sources:  make([]VisionSource, 0, len(m.sources)),
	}
	for _, s := range m.sources {
		snap.Sources = append(snap.Sources, s)
	}
	m.mu.RUnlock()

	sort.Slice(snap.Sources, func(i, j int) bool {
		return snap.Sources[i].ID < snap.Sources[j].ID
	})
	return snap, nil
}

// Publish implements Source.
func (m *Manager) Publish(t *Texture) {
	m.buf.Publish(t)
}

// Texture returns the latest complete frame, or nil before the first one.
func (m *Manager) Texture() *Texture {
	return m.buf.Load()
}

// Worker exposes the running worker, or nil before Start.
func (m *Manager) Worker() *Worker {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.worker
}

// Palette returns the texture values in use.
func (m *Manager) Palette() Palette {
	return m.pal
}

// SeedExplored restores explored tiles from a previous session. It must be
// called before Start.
func (m *Manager) SeedExplored(mask []bool) error {
	want := m.grid.Width() * m.grid.Height()
	if len(mask) != want {
		return fmt.Errorf("%w: explored mask has %d tiles, want %d", ErrTextureSize, len(mask), want)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.worker != nil {
		return ErrStarted
	}
	m.seed = append([]bool(nil), mask...)
	return nil
}

// Explored returns the explored mask carried by the latest frame. Before the
// first frame it returns the seed, if any.
func (m *Manager) Explored() []bool {
	t := m.Texture()
	if t == nil {
		m.mu.RLock()
		defer m.mu.RUnlock()
		if m.seed == nil {
			return make([]bool, m.grid.Width()*m.grid.Height())
		}
		return append([]bool(nil), m.seed...)
	}
	if len(t.Explored) == len(t.Pix) {
		return append([]bool(nil), t.Explored...)
	}
	// frames published without explored memory fall back to the pixels
	mask := make([]bool, len(t.Pix))
	for i, v := range t.Pix {
		mask[i] = v != m.pal.Unexplored
	}
	return mask
}
