package system

import (
	"time"

	"github.com/dgrg/dungeon/internal/core/ecs"
	"github.com/dgrg/dungeon/internal/core/event"
	coresys "github.com/dgrg/dungeon/internal/core/system"
	"github.com/dgrg/dungeon/internal/fog"
	"go.uber.org/zap"
)

// TextureSink receives fog textures for display. The texture is immutable
// and may be kept.
type TextureSink interface {
	UploadTexture(t *fog.Texture)
}

// FogSystem feeds player movement into the fog manager and hands each new
// frame to the sink once. Frames whose content matches the last upload
// are skipped. Phase 3 (PostUpdate).
type FogSystem struct {
	fog  *fog.Manager
	sink TextureSink
	log  *zap.Logger

	lastSeq    uint64
	lastDigest [32]byte
	uploaded   bool
	uploads    int
	skipped    int
}

// NewFogSystem subscribes to PlayerMoved on bus. sink may be nil.
func NewFogSystem(bus *event.Bus, mgr *fog.Manager, sink TextureSink, log *zap.Logger) *FogSystem {
	s := &FogSystem{fog: mgr, sink: sink, log: log}
	event.Subscribe(bus, s.onPlayerMoved)
	return s
}

func (s *FogSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *FogSystem) onPlayerMoved(ev event.PlayerMoved) {
	fx, fy := ev.From.Tile()
	tx, ty := ev.To.Tile()
	if fx == tx && fy == ty {
		return
	}
	s.Track(ev.Entity, tx, ty)
}

// Track places or moves the vision source of entity with the default sight.
func (s *FogSystem) Track(entity ecs.EntityID, x, y int) {
	s.fog.SetVisionSource(uint64(entity), x, y, -1)
}

func (s *FogSystem) Update(_ time.Duration) {
	tex := s.fog.Texture()
	if tex == nil || tex.Seq == s.lastSeq {
		return
	}
	s.lastSeq = tex.Seq
	if s.uploaded && tex.Digest == s.lastDigest {
		s.skipped++
		return
	}
	s.lastDigest = tex.Digest
	s.uploaded = true
	s.uploads++
	if s.sink != nil {
		s.sink.UploadTexture(tex)
	}
}

// Uploads returns how many frames were handed to the sink and how many
// were skipped as unchanged.
func (s *FogSystem) Uploads() (uploaded, skipped int) {
	return s.uploads, s.skipped
}
