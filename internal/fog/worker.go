package fog

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// State is the worker lifecycle state.
type State int32

const (
	StateCreated State = iota
	StateIdle
	StateUpdating
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateIdle:
		return "idle"
	case StateUpdating:
		return "updating"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// WorkerStats is a point-in-time copy of the worker counters.
type WorkerStats struct {
	Polls     uint64 // loop iterations that found nothing pending
	Updates   uint64 // frames published
	Failures  uint64 // updates dropped by a compute error
	Abandoned uint64 // updates dropped because stop was observed
}

// Worker recomputes the fog texture on its own goroutine whenever an update
// is pending. The pending flag is level-triggered: any number of requests
// made before the worker takes the flag collapse into one recomputation.
//
// The worker holds src without owning it. Stop must return before src is
// torn down.
type Worker struct {
	src      Source
	idleWait time.Duration
	palette  Palette
	width    int
	height   int
	log      *zap.Logger

	pending  atomic.Bool
	stopping atomic.Bool
	state    atomic.Int32

	polls     atomic.Uint64
	updates   atomic.Uint64
	failures  atomic.Uint64
	abandoned atomic.Uint64

	wake     chan struct{}
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	// goroutine-owned
	explored []bool
	compute  func(snap *Snapshot, dst *Texture) error
}

// StartWorker builds a worker for a width×height texture and launches its
// goroutine. It returns immediately.
func StartWorker(src Source, width, height int, idleWait time.Duration, pal Palette, log *zap.Logger) *Worker {
	w := newWorker(src, width, height, idleWait, pal, nil, log)
	w.start()
	return w
}

func newWorker(src Source, width, height int, idleWait time.Duration, pal Palette, explored []bool, log *zap.Logger) *Worker {
	if idleWait <= 0 {
		idleWait = 16 * time.Millisecond
	}
	if explored == nil {
		explored = make([]bool, width*height)
	}
	w := &Worker{
		src:      src,
		idleWait: idleWait,
		palette:  pal.orDefault(),
		width:    width,
		height:   height,
		log:      log.With(zap.String("component", "fog_worker")),
		wake:     make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		explored: explored,
	}
	w.compute = w.computeFrame
	w.state.Store(int32(StateCreated))
	return w
}

func (w *Worker) start() {
	go w.run()
}

// RequestUpdate marks the texture stale. Safe from any goroutine, including
// after Stop, where it has no effect.
func (w *Worker) RequestUpdate() {
	if w.stopping.Load() {
		return
	}
	w.pending.Store(true)
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Stop signals the worker and blocks until its goroutine has exited.
// Calling Stop more than once is fine.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		// Stopping must land before the flag: once the loop sees the flag it
		// may exit and store Stopped at any moment.
		w.state.Store(int32(StateStopping))
		w.stopping.Store(true)
		close(w.stopCh)
	})
	<-w.done
}

// Done is closed once the worker goroutine has exited.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

func (w *Worker) State() State {
	return State(w.state.Load())
}

// Pending reports whether an update has been requested but not yet taken.
func (w *Worker) Pending() bool {
	return w.pending.Load()
}

func (w *Worker) Stats() WorkerStats {
	return WorkerStats{
		Polls:     w.polls.Load(),
		Updates:   w.updates.Load(),
		Failures:  w.failures.Load(),
		Abandoned: w.abandoned.Load(),
	}
}

func (w *Worker) run() {
	defer close(w.done)
	defer w.state.Store(int32(StateStopped))

	w.state.CompareAndSwap(int32(StateCreated), int32(StateIdle))
	w.log.Debug("fog worker started", zap.Duration("idle_wait", w.idleWait))

	ticker := time.NewTicker(w.idleWait)
	defer ticker.Stop()

	for {
		if w.stopping.Load() {
			w.log.Debug("fog worker stopped", zap.Uint64("updates", w.updates.Load()))
			return
		}
		// Taking the flag before computing means a request that lands
		// mid-update re-arms it and gets its own pass.
		if w.pending.CompareAndSwap(true, false) {
			if w.state.CompareAndSwap(int32(StateIdle), int32(StateUpdating)) {
				w.updateTexture()
				w.state.CompareAndSwap(int32(StateUpdating), int32(StateIdle))
			}
			continue
		}
		w.polls.Add(1)
		select {
		case <-w.stopCh:
		case <-w.wake:
		case <-ticker.C:
		}
	}
}

// updateTexture computes one frame into a fresh scratch texture and
// publishes it. Errors are logged and the frame is dropped.
func (w *Worker) updateTexture() {
	snap, err := w.src.Snapshot()
	if err == nil {
		scratch := newTexture(w.width, w.height)
		if err = w.compute(snap, scratch); err == nil {
			if w.stopping.Load() {
				w.abandoned.Add(1)
				return
			}
			scratch.Revision = snap.Revision
			scratch.Explored = append([]bool(nil), w.explored...)
			scratch.Seq = w.updates.Add(1)
			scratch.seal()
			w.src.Publish(scratch)
			return
		}
	}
	if errors.Is(err, errAbandoned) {
		w.abandoned.Add(1)
		return
	}
	w.failures.Add(1)
	w.log.Warn("fog update skipped", zap.Error(err))
}

var errAbandoned = errors.New("fog: update abandoned")

// computeFrame is the default compute step: explored memory plus
// shadowcast visibility for every source in the snapshot.
func (w *Worker) computeFrame(snap *Snapshot, dst *Texture) error {
	if err := validate(snap, dst.Width, dst.Height); err != nil {
		return err
	}
	pal := w.palette
	for i, seen := range w.explored {
		if seen {
			dst.Pix[i] = pal.Explored
		} else {
			dst.Pix[i] = pal.Unexplored
		}
	}
	mark := func(x, y int) {
		i := y*dst.Width + x
		dst.Pix[i] = pal.Visible
		w.explored[i] = true
	}
	for _, s := range snap.Sources {
		if w.stopping.Load() {
			return errAbandoned
		}
		castVision(snap.Grid, s, mark)
	}
	return nil
}
