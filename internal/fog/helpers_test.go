package fog

import (
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// testGrid parses rows of '#' (wall) and '.' (open).
type testGrid struct {
	w, h  int
	walls []bool
}

func parseGrid(rows ...string) *testGrid {
	g := &testGrid{w: len(rows[0]), h: len(rows)}
	g.walls = make([]bool, g.w*g.h)
	for y, row := range rows {
		for x, c := range row {
			g.walls[y*g.w+x] = c == '#'
		}
	}
	return g
}

func openGrid(w, h int) *testGrid {
	rows := make([]string, h)
	for i := range rows {
		rows[i] = strings.Repeat(".", w)
	}
	return parseGrid(rows...)
}

func (g *testGrid) Width() int                { return g.w }
func (g *testGrid) Height() int               { return g.h }
func (g *testGrid) BlocksSight(x, y int) bool { return g.walls[y*g.w+x] }

type fakeSource struct {
	grid Grid
	rev  atomic.Uint64
	buf  Buffer
}

func (f *fakeSource) Snapshot() (*Snapshot, error) {
	return &Snapshot{Revision: f.rev.Load(), Grid: f.grid}, nil
}

func (f *fakeSource) Publish(t *Texture) { f.buf.Publish(t) }

func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out after %s waiting for %s", timeout, what)
		}
		time.Sleep(time.Millisecond)
	}
}

// waitGoroutines waits until the goroutine count drops back to baseline.
func waitGoroutines(t *testing.T, baseline int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > baseline {
		if time.Now().After(deadline) {
			t.Fatalf("goroutines = %d, baseline %d", runtime.NumGoroutine(), baseline)
		}
		runtime.Gosched()
		time.Sleep(time.Millisecond)
	}
}
