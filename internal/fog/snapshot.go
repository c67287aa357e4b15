package fog

// Grid is the static sight map the fog is computed over.
type Grid interface {
	Width() int
	Height() int
	BlocksSight(x, y int) bool
}

// VisionSource is anything that reveals fog around a tile.
type VisionSource struct {
	ID     uint64
	X, Y   int
	Radius int
}

// Snapshot is the copy of vision state the worker computes one frame from.
type Snapshot struct {
	Revision uint64
	Grid     Grid
	Sources  []VisionSource
}

// Source is the worker's non-owning view of its manager.
type Source interface {
	// Snapshot returns a consistent copy of the current vision state.
	Snapshot() (*Snapshot, error)
	// Publish hands a completed texture back to the owner.
	Publish(t *Texture)
}
