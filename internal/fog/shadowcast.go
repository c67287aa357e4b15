package fog

import "fmt"

// octant transforms (xx, xy, yx, yy) for the eight shadowcasting octants
var octants = [8][4]int{
	{1, 0, 0, 1},
	{0, 1, 1, 0},
	{0, -1, 1, 0},
	{-1, 0, 0, 1},
	{-1, 0, 0, -1},
	{0, -1, -1, 0},
	{0, 1, -1, 0},
	{1, 0, 0, -1},
}

// validate rejects snapshots the worker cannot turn into a frame.
func validate(snap *Snapshot, w, h int) error {
	if snap == nil || snap.Grid == nil {
		return fmt.Errorf("%w: no grid", ErrInconsistentSnapshot)
	}
	if snap.Grid.Width() != w || snap.Grid.Height() != h {
		return fmt.Errorf("%w: grid %dx%d, texture %dx%d",
			ErrTextureSize, snap.Grid.Width(), snap.Grid.Height(), w, h)
	}
	for _, s := range snap.Sources {
		if s.X < 0 || s.Y < 0 || s.X >= w || s.Y >= h {
			return fmt.Errorf("%w: source %d at (%d,%d) outside %dx%d",
				ErrInconsistentSnapshot, s.ID, s.X, s.Y, w, h)
		}
		if s.Radius < 0 {
			return fmt.Errorf("%w: source %d has negative radius %d",
				ErrInconsistentSnapshot, s.ID, s.Radius)
		}
	}
	return nil
}

// castVision marks every tile visible from src by calling mark(x, y).
// Walls are lit but stop light behind them. Uses recursive shadowcasting.
func castVision(g Grid, src VisionSource, mark func(x, y int)) {
	mark(src.X, src.Y)
	if src.Radius == 0 {
		return
	}
	for _, o := range octants {
		castLight(g, src.X, src.Y, 1, 1.0, 0.0, src.Radius, o[0], o[1], o[2], o[3], mark)
	}
}

func castLight(g Grid, cx, cy, row int, start, end float64, radius, xx, xy, yx, yy int, mark func(x, y int)) {
	if start < end {
		return
	}
	w, h := g.Width(), g.Height()
	radiusSq := radius * radius

	for j := row; j <= radius; j++ {
		blocked := false
		newStart := start
		dy := -j
		for dx := -j; dx <= 0; dx++ {
			lSlope := (float64(dx) - 0.5) / (float64(dy) + 0.5)
			rSlope := (float64(dx) + 0.5) / (float64(dy) - 0.5)
			if start < rSlope {
				continue
			}
			if end > lSlope {
				break
			}

			x := cx + dx*xx + dy*xy
			y := cy + dx*yx + dy*yy
			inside := x >= 0 && y >= 0 && x < w && y < h
			if inside && dx*dx+dy*dy <= radiusSq {
				mark(x, y)
			}

			opaque := !inside || g.BlocksSight(x, y)
			if blocked {
				if opaque {
					newStart = rSlope
					continue
				}
				blocked = false
				start = newStart
			} else if opaque && j < radius {
				blocked = true
				castLight(g, cx, cy, j+1, start, lSlope, radius, xx, xy, yx, yy, mark)
				newStart = rSlope
			}
		}
		if blocked {
			break
		}
	}
}
