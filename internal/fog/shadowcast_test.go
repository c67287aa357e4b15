package fog

import "testing"

func visibleSet(g Grid, src VisionSource) map[[2]int]bool {
	seen := make(map[[2]int]bool)
	castVision(g, src, func(x, y int) { seen[[2]int{x, y}] = true })
	return seen
}

func TestCastVisionOpenRoomRespectsRadius(t *testing.T) {
	g := openGrid(15, 15)
	seen := visibleSet(g, VisionSource{X: 7, Y: 7, Radius: 3})

	for _, p := range [][2]int{{7, 7}, {10, 7}, {4, 7}, {7, 10}, {7, 4}, {9, 9}} {
		if !seen[p] {
			t.Errorf("%v should be visible", p)
		}
	}
	for _, p := range [][2]int{{11, 7}, {7, 11}, {10, 10}, {3, 7}} {
		if seen[p] {
			t.Errorf("%v should be outside the radius", p)
		}
	}
}

func TestCastVisionWallsBlockButAreLit(t *testing.T) {
	g := parseGrid(
		".......",
		".......",
		"...#...",
		".......",
		".......",
	)
	seen := visibleSet(g, VisionSource{X: 3, Y: 4, Radius: 5})
	if !seen[[2]int{3, 2}] {
		t.Error("wall tile should be lit")
	}
	if seen[[2]int{3, 1}] || seen[[2]int{3, 0}] {
		t.Error("tiles straight behind the wall should be dark")
	}
	if !seen[[2]int{0, 4}] || !seen[[2]int{6, 4}] {
		t.Error("tiles beside the source should be visible")
	}
}

func TestCastVisionZeroRadiusSeesOnlyOwnTile(t *testing.T) {
	seen := visibleSet(openGrid(5, 5), VisionSource{X: 0, Y: 0, Radius: 0})
	if len(seen) != 1 || !seen[[2]int{0, 0}] {
		t.Fatalf("seen = %v, want only origin", seen)
	}
}

func TestCastVisionStaysInBounds(t *testing.T) {
	g := openGrid(4, 3)
	castVision(g, VisionSource{X: 0, Y: 0, Radius: 10}, func(x, y int) {
		if x < 0 || y < 0 || x >= 4 || y >= 3 {
			t.Fatalf("marked out-of-bounds tile (%d,%d)", x, y)
		}
	})
}

func TestValidateRejectsBadSnapshots(t *testing.T) {
	g := openGrid(4, 4)
	cases := []struct {
		name string
		snap *Snapshot
		w, h int
	}{
		{"nil", nil, 4, 4},
		{"size", &Snapshot{Grid: g}, 5, 4},
		{"outside", &Snapshot{Grid: g, Sources: []VisionSource{{X: 4, Y: 0}}}, 4, 4},
		{"radius", &Snapshot{Grid: g, Sources: []VisionSource{{X: 1, Y: 1, Radius: -1}}}, 4, 4},
	}
	for _, tc := range cases {
		if err := validate(tc.snap, tc.w, tc.h); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
	if err := validate(&Snapshot{Grid: g, Sources: []VisionSource{{X: 3, Y: 3, Radius: 2}}}, 4, 4); err != nil {
		t.Errorf("valid snapshot rejected: %v", err)
	}
}
