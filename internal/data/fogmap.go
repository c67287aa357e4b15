package data

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Fog map tiles. Anything else in a map file is an error.
const (
	tileOpen  = '.'
	tileWall  = '#'
	tileWater = '~' // walkable for sight, not for drops
)

// FogMap is the static sight/walk grid of one dungeon floor.
type FogMap struct {
	width, height int
	opaque        []bool
	walkable      []bool
}

func (m *FogMap) Width() int  { return m.width }
func (m *FogMap) Height() int { return m.height }

func (m *FogMap) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.width && y < m.height
}

// BlocksSight reports whether (x, y) stops vision. Outside the map blocks.
func (m *FogMap) BlocksSight(x, y int) bool {
	if !m.In(x, y) {
		return true
	}
	return m.opaque[y*m.width+x]
}

// Walkable reports whether something can stand or be dropped on (x, y).
func (m *FogMap) Walkable(x, y int) bool {
	if !m.In(x, y) {
		return false
	}
	return m.walkable[y*m.width+x]
}

// LoadFogMap reads a map file: one row per line, '#' wall, '.' floor,
// '~' water. Blank lines and lines starting with ';' are skipped.
func LoadFogMap(path string) (*FogMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fog map: %w", err)
	}
	defer f.Close()
	m, err := ParseFogMap(f)
	if err != nil {
		return nil, fmt.Errorf("fog map %s: %w", path, err)
	}
	return m, nil
}

func ParseFogMap(r io.Reader) (*FogMap, error) {
	m := &FogMap{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		row := strings.TrimRight(sc.Text(), " \t\r")
		if row == "" || strings.HasPrefix(row, ";") {
			continue
		}
		if m.width == 0 {
			m.width = len(row)
		} else if len(row) != m.width {
			return nil, fmt.Errorf("line %d: row width %d, want %d", line, len(row), m.width)
		}
		for col, c := range []byte(row) {
			switch c {
			case tileOpen:
				m.opaque = append(m.opaque, false)
				m.walkable = append(m.walkable, true)
			case tileWall:
				m.opaque = append(m.opaque, true)
				m.walkable = append(m.walkable, false)
			case tileWater:
				m.opaque = append(m.opaque, false)
				m.walkable = append(m.walkable, false)
			default:
				return nil, fmt.Errorf("line %d col %d: unknown tile %q", line, col+1, c)
			}
		}
		m.height++
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if m.width == 0 || m.height == 0 {
		return nil, fmt.Errorf("empty map")
	}
	return m, nil
}
