package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

var ErrMaskSize = errors.New("persist: exploration mask size mismatch")

// ExplorationRepo stores the explored-tile mask of each map.
type ExplorationRepo struct {
	db *DB
}

func NewExplorationRepo(db *DB) *ExplorationRepo {
	return &ExplorationRepo{db: db}
}

// Save upserts the mask for mapID. len(mask) must be width*height.
func (r *ExplorationRepo) Save(ctx context.Context, mapID int32, width, height int, mask []bool) error {
	if len(mask) != width*height {
		return fmt.Errorf("%w: %d tiles for %dx%d", ErrMaskSize, len(mask), width, height)
	}
	packed, explored := PackMask(mask)
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO fog_exploration (map_id, width, height, mask, explored, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now())
		 ON CONFLICT (map_id) DO UPDATE
		 SET width = EXCLUDED.width, height = EXCLUDED.height, mask = EXCLUDED.mask,
		     explored = EXCLUDED.explored, updated_at = now()`,
		mapID, width, height, packed, explored,
	)
	if err != nil {
		return fmt.Errorf("save exploration map %d: %w", mapID, err)
	}
	return nil
}

// Load returns the saved mask for mapID. found is false when nothing was
// saved yet. A mask saved for different map dimensions is an error.
func (r *ExplorationRepo) Load(ctx context.Context, mapID int32, width, height int) (mask []bool, found bool, err error) {
	var w, h int
	var packed []byte
	err = r.db.Pool.QueryRow(ctx,
		`SELECT width, height, mask FROM fog_exploration WHERE map_id = $1`, mapID,
	).Scan(&w, &h, &packed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load exploration map %d: %w", mapID, err)
	}
	if w != width || h != height {
		return nil, false, fmt.Errorf("%w: saved %dx%d, map is %dx%d", ErrMaskSize, w, h, width, height)
	}
	mask, err = UnpackMask(packed, width*height)
	if err != nil {
		return nil, false, err
	}
	return mask, true, nil
}

// PackMask packs mask into bytes, least significant bit first, and returns
// the number of set tiles.
func PackMask(mask []bool) ([]byte, int) {
	out := make([]byte, (len(mask)+7)/8)
	n := 0
	for i, v := range mask {
		if v {
			out[i/8] |= 1 << (i % 8)
			n++
		}
	}
	return out, n
}

// UnpackMask is the inverse of PackMask.
func UnpackMask(packed []byte, n int) ([]bool, error) {
	if len(packed) != (n+7)/8 {
		return nil, fmt.Errorf("%w: %d bytes for %d tiles", ErrMaskSize, len(packed), n)
	}
	mask := make([]bool, n)
	for i := range mask {
		mask[i] = packed[i/8]&(1<<(i%8)) != 0
	}
	return mask, nil
}
