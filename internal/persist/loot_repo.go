package persist

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DropRow is one drop placed on the ground.
type DropRow struct {
	ItemID    int32 // 0 for gold
	ItemName  string
	Tier      string
	ItemLevel int
	Gold      int
	X, Y      float64
}

// LootRepo keeps an audit log of monster drops.
type LootRepo struct {
	db *DB
}

func NewLootRepo(db *DB) *LootRepo {
	return &LootRepo{db: db}
}

// RecordDrops writes all drops of one kill in a single batch. Nothing is
// written if any row fails.
func (r *LootRepo) RecordDrops(ctx context.Context, mapID, monsterID int32, drops []DropRow) error {
	if len(drops) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, d := range drops {
		batch.Queue(
			`INSERT INTO loot_drops (map_id, monster_id, item_id, item_name, tier, item_level, gold, pos_x, pos_y)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			mapID, monsterID, d.ItemID, d.ItemName, d.Tier, d.ItemLevel, d.Gold, d.X, d.Y,
		)
	}
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("record drops of monster %d: %w", monsterID, err)
	}
	return nil
}

// GoldTotal sums gold ever dropped by a monster template.
func (r *LootRepo) GoldTotal(ctx context.Context, monsterID int32) (int64, error) {
	var total int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(gold), 0) FROM loot_drops WHERE monster_id = $1`, monsterID,
	).Scan(&total)
	return total, err
}
