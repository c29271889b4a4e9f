package assignment

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CursorKey is the app property holding the rotation cursor.
const CursorKey = "lastAssignedIndex"

// CursorRepository reads and writes the cursor in app_properties.
type CursorRepository struct {
	pool *pgxpool.Pool
}

func NewCursorRepository(pool *pgxpool.Pool) *CursorRepository {
	return &CursorRepository{pool: pool}
}

// Load returns the stored cursor. A missing or unparsable value reads as 0.
func (r *CursorRepository) Load(ctx context.Context) (int64, error) {
	var raw string
	err := r.pool.QueryRow(ctx, `SELECT value FROM app_properties WHERE key = $1`, CursorKey).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return parseCursor(raw), nil
}

// Save persists the cursor.
func (r *CursorRepository) Save(ctx context.Context, cursor int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO app_properties (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, CursorKey, strconv.FormatInt(cursor, 10))
	return err
}

func parseCursor(raw string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
