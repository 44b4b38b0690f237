package repositories

import (
	"context"
	"database/sql"
	"strings"

	intdb "cargobooking/internal/db"
)

// LookupRepository validates references to clients and locations, which are
// owned elsewhere and only read here.
type LookupRepository struct {
	DB *sql.DB
}

// ClientExists reports whether a client with id exists.
func (r LookupRepository) ClientExists(ctx context.Context, q intdb.Querier, id int64) (bool, error) {
	var n int
	if err := pick(q, r.DB).QueryRowContext(ctx, `SELECT COUNT(*) FROM clients WHERE id = ?`, id).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountLocations counts how many of ids exist. ids must be distinct.
func (r LookupRepository) CountLocations(ctx context.Context, q intdb.Querier, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ph := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	var n int
	if err := pick(q, r.DB).QueryRowContext(ctx, `SELECT COUNT(*) FROM locations WHERE id IN (`+ph+`)`, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
