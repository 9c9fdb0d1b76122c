// package repositories provides persistence layer implementations for all model types.
//
// Each repository implements models.Repository[T] for a specific entity type.
package repositories

import (
	"database/sql"
	"time"
)

// DefaultListLimit caps List results when no limit criterion is given.
const DefaultListLimit = 20

// limitFrom reads a positive "limit" criterion, falling back to [DefaultListLimit].
func limitFrom(criteria map[string]any) int {
	if n, ok := criteria["limit"].(int); ok && n > 0 {
		return n
	}
	return DefaultListLimit
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}
