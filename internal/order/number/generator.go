package number

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const counterName = "orders"

// Generator produces human-readable order numbers from a durable monotonic
// counter: PREFIX plus a zero-padded sequence (e.g. MRC000042).
type Generator struct {
	db     *sql.DB
	prefix string
	logger *zap.Logger
}

func NewGenerator(db *sql.DB, prefix string, logger *zap.Logger) *Generator {
	return &Generator{db: db, prefix: prefix, logger: logger}
}

// Next returns a fresh order number. The counter row is bumped atomically,
// so no two concurrent callers can observe the same sequence value.
//
// Degraded mode: if the counter cannot be reached, Next falls back to a
// timestamp-derived number that is probably but not provably unique. The
// store's unique constraint on order_number is the backstop; callers must
// treat a duplicate there as a retryable conflict.
func (g *Generator) Next(ctx context.Context) (string, error) {
	res, err := g.db.ExecContext(ctx, `
		INSERT INTO order_counters (name, value)
		VALUES (?, LAST_INSERT_ID(1))
		ON DUPLICATE KEY UPDATE value = LAST_INSERT_ID(value + 1)
	`, counterName)
	if err != nil {
		return g.fallback(err), nil
	}

	seq, err := res.LastInsertId()
	if err != nil || seq <= 0 {
		return g.fallback(err), nil
	}

	return fmt.Sprintf("%s%06d", g.prefix, seq), nil
}

func (g *Generator) fallback(cause error) string {
	g.logger.Warn("order counter unavailable, using timestamp-derived number", zap.Error(cause))
	return fmt.Sprintf("%s%06d", g.prefix, time.Now().UnixNano()%1000000)
}
