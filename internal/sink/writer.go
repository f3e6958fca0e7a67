package sink

import (
	"context"
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/taosdata/taosgen/internal/format"
)

// WriterConfig controls the retry loop Writer runs around each Execute.
type WriterConfig struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

func (c WriterConfig) withDefaults() WriterConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 200 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 30 * time.Second
	}
	return c
}

// Writer drives a Pool: acquire a connector, execute one formatted
// result, release it, retrying on failure with capped exponential
// backoff (doubling per attempt, same shape as a dead-letter-queue retry
// schedule, here applied inline rather than persisted to a table since
// there is no outbox backing this writer's retries).
type Writer struct {
	pool *Pool
	cfg  WriterConfig
	log  zerolog.Logger
}

// NewWriter builds a Writer over pool.
func NewWriter(pool *Pool, cfg WriterConfig, log zerolog.Logger) *Writer {
	return &Writer{pool: pool, cfg: cfg.withDefaults(), log: log}
}

// Write executes result against a pooled connector, retrying transient
// failures up to cfg.MaxAttempts times. A connector that fails Execute is
// closed rather than released back to the pool (PooledConnector always
// treats a failed connector as needing replacement rather than trusting
// reset_state() to have cleaned it up), so the next attempt dials fresh.
func (w *Writer) Write(ctx context.Context, result format.Result) error {
	if result.Kind == format.Ignored {
		return nil
	}

	var lastErr error
	for attempt := 0; attempt < w.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			backoff := w.backoffFor(attempt)
			w.log.Warn().Err(lastErr).Int("attempt", attempt).Dur("backoff", backoff).Msg("sink write retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		conn, err := w.pool.Acquire(ctx)
		if err != nil {
			lastErr = err
			continue
		}

		err = conn.Execute(ctx, result)
		if err != nil {
			lastErr = errors.Wrap(err, "sink: execute")
			_ = conn.Close()
			w.pool.sem.Release(1)
			continue
		}

		w.pool.Release(conn)
		return nil
	}

	return errors.Wrapf(lastErr, "sink: giving up after %d attempts", w.cfg.MaxAttempts)
}

func (w *Writer) backoffFor(attempt int) time.Duration {
	d := time.Duration(float64(w.cfg.BaseBackoff) * math.Pow(2, float64(attempt-1)))
	if d > w.cfg.MaxBackoff {
		return w.cfg.MaxBackoff
	}
	return d
}
