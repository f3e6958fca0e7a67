package sink

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/semaphore"
)

// ErrPoolClosed is returned by Acquire once Close has been called.
var ErrPoolClosed = errors.New("sink: connection pool is shutting down")

// ErrAcquireTimeout matches ConnectionPoolImpl::get_connection's
// "Timeout waiting for database connection" condition.
var ErrAcquireTimeout = errors.New("sink: timed out waiting for a connection")

// PoolConfig mirrors TDengineConfig::PoolConfig (min_pool_size,
// max_pool_size, connection_timeout), generalized to any Connector
// backend.
type PoolConfig struct {
	MinSize           int
	MaxSize           int
	ConnectionTimeout time.Duration
}

// Validate rejects a PoolConfig that cannot build a usable pool,
// matching icinga-go-library's Options.Validate style of up-front
// constraint checking rather than failing lazily mid-run.
func (c PoolConfig) Validate() error {
	if c.MaxSize < 1 {
		return errors.New("sink: pool max_size must be at least 1")
	}
	if c.MinSize < 0 || c.MinSize > c.MaxSize {
		return errors.New("sink: pool min_size must be between 0 and max_size")
	}
	if c.ConnectionTimeout <= 0 {
		return errors.New("sink: pool connection_timeout must be positive")
	}
	return nil
}

// Pool is a connector pool: up to MaxSize live connectors, MinSize of
// them created eagerly, the rest created lazily on demand, grounded on
// ConnectionPoolImpl. The total-connector cap is enforced with
// golang.org/x/sync/semaphore rather than ConnectionPoolImpl's
// mutex-guarded atomic counter, since a weighted semaphore already gives
// context-aware blocking acquire/release for exactly this "at most N
// outstanding" shape.
type Pool struct {
	factory   Factory
	cfg       PoolConfig
	sem       *semaphore.Weighted
	available chan Connector
	closed    chan struct{}
}

// NewPool builds a Pool and eagerly creates MinSize connectors, matching
// ConnectionPoolImpl's constructor calling initialize().
func NewPool(ctx context.Context, cfg PoolConfig, factory Factory) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pool{
		factory:   factory,
		cfg:       cfg,
		sem:       semaphore.NewWeighted(int64(cfg.MaxSize)),
		available: make(chan Connector, cfg.MaxSize),
		closed:    make(chan struct{}),
	}

	for i := 0; i < cfg.MinSize; i++ {
		if !p.sem.TryAcquire(1) {
			break
		}
		conn, err := p.create(ctx)
		if err != nil {
			p.sem.Release(1)
			continue
		}
		p.available <- conn
	}

	return p, nil
}

func (p *Pool) create(ctx context.Context) (Connector, error) {
	conn, err := p.factory(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "sink: creating connector")
	}
	if err := conn.Connect(ctx); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "sink: connecting")
	}
	return conn, nil
}

// Acquire returns a ready-to-use Connector, creating one if the pool has
// spare capacity and none is idle, or waiting (bounded by
// cfg.ConnectionTimeout, and always by ctx) for one to free up otherwise.
// A connector found invalid (IsValid false) is discarded and replaced
// with a freshly dialed one, matching get_connection's reconnect-on-stale
// path.
func (p *Pool) Acquire(ctx context.Context) (Connector, error) {
	select {
	case <-p.closed:
		return nil, ErrPoolClosed
	default:
	}

	select {
	case conn := <-p.available:
		return p.validate(ctx, conn)
	default:
	}

	if p.sem.TryAcquire(1) {
		conn, err := p.create(ctx)
		if err != nil {
			p.sem.Release(1)
			return nil, err
		}
		return p.validate(ctx, conn)
	}

	timeout, cancel := context.WithTimeout(ctx, p.cfg.ConnectionTimeout)
	defer cancel()

	select {
	case conn := <-p.available:
		return p.validate(ctx, conn)
	case <-p.closed:
		return nil, ErrPoolClosed
	case <-timeout.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrAcquireTimeout
	}
}

func (p *Pool) validate(ctx context.Context, conn Connector) (Connector, error) {
	if conn.IsValid() {
		return conn, nil
	}
	_ = conn.Close()

	fresh, err := p.create(ctx)
	if err != nil {
		p.sem.Release(1)
		return nil, errors.Wrap(err, "sink: reconnecting stale connector")
	}
	return fresh, nil
}

// Release resets conn's per-use state and returns it to the pool,
// matching return_connection's reset_state()-then-requeue sequence. A
// release after Close closes conn outright instead of requeuing it.
func (p *Pool) Release(conn Connector) {
	conn.ResetState()

	select {
	case <-p.closed:
		_ = conn.Close()
		p.sem.Release(1)
		return
	default:
	}

	select {
	case p.available <- conn:
	default:
		// Pool already holds MaxSize idle connectors (can happen if MaxSize
		// shrank underneath in-flight acquires); close the surplus rather
		// than block the releasing goroutine.
		_ = conn.Close()
		p.sem.Release(1)
	}
}

// Close shuts the pool down, closing every idle connector, matching
// close_all_connections. In-flight (acquired) connectors are closed by
// their own Release call once returned.
func (p *Pool) Close() error {
	select {
	case <-p.closed:
		return nil
	default:
		close(p.closed)
	}

	var firstErr error
	for {
		select {
		case conn := <-p.available:
			if err := conn.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
			p.sem.Release(1)
		default:
			return firstErr
		}
	}
}
