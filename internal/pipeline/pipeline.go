// Package pipeline implements the bounded queue(s) handing blocks from
// table-data producers to formatter/sink consumers, in the two modes
// spec.md names: independent per-consumer queues (a block goes to the
// queue picked by hashing its first table's name) and a shared queue (best
// throughput, best-effort order).
//
// Built on Go channels, the idiomatic bounded-MPMC-queue primitive;
// no pack repo reaches for a third-party queue library for this role
// (elchinoo-stormdb's bulk_insert_plugin generator.go hands work to its
// worker pool over a plain buffered channel, which is the grounding for
// this choice).
package pipeline

import (
	"context"
	"hash/fnv"

	"github.com/cockroachdb/errors"

	"github.com/taosdata/taosgen/internal/pool"
)

// ErrClosed is returned by Send/Receive once the pipeline has been closed.
var ErrClosed = errors.New("pipeline: closed")

// Mode selects how blocks are routed from producers to consumers.
type Mode int

const (
	// Shared routes every block through one MPMC queue; whichever
	// consumer goroutine is free next takes it. Highest throughput,
	// order across tables is best-effort only.
	Shared Mode = iota

	// Independent routes each block to a fixed consumer queue selected by
	// hashing the block's first table name, so blocks that lead with the
	// same table reach the same consumer in send order. The producer is not
	// part of the hash, and a block's other tables go wherever its first
	// table's hash sends them, so their blocks can reach different consumers.
	Independent
)

// Pipeline is a set of one or more bounded block queues plus the
// termination protocol producers and consumers coordinate shutdown with.
type Pipeline struct {
	mode   Mode
	queues []chan *pool.Block
	done   chan struct{}
}

// New builds a Pipeline. queueDepth bounds each internal channel;
// consumerCount is how many consumer queues to create in Independent mode
// (ignored, forced to 1, in Shared mode since all consumers share one
// channel).
func New(mode Mode, queueDepth, consumerCount int) (*Pipeline, error) {
	if queueDepth <= 0 {
		return nil, errors.Newf("pipeline: queue_depth must be positive, got %d", queueDepth)
	}
	n := consumerCount
	if mode == Shared || n <= 0 {
		n = 1
	}

	p := &Pipeline{mode: mode, done: make(chan struct{})}
	for i := 0; i < n; i++ {
		p.queues = append(p.queues, make(chan *pool.Block, queueDepth))
	}
	return p, nil
}

// Send enqueues a block, routing it per Mode. In Independent mode, the
// block's first populated table's name is hashed to pick a consumer
// queue; in Shared mode there is exactly one queue. Blocks until space is
// available, ctx is cancelled, or the pipeline is closed.
func (p *Pipeline) Send(ctx context.Context, blk *pool.Block) error {
	q := p.queueFor(blk)
	select {
	case q <- blk:
		return nil
	case <-p.done:
		return ErrClosed
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "pipeline: send cancelled")
	}
}

func (p *Pipeline) queueFor(blk *pool.Block) chan *pool.Block {
	if len(p.queues) == 1 || blk.UsedTables == 0 {
		return p.queues[0]
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(blk.Tables[0].TableName))
	idx := int(h.Sum32()) % len(p.queues)
	if idx < 0 {
		idx += len(p.queues)
	}
	return p.queues[idx]
}

// Receive dequeues the next block from the given consumer lane (always 0
// in Shared mode). Returns ErrClosed once the pipeline is closed and
// drained.
func (p *Pipeline) Receive(ctx context.Context, lane int) (*pool.Block, error) {
	q := p.queues[lane%len(p.queues)]
	select {
	case blk, ok := <-q:
		if !ok {
			return nil, ErrClosed
		}
		return blk, nil
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "pipeline: receive cancelled")
	}
}

// Lanes returns the number of consumer lanes (channels) this pipeline has.
func (p *Pipeline) Lanes() int { return len(p.queues) }

// Close signals shutdown: pending Send/Receive calls waiting on <-p.done
// unblock with ErrClosed, and closes every underlying queue so that a
// Receive loop draining with `for blk := range` terminates once buffered
// blocks are consumed.
func (p *Pipeline) Close() {
	select {
	case <-p.done:
		return
	default:
		close(p.done)
	}
	for _, q := range p.queues {
		close(q)
	}
}
