// Package start bounds a single run with interrupt-driven shutdown: it
// launches run in a goroutine, waits for either run to finish or an
// os.Interrupt, cancels the run's context, then gives it stopTimeout to
// return before giving up and returning anyway. Adapted from the
// teacher's always-on daemon starter (one StartFunc looping forever
// until signaled) to taosgen's one-shot workflow run, which needs the
// same bounded, signal-aware shutdown around a single pass instead of a
// restart loop.
package start

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"
)

// StartFunc is the run taosgen's main package hands to Start: build the
// flag set, resolve the run document, and execute the workflow graph.
type StartFunc func(ctx context.Context) error

// Start runs run to completion, cancelling its context on the first
// os.Interrupt and giving it stopTimeout to unwind before Start returns
// regardless of whether run has finished. It returns run's error, or nil
// if run finished (or was cut off by stopTimeout) without one.
func Start(ctx context.Context, stopTimeout time.Duration, run StartFunc) error {
	notify := make(chan os.Signal, 3)
	signal.Notify(notify, os.Interrupt)
	ctx, cancel := context.WithCancel(ctx)
	once := &sync.Once{}
	fin := make(chan bool)
	unlock := func() {
		close(fin)
	}
	unlockOnce := func() {
		once.Do(unlock)
	}
	runErr := atomic.Value{}
	go func() {
		err := run(ctx)
		if err != nil {
			runErr.Store(err)
		}
		unlockOnce()
	}()
	select {
	case <-notify:
	case <-fin:
	}
	cancel()
	go func() {
		<-time.After(stopTimeout)
		unlockOnce()
	}()
	<-fin
	if err, ok := runErr.Load().(error); ok {
		return err
	}
	return nil
}
