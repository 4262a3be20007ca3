package health

import (
	"context"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck builds a liveness CheckFunc that fails once the live
// goroutine count climbs past limit. Catches leaks from abandoned request
// handlers or notification workers.
func GoroutineCountCheck(limit int) CheckFunc {
	return func(_ context.Context) error {
		if n := runtime.NumGoroutine(); n > limit {
			return errors.Errorf("%d goroutines running, limit is %d", n, limit)
		}
		return nil
	}
}

// GCMaxPauseCheck builds a liveness CheckFunc that fails when any recorded
// stop-the-world GC pause ran longer than limit. Long pauses usually mean
// the heap has grown past what the instance can serve from.
func GCMaxPauseCheck(limit time.Duration) CheckFunc {
	return func(_ context.Context) error {
		var stats debug.GCStats
		debug.ReadGCStats(&stats)

		for _, pause := range stats.Pause {
			if pause > limit {
				return errors.Errorf("GC pause of %s, limit is %s", pause, limit)
			}
		}
		return nil
	}
}
