// Package procwatch lets cmd/nova exit when the process that spawned it
// (an IDE or editor) disappears, rather than leaking an orphaned
// long-running analysis process. The platform-specific "is this PID
// alive" check lives behind build tags; everything else is shared.
package procwatch

import (
	"context"
	"time"
)

// Watch polls parentPID every interval and calls onGone once the moment
// it stops being alive, then returns. A parentPID <= 0 disables the
// watch (Watch returns immediately). Intended to run in its own
// goroutine from cmd/nova.
func Watch(ctx context.Context, parentPID int, interval time.Duration, onGone func()) {
	if parentPID <= 0 {
		return
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !isProcessAlive(parentPID) {
				onGone()
				return
			}
		}
	}
}
