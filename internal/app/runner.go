package app

import (
	"context"
	"time"
)

// Runner owns the one-second scheduler for a machine: it feeds Tick events
// until the machine completes or the context is canceled. Selection events
// arrive through the machine directly; the answered guard inside the machine
// decides which of a racing tick and selection wins.
type Runner struct {
	machine  *Machine
	interval time.Duration
	done     chan struct{}
}

func NewRunner(machine *Machine, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = time.Second
	}
	return &Runner{
		machine:  machine,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Run drives the machine until completion or cancellation. Blocking; callers
// usually run it in its own goroutine.
func (r *Runner) Run(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if snap := r.machine.Tick(); snap.State == StateComplete {
				return
			}
		}
	}
}

// Done is closed once Run returns.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}
