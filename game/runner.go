package game

import (
	"context"
	"errors"
	"time"
)

// ErrRunnerStopped is returned by Do once the runner loop has exited.
var ErrRunnerStopped = errors.New("runner stopped")

type command struct {
	fn   func(*Game)
	done chan struct{}
}

// Runner paces a Game in real time and serialises access to it. Commands
// sent through Do run on the loop goroutine between ticks, so a tick always
// observes a consistent world.
type Runner struct {
	g        *Game
	commands chan command
	stopped  chan struct{}
}

// NewRunner wraps g. The game must not be used directly once Run starts.
func NewRunner(g *Game) *Runner {
	return &Runner{
		g:        g,
		commands: make(chan command),
		stopped:  make(chan struct{}),
	}
}

// Run steps the game at its configured interval until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.stopped)

	interval := r.g.Interval()
	if interval <= 0 {
		interval = MinTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-r.commands:
			cmd.fn(r.g)
			close(cmd.done)
			if iv := r.g.Interval(); iv > 0 && iv != interval {
				interval = iv
				ticker.Reset(interval)
			}
		case <-ticker.C:
			r.g.Step()
		}
	}
}

// Do runs fn on the loop goroutine and waits for it to finish.
func (r *Runner) Do(ctx context.Context, fn func(*Game)) error {
	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case r.commands <- cmd:
	case <-r.stopped:
		return ErrRunnerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-cmd.done:
		return nil
	case <-r.stopped:
		return ErrRunnerStopped
	}
}
