package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pthm-cable/meadow/components"
)

func TestRunnerPacesAndSerialises(t *testing.T) {
	g := newTestGame(t, quietConfig(), Options{Seed: 1})
	g.AddEntities(components.KindPlant, 5)
	g.AddEntities(components.KindPrey, 3)

	r := NewRunner(g)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	err := r.Do(ctx, func(g *Game) {
		if err := g.SetSpeed(1000); err != nil {
			t.Errorf("SetSpeed: %v", err)
		}
		if err := g.Start(); err != nil {
			t.Errorf("Start: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	var tick int
	for tick < 5 {
		if time.Now().After(deadline) {
			t.Fatalf("runner reached only tick %d", tick)
		}
		if err := r.Do(ctx, func(g *Game) { tick = g.Tick() }); err != nil {
			t.Fatalf("Do: %v", err)
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
	if err := r.Do(context.Background(), func(*Game) {}); !errors.Is(err, ErrRunnerStopped) {
		t.Errorf("Do after stop = %v, want ErrRunnerStopped", err)
	}
}

func TestRunnerDoesNotStepIdleGame(t *testing.T) {
	g := newTestGame(t, quietConfig(), Options{Seed: 1})
	g.SetSpeed(1000)

	r := NewRunner(g)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := r.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run = %v, want context.DeadlineExceeded", err)
	}
	if g.Tick() != 0 {
		t.Errorf("idle game advanced to tick %d", g.Tick())
	}
}

func TestRunnerSurvivesOutOfRangeSpeed(t *testing.T) {
	g := newTestGame(t, quietConfig(), Options{Seed: 1})
	g.AddEntities(components.KindPlant, 5)
	g.AddEntities(components.KindPrey, 3)
	g.SetSpeed(1000)

	r := NewRunner(g)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	var speedErr error
	err := r.Do(ctx, func(g *Game) {
		speedErr = g.SetSpeed(2e9)
		if err := g.Start(); err != nil {
			t.Errorf("Start: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !errors.Is(speedErr, ErrInvalidSpeed) {
		t.Errorf("SetSpeed(2e9) = %v, want ErrInvalidSpeed", speedErr)
	}

	// A non-positive interval set behind SetSpeed's back keeps the old pacing.
	if err := r.Do(ctx, func(g *Game) { g.interval = 0 }); err != nil {
		t.Fatalf("Do: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	var tick int
	for tick < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("runner reached only tick %d", tick)
		}
		if err := r.Do(ctx, func(g *Game) { tick = g.Tick() }); err != nil {
			t.Fatalf("Do: %v", err)
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}
