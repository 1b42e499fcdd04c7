package store

import (
	"context"

	"github.com/pthm-cable/meadow/telemetry"
)

// DefaultBatchSize is how many samples a Recorder buffers per transaction.
const DefaultBatchSize = 50

// Recorder streams samples from a running game into a Store. A tick that
// does not advance past the last recorded one (a reset world) starts a new
// run. Recorder is not safe for concurrent use.
type Recorder struct {
	store  *Store
	seed   int64
	config string
	batch  int

	runID    int64
	lastTick int
	pending  []telemetry.Sample
}

// NewRecorder creates a recorder. No run is registered until the first
// sample arrives.
func NewRecorder(s *Store, seed int64, config string, batch int) *Recorder {
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	return &Recorder{store: s, seed: seed, config: config, batch: batch}
}

// RunID returns the current run id, 0 before the first sample.
func (r *Recorder) RunID() int64 {
	return r.runID
}

// Observe buffers one sample and writes a batch when it is full.
func (r *Recorder) Observe(ctx context.Context, s telemetry.Sample) error {
	if r.runID == 0 || s.Tick <= r.lastTick {
		if err := r.Flush(ctx); err != nil {
			return err
		}
		id, err := r.store.BeginRun(ctx, r.seed, r.config)
		if err != nil {
			return err
		}
		r.runID = id
	}
	r.lastTick = s.Tick
	r.pending = append(r.pending, s)
	if len(r.pending) >= r.batch {
		return r.Flush(ctx)
	}
	return nil
}

// Bookmark records a bookmark against the current run.
func (r *Recorder) Bookmark(ctx context.Context, b telemetry.Bookmark) error {
	if r.runID == 0 {
		return nil
	}
	if err := r.Flush(ctx); err != nil {
		return err
	}
	return r.store.AddBookmark(ctx, r.runID, b)
}

// Flush writes buffered samples.
func (r *Recorder) Flush(ctx context.Context) error {
	if len(r.pending) == 0 {
		return nil
	}
	if err := r.store.AppendSamples(ctx, r.runID, r.pending); err != nil {
		return err
	}
	r.pending = r.pending[:0]
	return nil
}
