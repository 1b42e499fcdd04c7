package game

import (
	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/telemetry"
)

// flushTelemetry closes a stats window when one is due and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.sampleWindow())
	perfStats := g.perf.Stats()

	for _, fn := range g.onStats {
		fn(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.outputManager.WriteTelemetry(stats); err != nil {
		g.logger.Error("failed to write telemetry", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		g.logger.Error("failed to write perf", "error", err)
	}

	for _, bm := range g.bookmarks.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		for _, fn := range g.onBookmark {
			fn(bm)
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			g.logger.Error("failed to write bookmark", "error", err)
		}
		if g.snapshotDir != "" {
			g.saveSnapshot(&bm)
		}
	}
}

// sampleWindow collects the distributions reported at the end of a window.
func (g *Game) sampleWindow() telemetry.WindowSample {
	s := telemetry.WindowSample{
		Counts:      g.counts,
		Temperature: g.env.Temperature(),
		Weather:     g.env.Weather().String(),
		Zones:       len(g.zones),
	}

	query := g.filter.Query()
	for query.Next() {
		body, vit := query.Get()
		switch body.Kind {
		case components.KindPrey:
			s.PreyEnergy = append(s.PreyEnergy, vit.Energy)
		case components.KindPredator:
			s.PredEnergy = append(s.PredEnergy, vit.Energy)
		case components.KindPlant:
			if !vit.Dormant() {
				s.PlantHealth = append(s.PlantHealth, vit.Health)
			}
		}
	}
	return s
}

// saveSnapshot creates and saves a snapshot to disk.
func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) {
	snapshot := g.Snapshot()
	snapshot.Bookmark = bookmark

	path, err := telemetry.SaveSnapshot(snapshot, g.snapshotDir)
	if err != nil {
		g.logger.Error("failed to save snapshot", "error", err)
		return
	}
	g.logger.Info("snapshot saved", "path", path, "tick", g.tick)
}
