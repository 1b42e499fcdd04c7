package game

import (
	"fmt"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/systems"
	"github.com/pthm-cable/meadow/telemetry"
)

// Snapshot builds a value copy of the complete world state.
func (g *Game) Snapshot() *telemetry.Snapshot {
	snapshot := &telemetry.Snapshot{
		Version: telemetry.SnapshotVersion,
		Seed:    g.seed,
		Width:   g.cfg.World.Width,
		Height:  g.cfg.World.Height,
		Tick:    g.tick,
		State:   g.state.String(),
		Environment: telemetry.EnvironmentState{
			Temperature: g.env.Temperature(),
			Weather:     g.env.Weather().String(),
			Auto:        g.env.Auto(),
		},
		Entities: g.Entities(),
		History:  g.history.Samples(),
	}
	for _, z := range g.zones {
		snapshot.Zones = append(snapshot.Zones, telemetry.ZoneState{
			Kind:   z.Kind,
			X:      z.X,
			Y:      z.Y,
			Radius: z.Radius,
		})
	}
	return snapshot
}

// Restore replaces the world with the snapshot's state. A snapshot taken
// while running comes back Stopped so the caller decides when to resume.
// The RNG is not part of a snapshot; a restored run continues on the
// game's own stream.
func (g *Game) Restore(s *telemetry.Snapshot) error {
	if s.Version != telemetry.SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	if s.Width != g.cfg.World.Width || s.Height != g.cfg.World.Height {
		return fmt.Errorf("snapshot world %vx%v does not match config %vx%v",
			s.Width, s.Height, g.cfg.World.Width, g.cfg.World.Height)
	}
	weather, err := systems.ParseWeather(s.Environment.Weather)
	if err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	effects := make([]components.Effects, len(s.Entities))
	for i, es := range s.Entities {
		for _, name := range es.Effects {
			z, err := components.ParseZoneKind(name)
			if err != nil {
				return fmt.Errorf("restore snapshot: %w", err)
			}
			effects[i].Add(z)
		}
	}
	zones := make([]systems.Zone, 0, len(s.Zones))
	for _, zs := range s.Zones {
		z, err := systems.NewZone(zs.Kind, zs.X, zs.Y, zs.Radius)
		if err != nil {
			return fmt.Errorf("restore snapshot: %w", err)
		}
		zones = append(zones, z)
	}

	g.initWorld()
	g.field.Reset(nil)
	for i, es := range s.Entities {
		g.place(
			components.Position{X: es.X, Y: es.Y},
			components.Body{Kind: es.Kind, Speed: es.Speed},
			components.Vitals{Energy: es.Energy, Health: es.Health, RegrowthTimer: es.RegrowthTimer},
			effects[i],
		)
	}
	g.zones = zones
	g.env.Restore(s.Environment.Temperature, weather, s.Environment.Auto)
	g.tick = s.Tick

	g.history.Reset()
	for _, sample := range s.History {
		g.history.Append(sample)
	}
	g.collector.ResetAt(g.tick)
	g.bookmarks.Reset()
	g.recount()

	switch s.State {
	case StateIdle.String():
		g.state = StateIdle
	default:
		g.state = StateStopped
	}

	g.logger.Info("snapshot_restored", "tick", g.tick, "entities", len(g.order))
	return nil
}
