package game

import (
	"reflect"
	"testing"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/config"
	"github.com/pthm-cable/meadow/systems"
	"github.com/pthm-cable/meadow/telemetry"
)

func TestSnapshotRestore(t *testing.T) {
	cfg := config.Default()
	g := newTestGame(t, cfg, Options{Seed: 21})
	g.AddEntities(components.KindPlant, 20)
	g.AddEntities(components.KindPrey, 10)
	g.AddEntities(components.KindPredator, 2)
	g.PlaceZone(components.ZonePollution, 400, 250, 200)
	g.SetWeather(systems.WeatherRainy)
	mustStart(t, g)
	for i := 0; i < 20; i++ {
		g.Step()
	}

	path, err := telemetry.SaveSnapshot(g.Snapshot(), t.TempDir())
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	loaded, err := telemetry.LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	restored := newTestGame(t, cfg, Options{Seed: 99})
	if err := restored.Restore(loaded); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if restored.Tick() != g.Tick() {
		t.Errorf("tick = %d, want %d", restored.Tick(), g.Tick())
	}
	if restored.State() != StateStopped {
		t.Errorf("state = %v, want stopped", restored.State())
	}
	if restored.Counts() != g.Counts() {
		t.Errorf("counts = %+v, want %+v", restored.Counts(), g.Counts())
	}
	if restored.Environment() != g.Environment() {
		t.Errorf("environment = %+v, want %+v", restored.Environment(), g.Environment())
	}
	if !reflect.DeepEqual(restored.Zones(), g.Zones()) {
		t.Errorf("zones = %+v, want %+v", restored.Zones(), g.Zones())
	}
	if !reflect.DeepEqual(restored.Entities(), g.Entities()) {
		t.Error("restored entities differ")
	}
	if !reflect.DeepEqual(restored.History(), g.History()) {
		t.Error("restored history differs")
	}

	mustStart(t, restored)
	if !restored.Step() || restored.Tick() != g.Tick()+1 {
		t.Errorf("restored game did not continue from tick %d", g.Tick())
	}
}

func TestRestoreRejectsMismatchedWorld(t *testing.T) {
	g := newTestGame(t, config.Default(), Options{})
	s := g.Snapshot()
	s.Width = 10
	if err := g.Restore(s); err == nil {
		t.Error("expected error for mismatched world size")
	}

	s = g.Snapshot()
	s.Environment.Weather = "hail"
	if err := g.Restore(s); err == nil {
		t.Error("expected error for unknown weather")
	}
}
