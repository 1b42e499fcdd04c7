package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/meadow/config"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v; want nil, nil", om, err)
	}
	// All methods are safe on nil.
	if err := om.WriteSamples([]Sample{{Tick: 1}}); err != nil {
		t.Error(err)
	}
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteConfig(config.Default()); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
	if om.Dir() != "" {
		t.Error("nil manager reported a directory")
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	if err := om.WriteSamples([]Sample{{Tick: 1, Predators: 3, Prey: 15, Plants: 40}}); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteSamples([]Sample{{Tick: 2, Predators: 3, Prey: 14, Plants: 39}}); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteTelemetry(WindowStats{WindowEndTick: 100, Prey: 14, Weather: "sunny"}); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkPreyCrash, Tick: 100, Description: "crash"}); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(config.Default()); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "history.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("history.csv has %d lines, want header + 2:\n%s", len(lines), data)
	}
	if lines[0] != "tick,predators,prey,plants" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[2] != "2,3,14,39" {
		t.Errorf("second row = %q", lines[2])
	}

	telem, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(telem), "window_end,predators,prey,plants") {
		t.Errorf("telemetry header = %q", strings.SplitN(string(telem), "\n", 2)[0])
	}

	if _, err := config.Load(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("written config does not load: %v", err)
	}
}
