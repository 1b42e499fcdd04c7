package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	if cfg.World.Width != 800 || cfg.World.Height != 500 {
		t.Errorf("world = %vx%v, want 800x500", cfg.World.Width, cfg.World.Height)
	}
	if cfg.Plant.RegrowTime != 30 {
		t.Errorf("plant.regrow_time = %d, want 30", cfg.Plant.RegrowTime)
	}
	if cfg.Prey.FearRange == 0 || cfg.Predator.AttackRange == 0 {
		t.Error("inline animal config lost kind-specific fields")
	}
	if cfg.Prey.ReproduceProb != 0.04 || cfg.Predator.ReproduceProb != 0.05 {
		t.Errorf("reproduce probs = %v/%v, want 0.04/0.05", cfg.Prey.ReproduceProb, cfg.Predator.ReproduceProb)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeFile(t, `
world:
  width: 300
predator:
  gain_from_food: 35
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.World.Width != 300 {
		t.Errorf("world.width = %v, want 300", cfg.World.Width)
	}
	if cfg.World.Height != 500 {
		t.Errorf("world.height = %v, want default 500", cfg.World.Height)
	}
	if cfg.Predator.GainFromFood != 35 {
		t.Errorf("predator.gain_from_food = %v, want 35", cfg.Predator.GainFromFood)
	}
	if cfg.Predator.EnergyCost != 1.5 {
		t.Errorf("predator.energy_cost = %v, want default 1.5", cfg.Predator.EnergyCost)
	}
}

func TestLoadEmptyFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeFile(t, ""))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Zones.DefaultRadius != 60 {
		t.Errorf("zones.default_radius = %v, want 60", cfg.Zones.DefaultRadius)
	}
}

func TestLoadRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown key", "prey:\n  fly_speed: 3\n"},
		{"wrong type", "world:\n  width: wide\n"},
		{"probability above one", "prey:\n  reproduce_prob: 1.5\n"},
		{"non-positive radius", "zones:\n  default_radius: 0\n"},
		{"unknown weather", "environment:\n  initial_weather: hail\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			if err == nil {
				t.Fatal("expected an error, got nil")
			}
			if !strings.Contains(err.Error(), "schema") {
				t.Errorf("error %q does not mention the schema", err)
			}
		})
	}
}

func TestValidateReportsEveryField(t *testing.T) {
	cfg := Default()
	cfg.Zones.DefaultRadius = -5
	cfg.Prey.ReproduceProb = -0.1
	cfg.Zones.PollutionAnimal = cfg.Zones.PollutionPlant
	cfg.Environment.ChillyBelow = cfg.Environment.FreezeBelow

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error %v is not a *ValidationError", err)
	}

	for _, field := range []string{
		"zones.default_radius",
		"prey.reproduce_prob",
		"zones.pollution_animal",
		"environment.freeze_below",
	} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("validation error does not mention %s: %v", field, err)
		}
	}
}

func TestValidateCrossFieldRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"speed band inverted", func(c *Config) { c.Prey.SpeedMax = c.Prey.SpeedMin - 0.5 }},
		{"initial energy above max", func(c *Config) { c.Predator.InitialEnergyMax = c.Predator.MaxEnergy + 1 }},
		{"conservation slower for animals", func(c *Config) { c.Zones.ConservationAnimal = 0.5 }},
		{"partial regrowth above max health", func(c *Config) { c.Interaction.PartialRegrowth = c.Plant.MaxHealth + 1 }},
		{"temperature range inverted", func(c *Config) { c.Environment.MinTemperature = 60 }},
		{"zero stats window", func(c *Config) { c.Telemetry.StatsWindow = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation failure")
			}
		})
	}
}

func TestValidateRejectsNonFinite(t *testing.T) {
	tests := []struct {
		field  string
		mutate func(*Config)
	}{
		{"world.width", func(c *Config) { c.World.Width = math.Inf(1) }},
		{"world.height", func(c *Config) { c.World.Height = math.Inf(1) }},
		{"prey.search_range", func(c *Config) { c.Prey.SearchRange = math.Inf(1) }},
		{"predator.speed_max", func(c *Config) { c.Predator.SpeedMax = math.Inf(1) }},
		{"interaction.predation_range", func(c *Config) { c.Interaction.PredationRange = math.Inf(1) }},
		{"zones.default_radius", func(c *Config) { c.Zones.DefaultRadius = math.Inf(1) }},
		{"environment.max_temperature", func(c *Config) { c.Environment.MaxTemperature = math.Inf(1) }},
		{"environment.initial_temperature", func(c *Config) { c.Environment.InitialTemperature = math.NaN() }},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation failure")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("validation error does not mention %s: %v", tt.field, err)
			}
		})
	}
}

func TestLoadSemanticFailure(t *testing.T) {
	path := writeFile(t, "zones:\n  pollution_plant: 9\n  pollution_animal: 1\n")
	_, err := Load(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Load error = %v, want *ValidationError", err)
	}
	if verr.Field != "zones.pollution_animal" {
		t.Errorf("field = %q, want zones.pollution_animal", verr.Field)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MEADOW_TEMPERATURE", "-12.5")
	t.Setenv("MEADOW_WEATHER", "rainy")
	t.Setenv("MEADOW_INITIAL_PREY", "7")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Environment.InitialTemperature != -12.5 {
		t.Errorf("temperature = %v, want -12.5", cfg.Environment.InitialTemperature)
	}
	if cfg.Environment.InitialWeather != "rainy" {
		t.Errorf("weather = %q, want rainy", cfg.Environment.InitialWeather)
	}
	if cfg.Population.InitialPrey != 7 {
		t.Errorf("initial prey = %d, want 7", cfg.Population.InitialPrey)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Interaction.PredationRange = 42
	cfg.Environment.Deltas.Freeze.Animal = -0.75

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load of written config failed: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
}
