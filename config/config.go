// Package config provides configuration loading and validation for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
// It is read-only once a Game has been constructed from it.
type Config struct {
	World       WorldConfig       `yaml:"world"`
	Plant       PlantConfig       `yaml:"plant"`
	Prey        PreyConfig        `yaml:"prey"`
	Predator    PredatorConfig    `yaml:"predator"`
	Interaction InteractionConfig `yaml:"interaction"`
	Zones       ZonesConfig       `yaml:"zones"`
	Environment EnvironmentConfig `yaml:"environment"`
	Population  PopulationConfig  `yaml:"population"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
}

// WorldConfig holds world extents and pacing.
type WorldConfig struct {
	Width          float64 `yaml:"width"            env:"WORLD_WIDTH"`
	Height         float64 `yaml:"height"           env:"WORLD_HEIGHT"`
	TickIntervalMS int     `yaml:"tick_interval_ms" env:"TICK_INTERVAL_MS"` // wall-clock pacing only
}

// PlantConfig holds grass parameters.
type PlantConfig struct {
	MaxHealth     float64 `yaml:"max_health"`
	InitialHealth float64 `yaml:"initial_health"`
	RegrowTime    int     `yaml:"regrow_time"` // ticks a dormant plant waits before regrowing
}

// AnimalConfig holds the parameters shared by prey and predators.
type AnimalConfig struct {
	SpeedMin           float64 `yaml:"speed_min"`
	SpeedMax           float64 `yaml:"speed_max"`
	MaxEnergy          float64 `yaml:"max_energy"`
	InitialEnergyMin   float64 `yaml:"initial_energy_min"`
	InitialEnergyMax   float64 `yaml:"initial_energy_max"`
	EnergyCost         float64 `yaml:"energy_cost"` // per tick
	SearchRange        float64 `yaml:"search_range"`
	GainFromFood       float64 `yaml:"gain_from_food"`
	ReproduceThreshold float64 `yaml:"reproduce_threshold"`
	ReproduceProb      float64 `yaml:"reproduce_prob"`
	SpawnOffset        float64 `yaml:"spawn_offset"`
}

// PreyConfig holds sheep parameters.
type PreyConfig struct {
	AnimalConfig   `yaml:",inline"`
	FearRange      float64 `yaml:"fear_range"`
	FleeMultiplier float64 `yaml:"flee_multiplier"`
	EatRange       float64 `yaml:"eat_range"`
	GrazeAmount    float64 `yaml:"graze_amount"`
}

// PredatorConfig holds wolf parameters.
type PredatorConfig struct {
	AnimalConfig `yaml:",inline"`
	AttackRange  float64 `yaml:"attack_range"`
}

// InteractionConfig holds the pairwise resolution parameters.
type InteractionConfig struct {
	PredationRange       float64 `yaml:"predation_range"`
	PreyPlantRange       float64 `yaml:"prey_plant_range"`
	GrazeDamage          float64 `yaml:"graze_damage"`
	GrazeGain            float64 `yaml:"graze_gain"`
	PlantRegrowthChance  float64 `yaml:"plant_regrowth_chance"`
	PartialRegrowth      float64 `yaml:"partial_regrowth"`
	BirthEnergyThreshold float64 `yaml:"birth_energy_threshold"`
	BirthProb            float64 `yaml:"birth_prob"`
	BirthOffset          float64 `yaml:"birth_offset"`
}

// ZonesConfig holds human impact zone coefficients.
// Each delta is coefficient × intensity per tick.
type ZonesConfig struct {
	DefaultRadius      float64 `yaml:"default_radius"`
	Intensity          float64 `yaml:"intensity"`
	PollutionPlant     float64 `yaml:"pollution_plant"`
	PollutionAnimal    float64 `yaml:"pollution_animal"`
	DeforestationPlant float64 `yaml:"deforestation_plant"`
	ConservationPlant  float64 `yaml:"conservation_plant"`
	ConservationAnimal float64 `yaml:"conservation_animal"`
}

// EnvironmentConfig holds temperature bands and weather parameters.
type EnvironmentConfig struct {
	InitialTemperature float64 `yaml:"initial_temperature" env:"TEMPERATURE"`
	InitialWeather     string  `yaml:"initial_weather"     env:"WEATHER"` // sunny, rainy, storm, snow or auto
	MinTemperature     float64 `yaml:"min_temperature"`
	MaxTemperature     float64 `yaml:"max_temperature"`

	FreezeBelow float64 `yaml:"freeze_below"`
	ChillyBelow float64 `yaml:"chilly_below"`
	HotFrom     float64 `yaml:"hot_from"`

	Deltas BandDeltas `yaml:"deltas"`

	RainPlantBonus float64 `yaml:"rain_plant_bonus"`
	RainSpawnProb  float64 `yaml:"rain_spawn_prob"`
}

// BandDeltas holds the per-tick delta for each temperature band.
type BandDeltas struct {
	Freeze Delta `yaml:"freeze"`
	Chilly Delta `yaml:"chilly"`
	Ideal  Delta `yaml:"ideal"`
	Hot    Delta `yaml:"hot"`
}

// Delta is a per-tick change to plant health and animal energy.
type Delta struct {
	Plant  float64 `yaml:"plant"`
	Animal float64 `yaml:"animal"`
}

// PopulationConfig holds initial seeding counts used by the CLI.
type PopulationConfig struct {
	InitialPredators int `yaml:"initial_predators" env:"INITIAL_PREDATORS"`
	InitialPrey      int `yaml:"initial_prey"      env:"INITIAL_PREY"`
	InitialPlants    int `yaml:"initial_plants"    env:"INITIAL_PLANTS"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow int `yaml:"stats_window"` // ticks per stats window
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. Environment overrides
// are applied last and the merged result is validated.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := checkSchema(data); err != nil {
			return nil, err
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := c.EncodeYAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// EncodeYAML returns the configuration encoded as a YAML document.
func (c *Config) EncodeYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}
