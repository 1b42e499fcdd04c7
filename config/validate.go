package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ValidationError reports one invalid configuration value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Field, e.Reason)
}

// WeatherAuto selects the weather from the temperature instead of a fixed value.
const WeatherAuto = "auto"

var knownWeather = map[string]bool{
	"sunny":     true,
	"rainy":     true,
	"storm":     true,
	"snow":      true,
	WeatherAuto: true,
}

// validator accumulates validation failures.
type validator struct {
	errs []error
}

func (v *validator) fail(field, format string, args ...any) {
	v.errs = append(v.errs, &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)})
}

func (v *validator) finite(field string, x float64) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		v.fail(field, "must be finite, got %v", x)
	}
}

func (v *validator) positive(field string, x float64) {
	if !(x > 0) || math.IsInf(x, 1) {
		v.fail(field, "must be finite and > 0, got %v", x)
	}
}

func (v *validator) nonNegative(field string, x float64) {
	if !(x >= 0) || math.IsInf(x, 1) {
		v.fail(field, "must be finite and >= 0, got %v", x)
	}
}

func (v *validator) probability(field string, p float64) {
	if !(p >= 0 && p <= 1) {
		v.fail(field, "must be a probability in [0,1], got %v", p)
	}
}

// Validate checks the configuration for values that would make a run
// meaningless. All failures are returned together as *ValidationError values
// joined with errors.Join.
func (c *Config) Validate() error {
	v := &validator{}

	v.positive("world.width", c.World.Width)
	v.positive("world.height", c.World.Height)
	if c.World.TickIntervalMS <= 0 {
		v.fail("world.tick_interval_ms", "must be > 0, got %d", c.World.TickIntervalMS)
	}

	v.positive("plant.max_health", c.Plant.MaxHealth)
	if c.Plant.InitialHealth < 0 || c.Plant.InitialHealth > c.Plant.MaxHealth {
		v.fail("plant.initial_health", "must be within [0, max_health], got %v", c.Plant.InitialHealth)
	}
	if c.Plant.RegrowTime < 0 {
		v.fail("plant.regrow_time", "must be >= 0, got %d", c.Plant.RegrowTime)
	}

	c.Prey.AnimalConfig.validate(v, "prey")
	v.nonNegative("prey.fear_range", c.Prey.FearRange)
	v.positive("prey.flee_multiplier", c.Prey.FleeMultiplier)
	v.nonNegative("prey.eat_range", c.Prey.EatRange)
	v.nonNegative("prey.graze_amount", c.Prey.GrazeAmount)

	c.Predator.AnimalConfig.validate(v, "predator")
	v.nonNegative("predator.attack_range", c.Predator.AttackRange)

	in := c.Interaction
	v.nonNegative("interaction.predation_range", in.PredationRange)
	v.nonNegative("interaction.prey_plant_range", in.PreyPlantRange)
	v.nonNegative("interaction.graze_damage", in.GrazeDamage)
	v.nonNegative("interaction.graze_gain", in.GrazeGain)
	v.probability("interaction.plant_regrowth_chance", in.PlantRegrowthChance)
	if in.PartialRegrowth < 0 || in.PartialRegrowth > c.Plant.MaxHealth {
		v.fail("interaction.partial_regrowth", "must be within [0, plant.max_health], got %v", in.PartialRegrowth)
	}
	v.nonNegative("interaction.birth_energy_threshold", in.BirthEnergyThreshold)
	v.probability("interaction.birth_prob", in.BirthProb)
	v.nonNegative("interaction.birth_offset", in.BirthOffset)

	z := c.Zones
	v.positive("zones.default_radius", z.DefaultRadius)
	v.nonNegative("zones.intensity", z.Intensity)
	v.nonNegative("zones.pollution_plant", z.PollutionPlant)
	v.nonNegative("zones.pollution_animal", z.PollutionAnimal)
	v.nonNegative("zones.deforestation_plant", z.DeforestationPlant)
	v.nonNegative("zones.conservation_plant", z.ConservationPlant)
	v.nonNegative("zones.conservation_animal", z.ConservationAnimal)
	if z.PollutionAnimal <= z.PollutionPlant {
		v.fail("zones.pollution_animal", "must exceed pollution_plant (%v), got %v", z.PollutionPlant, z.PollutionAnimal)
	}
	if z.ConservationAnimal <= z.ConservationPlant {
		v.fail("zones.conservation_animal", "must exceed conservation_plant (%v), got %v", z.ConservationPlant, z.ConservationAnimal)
	}

	env := c.Environment
	v.finite("environment.initial_temperature", env.InitialTemperature)
	v.finite("environment.min_temperature", env.MinTemperature)
	v.finite("environment.max_temperature", env.MaxTemperature)
	v.finite("environment.freeze_below", env.FreezeBelow)
	v.finite("environment.chilly_below", env.ChillyBelow)
	v.finite("environment.hot_from", env.HotFrom)
	if env.MinTemperature >= env.MaxTemperature {
		v.fail("environment.min_temperature", "must be below max_temperature (%v), got %v", env.MaxTemperature, env.MinTemperature)
	}
	if !(env.FreezeBelow < env.ChillyBelow && env.ChillyBelow < env.HotFrom) {
		v.fail("environment.freeze_below", "thresholds must be strictly increasing: freeze_below %v < chilly_below %v < hot_from %v",
			env.FreezeBelow, env.ChillyBelow, env.HotFrom)
	}
	if !knownWeather[strings.ToLower(env.InitialWeather)] {
		v.fail("environment.initial_weather", "unknown weather %q", env.InitialWeather)
	}
	v.nonNegative("environment.rain_plant_bonus", env.RainPlantBonus)
	v.probability("environment.rain_spawn_prob", env.RainSpawnProb)

	p := c.Population
	if p.InitialPredators < 0 || p.InitialPrey < 0 || p.InitialPlants < 0 {
		v.fail("population", "initial counts must be >= 0")
	}

	if c.Telemetry.StatsWindow <= 0 {
		v.fail("telemetry.stats_window", "must be > 0, got %d", c.Telemetry.StatsWindow)
	}

	return errors.Join(v.errs...)
}

func (a AnimalConfig) validate(v *validator, prefix string) {
	v.nonNegative(prefix+".speed_min", a.SpeedMin)
	v.finite(prefix+".speed_max", a.SpeedMax)
	if a.SpeedMax < a.SpeedMin {
		v.fail(prefix+".speed_max", "must be >= speed_min (%v), got %v", a.SpeedMin, a.SpeedMax)
	}
	v.positive(prefix+".max_energy", a.MaxEnergy)
	if a.InitialEnergyMin < 0 || a.InitialEnergyMin > a.InitialEnergyMax || a.InitialEnergyMax > a.MaxEnergy {
		v.fail(prefix+".initial_energy_min", "initial energy band [%v, %v] must lie within [0, max_energy]",
			a.InitialEnergyMin, a.InitialEnergyMax)
	}
	v.nonNegative(prefix+".energy_cost", a.EnergyCost)
	v.nonNegative(prefix+".search_range", a.SearchRange)
	v.nonNegative(prefix+".gain_from_food", a.GainFromFood)
	v.nonNegative(prefix+".reproduce_threshold", a.ReproduceThreshold)
	v.probability(prefix+".reproduce_prob", a.ReproduceProb)
	v.nonNegative(prefix+".spawn_offset", a.SpawnOffset)
}
