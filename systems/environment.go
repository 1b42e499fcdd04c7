package systems

import (
	"fmt"
	"math"
	"strings"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/config"
)

// Weather is the current sky condition.
type Weather uint8

const (
	WeatherSunny Weather = iota
	WeatherRainy
	WeatherStorm
	WeatherSnow
)

var weatherNames = [...]string{
	WeatherSunny: "sunny",
	WeatherRainy: "rainy",
	WeatherStorm: "storm",
	WeatherSnow:  "snow",
}

func (w Weather) String() string {
	if int(w) < len(weatherNames) {
		return weatherNames[w]
	}
	return fmt.Sprintf("weather(%d)", w)
}

// ParseWeather parses a weather name. "auto" is not a weather; callers
// handle it before parsing.
func ParseWeather(s string) (Weather, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range weatherNames {
		if n == name {
			return Weather(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weather %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (w Weather) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (w *Weather) UnmarshalText(b []byte) error {
	parsed, err := ParseWeather(string(b))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// WeatherForTemperature picks a plausible weather for a temperature.
func WeatherForTemperature(t float64) Weather {
	switch {
	case t < 0:
		return WeatherSnow
	case t < 10:
		return WeatherStorm
	case t < 20:
		return WeatherRainy
	default:
		return WeatherSunny
	}
}

// EffectZone is the temperature band that selects per-tick deltas.
type EffectZone uint8

const (
	ZoneFreeze EffectZone = iota
	ZoneChilly
	ZoneIdeal
	ZoneHot
)

func (z EffectZone) String() string {
	switch z {
	case ZoneFreeze:
		return "freeze"
	case ZoneChilly:
		return "chilly"
	case ZoneIdeal:
		return "ideal"
	case ZoneHot:
		return "hot"
	}
	return fmt.Sprintf("effect_zone(%d)", z)
}

// EffectZoneFor maps a temperature to its band. The thresholds are validated
// to be strictly increasing, so every temperature lands in exactly one band.
func EffectZoneFor(t float64, cfg config.EnvironmentConfig) EffectZone {
	switch {
	case t < cfg.FreezeBelow:
		return ZoneFreeze
	case t < cfg.ChillyBelow:
		return ZoneChilly
	case t < cfg.HotFrom:
		return ZoneIdeal
	default:
		return ZoneHot
	}
}

// Environment holds temperature and weather.
type Environment struct {
	cfg *config.Config

	temperature float64
	weather     Weather
	auto        bool // weather follows temperature
}

// NewEnvironment creates an environment at the configured initial values.
func NewEnvironment(cfg *config.Config) *Environment {
	e := &Environment{cfg: cfg}
	e.Reset()
	return e
}

// Reset restores the configured initial temperature and weather.
func (e *Environment) Reset() {
	env := e.cfg.Environment
	e.temperature = clampFloat(env.InitialTemperature, env.MinTemperature, env.MaxTemperature)
	e.auto = strings.EqualFold(env.InitialWeather, config.WeatherAuto)
	if e.auto {
		e.weather = WeatherForTemperature(e.temperature)
		return
	}
	w, err := ParseWeather(env.InitialWeather)
	if err != nil {
		w = WeatherSunny
	}
	e.weather = w
}

// Temperature returns the current temperature in °C.
func (e *Environment) Temperature() float64 { return e.temperature }

// Weather returns the current weather.
func (e *Environment) Weather() Weather { return e.weather }

// Auto reports whether the weather follows the temperature.
func (e *Environment) Auto() bool { return e.auto }

// Zone returns the current temperature band.
func (e *Environment) Zone() EffectZone {
	return EffectZoneFor(e.temperature, e.cfg.Environment)
}

// Raining reports whether rain bonuses and rain spawning apply.
func (e *Environment) Raining() bool { return e.weather == WeatherRainy }

// SetTemperature clamps and stores the temperature, returning the applied
// value. NaN keeps the current temperature. In auto mode the weather is
// re-derived.
func (e *Environment) SetTemperature(t float64) float64 {
	if math.IsNaN(t) {
		return e.temperature
	}
	env := e.cfg.Environment
	e.temperature = clampFloat(t, env.MinTemperature, env.MaxTemperature)
	if e.auto {
		e.weather = WeatherForTemperature(e.temperature)
	}
	return e.temperature
}

// SetWeather fixes the weather and leaves auto mode.
func (e *Environment) SetWeather(w Weather) {
	e.weather = w
	e.auto = false
}

// SetAuto switches to temperature-driven weather.
func (e *Environment) SetAuto() {
	e.auto = true
	e.weather = WeatherForTemperature(e.temperature)
}

// Restore sets state from a snapshot without clamping side effects.
func (e *Environment) Restore(t float64, w Weather, auto bool) {
	e.temperature = t
	e.weather = w
	e.auto = auto
}

// Delta returns the per-tick delta of the current band.
func (e *Environment) Delta() config.Delta {
	d := e.cfg.Environment.Deltas
	switch e.Zone() {
	case ZoneFreeze:
		return d.Freeze
	case ZoneChilly:
		return d.Chilly
	case ZoneHot:
		return d.Hot
	default:
		return d.Ideal
	}
}

// Apply applies the band delta (and the rain bonus for plants) to one
// entity. Dormant plants are left alone; they change only by regrowing.
func (e *Environment) Apply(body *components.Body, v *components.Vitals) {
	delta := e.Delta()
	if body.Kind == components.KindPlant {
		if v.Dormant() {
			return
		}
		h := v.Health + delta.Plant
		if e.Raining() {
			h += e.cfg.Environment.RainPlantBonus
		}
		v.Health = clampFloat(h, 0, e.cfg.Plant.MaxHealth)
		return
	}
	v.Energy = clampFloat(v.Energy+delta.Animal, 0, maxEnergy(e.cfg, body.Kind))
}

// maxEnergy returns the energy cap for an animal kind.
func maxEnergy(cfg *config.Config, k components.Kind) float64 {
	if k == components.KindPredator {
		return cfg.Predator.MaxEnergy
	}
	return cfg.Prey.MaxEnergy
}
