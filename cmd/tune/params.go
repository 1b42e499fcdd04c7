package main

import (
	"math"

	"github.com/pthm-cable/meadow/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of tunable parameters.
// Defaults match defaults.yaml.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Prey
			{Name: "prey_energy_cost", Path: "prey.energy_cost", Min: 0.2, Max: 2.0, Default: 1.0},
			{Name: "prey_gain_from_food", Path: "prey.gain_from_food", Min: 1, Max: 20, Default: 4},
			{Name: "prey_reproduce_prob", Path: "prey.reproduce_prob", Min: 0.005, Max: 0.1, Default: 0.04},
			{Name: "prey_fear_range", Path: "prey.fear_range", Min: 20, Max: 150, Default: 60},
			// Predator
			{Name: "pred_energy_cost", Path: "predator.energy_cost", Min: 0.2, Max: 3.0, Default: 1.5},
			{Name: "pred_gain_from_food", Path: "predator.gain_from_food", Min: 5, Max: 60, Default: 20},
			{Name: "pred_reproduce_prob", Path: "predator.reproduce_prob", Min: 0.005, Max: 0.1, Default: 0.05},
			{Name: "pred_search_range", Path: "predator.search_range", Min: 60, Max: 400, Default: 250},
			// Interaction
			{Name: "predation_range", Path: "interaction.predation_range", Min: 5, Max: 80, Default: 50},
			{Name: "graze_damage", Path: "interaction.graze_damage", Min: 5, Max: 60, Default: 20},
			{Name: "birth_prob", Path: "interaction.birth_prob", Min: 0, Max: 0.1, Default: 0.03},
			// Plants
			{Name: "regrow_time", Path: "plant.regrow_time", Min: 5, Max: 120, Default: 30},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)
	i := 0
	next := func() float64 {
		v := c[i]
		i++
		return v
	}

	cfg.Prey.EnergyCost = next()
	cfg.Prey.GainFromFood = next()
	cfg.Prey.ReproduceProb = next()
	cfg.Prey.FearRange = next()

	cfg.Predator.EnergyCost = next()
	cfg.Predator.GainFromFood = next()
	cfg.Predator.ReproduceProb = next()
	cfg.Predator.SearchRange = next()

	cfg.Interaction.PredationRange = next()
	cfg.Interaction.GrazeDamage = next()
	cfg.Interaction.BirthProb = next()

	cfg.Plant.RegrowTime = int(math.Round(next()))
}
