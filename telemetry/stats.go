package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a tick window.
type WindowStats struct {
	WindowStartTick int `csv:"-"`
	WindowEndTick   int `csv:"window_end"`

	// Population counts at window end
	Predators int `csv:"predators"`
	Prey      int `csv:"prey"`
	Plants    int `csv:"plants"`

	// Events during window
	PreyBirths  int `csv:"prey_births"`
	PredBirths  int `csv:"pred_births"`
	PreyStarved int `csv:"prey_starved"`
	PredStarved int `csv:"pred_starved"`
	Kills       int `csv:"kills"`
	Grazes      int `csv:"grazes"`
	Regrowths   int `csv:"regrowths"`
	RainPlants  int `csv:"rain_plants"`

	// Environment at window end
	Temperature float64 `csv:"temperature"`
	Weather     string  `csv:"weather"`
	Zones       int     `csv:"zones"`

	// Energy distribution (sampled at window end)
	PreyEnergyMean float64 `csv:"prey_energy_mean"`
	PreyEnergyStd  float64 `csv:"prey_energy_std"`
	PreyEnergyP10  float64 `csv:"prey_energy_p10"`
	PreyEnergyP50  float64 `csv:"prey_energy_p50"`
	PreyEnergyP90  float64 `csv:"prey_energy_p90"`

	PredEnergyMean float64 `csv:"pred_energy_mean"`
	PredEnergyStd  float64 `csv:"pred_energy_std"`
	PredEnergyP10  float64 `csv:"pred_energy_p10"`
	PredEnergyP50  float64 `csv:"pred_energy_p50"`
	PredEnergyP90  float64 `csv:"pred_energy_p90"`

	PlantHealthMean float64 `csv:"plant_health_mean"`
	PlantHealthP50  float64 `csv:"plant_health_p50"`
}

// Summary describes a distribution.
type Summary struct {
	Mean float64
	Std  float64
	P10  float64
	P50  float64
	P90  float64
}

// Summarize computes mean, sample standard deviation and empirical
// percentiles. An empty input yields the zero Summary; a single value has
// a standard deviation of 0.
func Summarize(values []float64) Summary {
	n := len(values)
	if n == 0 {
		return Summary{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var s Summary
	if n < 2 {
		s.Mean = sorted[0]
	} else {
		s.Mean, s.Std = stat.MeanStdDev(sorted, nil)
	}
	s.P10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	s.P50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	s.P90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return s
}

func (s *WindowStats) setPreyEnergy(sum Summary) {
	s.PreyEnergyMean, s.PreyEnergyStd = sum.Mean, sum.Std
	s.PreyEnergyP10, s.PreyEnergyP50, s.PreyEnergyP90 = sum.P10, sum.P50, sum.P90
}

func (s *WindowStats) setPredEnergy(sum Summary) {
	s.PredEnergyMean, s.PredEnergyStd = sum.Mean, sum.Std
	s.PredEnergyP10, s.PredEnergyP50, s.PredEnergyP90 = sum.P10, sum.P50, sum.P90
}

func (s *WindowStats) setPlantHealth(sum Summary) {
	s.PlantHealthMean, s.PlantHealthP50 = sum.Mean, sum.P50
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartTick),
		slog.Int("window_end", s.WindowEndTick),
		slog.Int("predators", s.Predators),
		slog.Int("prey", s.Prey),
		slog.Int("plants", s.Plants),
		slog.Int("prey_births", s.PreyBirths),
		slog.Int("pred_births", s.PredBirths),
		slog.Int("prey_starved", s.PreyStarved),
		slog.Int("pred_starved", s.PredStarved),
		slog.Int("kills", s.Kills),
		slog.Int("grazes", s.Grazes),
		slog.Int("regrowths", s.Regrowths),
		slog.Int("rain_plants", s.RainPlants),
		slog.Float64("temperature", s.Temperature),
		slog.String("weather", s.Weather),
		slog.Int("zones", s.Zones),
		slog.Float64("prey_energy_mean", s.PreyEnergyMean),
		slog.Float64("prey_energy_p50", s.PreyEnergyP50),
		slog.Float64("pred_energy_mean", s.PredEnergyMean),
		slog.Float64("pred_energy_p50", s.PredEnergyP50),
		slog.Float64("plant_health_mean", s.PlantHealthMean),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
