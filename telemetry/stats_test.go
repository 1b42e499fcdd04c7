package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/meadow/components"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   Summary
	}{
		{"empty slice", nil, Summary{}},
		{"single element", []float64{5}, Summary{Mean: 5, P10: 5, P50: 5, P90: 5}},
		{
			"one to ten unsorted",
			[]float64{10, 3, 1, 7, 5, 2, 9, 4, 8, 6},
			Summary{Mean: 5.5, Std: math.Sqrt(55.0 / 6.0), P10: 1, P50: 5, P90: 9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.values)
			check := func(field string, got, want float64) {
				if math.Abs(got-want) > 1e-9 {
					t.Errorf("%s = %v, want %v", field, got, want)
				}
			}
			check("mean", got.Mean, tt.want.Mean)
			check("std", got.Std, tt.want.Std)
			check("p10", got.P10, tt.want.P10)
			check("p50", got.P50, tt.want.P50)
			check("p90", got.P90, tt.want.P90)
		})
	}
}

func TestSummarizeDoesNotReorderInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Summarize(values)
	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Errorf("input reordered: %v", values)
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(10)

	if c.ShouldFlush(9) {
		t.Error("ShouldFlush(9) = true with a 10 tick window")
	}
	if !c.ShouldFlush(10) {
		t.Error("ShouldFlush(10) = false with a 10 tick window")
	}

	c.RecordBirth(components.KindPrey)
	c.RecordBirth(components.KindPrey)
	c.RecordBirth(components.KindPredator)
	c.RecordBirth(components.KindPlant) // ignored
	c.RecordStarvation(components.KindPredator)
	c.RecordKill()
	c.RecordGraze(true)
	c.RecordGraze(false)
	c.RecordRainPlant()

	stats := c.Flush(10, WindowSample{
		Counts:      Counts{Predators: 2, Prey: 5, Plants: 30},
		Temperature: -3,
		Weather:     "snow",
		PreyEnergy:  []float64{40, 60},
	})

	if stats.WindowStartTick != 0 || stats.WindowEndTick != 10 {
		t.Errorf("window = [%d, %d], want [0, 10]", stats.WindowStartTick, stats.WindowEndTick)
	}
	if stats.PreyBirths != 2 || stats.PredBirths != 1 || stats.PredStarved != 1 {
		t.Errorf("births/deaths = %d/%d/%d", stats.PreyBirths, stats.PredBirths, stats.PredStarved)
	}
	if stats.Kills != 1 || stats.Grazes != 2 || stats.Regrowths != 1 || stats.RainPlants != 1 {
		t.Errorf("events = kills %d grazes %d regrowths %d rain %d", stats.Kills, stats.Grazes, stats.Regrowths, stats.RainPlants)
	}
	if stats.Prey != 5 || stats.Plants != 30 || stats.Weather != "snow" {
		t.Errorf("sample not copied: %+v", stats)
	}
	if stats.PreyEnergyMean != 50 {
		t.Errorf("prey energy mean = %v, want 50", stats.PreyEnergyMean)
	}

	if c.ShouldFlush(19) || !c.ShouldFlush(20) {
		t.Error("window did not advance after flush")
	}
	next := c.Flush(20, WindowSample{})
	if next.Kills != 0 || next.PreyBirths != 0 || next.WindowStartTick != 10 {
		t.Errorf("counters not reset: %+v", next)
	}
}
