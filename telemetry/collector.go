package telemetry

import "github.com/pthm-cable/meadow/components"

// Collector accumulates events within tick windows and produces WindowStats.
type Collector struct {
	windowTicks int

	// Current window tracking
	windowStart int

	// Event counters for current window
	preyBirths  int
	predBirths  int
	preyStarved int
	predStarved int
	kills       int
	grazes      int
	regrowths   int
	rainPlants  int
}

// NewCollector creates a collector that flushes every windowTicks ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowTicks: windowTicks}
}

// RecordBirth records an animal birth.
func (c *Collector) RecordBirth(kind components.Kind) {
	switch kind {
	case components.KindPrey:
		c.preyBirths++
	case components.KindPredator:
		c.predBirths++
	}
}

// RecordStarvation records an animal removed for running out of energy.
func (c *Collector) RecordStarvation(kind components.Kind) {
	switch kind {
	case components.KindPrey:
		c.preyStarved++
	case components.KindPredator:
		c.predStarved++
	}
}

// RecordKill records a prey eaten by a predator.
func (c *Collector) RecordKill() {
	c.kills++
}

// RecordGraze records a prey feeding on a plant.
func (c *Collector) RecordGraze(regrew bool) {
	c.grazes++
	if regrew {
		c.regrowths++
	}
}

// RecordRainPlant records a plant spawned by rain.
func (c *Collector) RecordRainPlant() {
	c.rainPlants++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(tick int) bool {
	return tick-c.windowStart >= c.windowTicks
}

// WindowTicks returns the number of ticks per window.
func (c *Collector) WindowTicks() int {
	return c.windowTicks
}

// WindowSample is the state observed at the end of a window.
type WindowSample struct {
	Counts      Counts
	Temperature float64
	Weather     string
	Zones       int
	PreyEnergy  []float64
	PredEnergy  []float64
	PlantHealth []float64 // live plants only
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(tick int, s WindowSample) WindowStats {
	stats := WindowStats{
		WindowStartTick: c.windowStart,
		WindowEndTick:   tick,

		Predators: s.Counts.Predators,
		Prey:      s.Counts.Prey,
		Plants:    s.Counts.Plants,

		PreyBirths:  c.preyBirths,
		PredBirths:  c.predBirths,
		PreyStarved: c.preyStarved,
		PredStarved: c.predStarved,
		Kills:       c.kills,
		Grazes:      c.grazes,
		Regrowths:   c.regrowths,
		RainPlants:  c.rainPlants,

		Temperature: s.Temperature,
		Weather:     s.Weather,
		Zones:       s.Zones,
	}
	stats.setPreyEnergy(Summarize(s.PreyEnergy))
	stats.setPredEnergy(Summarize(s.PredEnergy))
	stats.setPlantHealth(Summarize(s.PlantHealth))

	c.windowStart = tick
	c.resetCounters()
	return stats
}

// Reset starts a fresh window at tick 0.
func (c *Collector) Reset() {
	c.ResetAt(0)
}

// ResetAt starts a fresh window at tick.
func (c *Collector) ResetAt(tick int) {
	c.windowStart = tick
	c.resetCounters()
}

func (c *Collector) resetCounters() {
	c.preyBirths = 0
	c.predBirths = 0
	c.preyStarved = 0
	c.predStarved = 0
	c.kills = 0
	c.grazes = 0
	c.regrowths = 0
	c.rainPlants = 0
}
