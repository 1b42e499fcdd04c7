package main

import (
	"io"
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/config"
	"github.com/pthm-cable/meadow/game"
	"github.com/pthm-cable/meadow/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int
	seeds      []int64
	baseConfig *config.Config
	logger     *slog.Logger

	mu          sync.Mutex
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		maxTicks:   maxTicks,
		seeds:      seeds,
		baseConfig: baseCfg,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalTicks int                     // ticks before prey or predators died out (or maxTicks)
	windowStats   []telemetry.WindowStats // collected via OnStats each window
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Configs that fail validation get the worst possible fitness of 0.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)
	if err := cfg.Validate(); err != nil {
		return 0
	}

	type seedResult struct {
		fitness float64
		quality float64
	}
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			r := fe.runSimulation(cfg, s)
			q := computeQuality(r.windowStats)
			results[idx] = seedResult{fitness: computeFitness(r.survivalTicks, q), quality: q}
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality float64
	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
	}
	n := float64(len(fe.seeds))

	fe.mu.Lock()
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return totalFitness / n
}

// runSimulation executes a single headless run until prey or predators
// are gone or maxTicks is reached. cfg is shared read-only between seeds.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) runResult {
	var result runResult

	g, err := game.New(cfg, game.Options{Seed: seed, Logger: fe.logger})
	if err != nil {
		return result
	}
	defer g.Close()
	g.OnStats(func(s telemetry.WindowStats) {
		result.windowStats = append(result.windowStats, s)
	})

	p := cfg.Population
	g.AddEntities(components.KindPlant, p.InitialPlants)
	g.AddEntities(components.KindPrey, p.InitialPrey)
	g.AddEntities(components.KindPredator, p.InitialPredators)
	if err := g.Start(); err != nil {
		return result
	}

	for g.Tick() < fe.maxTicks && g.Step() {
		if c := g.Counts(); c.Prey == 0 || c.Predators == 0 {
			break
		}
	}
	result.survivalTicks = g.Tick()
	return result
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(survivalTicks × (1.0 + 0.2 × quality))
// Survival dominates; quality separates configs with similar survival.
func computeFitness(survivalTicks int, quality float64) float64 {
	return -(float64(survivalTicks) * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightRatio     = 0.4
	qualityWeightStability = 0.3
	qualityWeightPlants    = 0.3

	qualityWarmupWindows = 1 // skip first N windows
	qualityMinPop        = 2 // exclude windows where either animal kind < this
	targetPreyPerPred    = 5.0
)

// computeQuality scores ecosystem quality in [0, 1] from window stats.
func computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}

	var ratioSum, plantSum float64
	var preyCounts, predCounts []float64
	for _, w := range windows[qualityWarmupWindows:] {
		if w.Prey < qualityMinPop || w.Predators < qualityMinPop {
			continue
		}
		preyCounts = append(preyCounts, float64(w.Prey))
		predCounts = append(predCounts, float64(w.Predators))

		logErr := math.Log(float64(w.Prey) / float64(w.Predators) / targetPreyPerPred)
		ratioSum += math.Exp(-logErr * logErr)

		// Plants neither wiped out nor untouched.
		cover := float64(w.Plants) / float64(w.Plants+w.Prey)
		plantSum += 1 - math.Abs(2*cover-1)
	}
	n := len(preyCounts)
	if n == 0 {
		return 0
	}

	stability := 0.0
	if n >= 2 {
		cvPrey, cvPred := cv(preyCounts), cv(predCounts)
		stability = math.Exp(-(cvPrey*cvPrey + cvPred*cvPred))
	}

	q := qualityWeightRatio*ratioSum/float64(n) +
		qualityWeightStability*stability +
		qualityWeightPlants*plantSum/float64(n)
	return min(max(q, 0), 1)
}

// cv computes the coefficient of variation (std/mean).
func cv(values []float64) float64 {
	mean, std := stat.MeanStdDev(values, nil)
	if mean == 0 {
		return 0
	}
	return std / mean
}
