package systems

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/config"
)

// Agent is one entity as seen during a tick. The component pointers come
// from the ECS world and stay valid for the whole tick because structural
// changes (removals, newborns) are deferred to the end of the tick.
type Agent struct {
	Entity  ecs.Entity
	Pos     *components.Position
	Body    *components.Body
	Vitals  *components.Vitals
	Effects *components.Effects
	Removed bool // eaten this tick
}

// Acting reports whether the agent still takes part in the tick.
// Plants always do; animals stop once eaten or out of energy.
func (a *Agent) Acting() bool {
	if a.Removed {
		return false
	}
	return a.Body.Kind == components.KindPlant || a.Vitals.Energy > 0
}

// Spawn describes an entity to be appended at the end of the tick.
type Spawn struct {
	Kind   components.Kind
	X, Y   float64
	Energy float64 // used only when Inherit is set
	// Inherit is set when the newborn takes Energy from its parent instead
	// of drawing a fresh initial energy.
	Inherit bool
}

// Outcome is the side effect an action has on its target.
type Outcome uint8

const (
	OutcomeNone Outcome = iota
	OutcomeGrazed
	OutcomeAte
)

// Action is what one behaviour decided for one agent during step.
// Behaviours never mutate the field; the engine applies the action.
type Action struct {
	Pos    components.Position
	Vitals components.Vitals

	Outcome      Outcome
	Target       int     // agent index, -1 when Outcome is OutcomeNone
	TargetHealth float64 // new plant health when Outcome is OutcomeGrazed

	Birth *Spawn
}

// Field is the shared view behaviours search. Agents are in insertion order.
type Field struct {
	Agents []Agent
	Grid   *SpatialGrid
	Width  float64
	Height float64
}

// NewField creates a field with a spatial grid sized for the world.
func NewField(width, height, cellSize float64) *Field {
	return &Field{
		Grid:   NewSpatialGrid(width, height, cellSize),
		Width:  width,
		Height: height,
	}
}

// Reset replaces the agents and rebuilds the spatial index.
func (f *Field) Reset(agents []Agent) {
	f.Agents = agents
	f.Grid.Clear()
	for i := range f.Agents {
		f.Grid.Insert(i, f.Agents[i].Pos.X, f.Agents[i].Pos.Y)
	}
}

// Nearest returns the closest agent within radius matching match, or -1.
// Ties go to the earliest agent in insertion order.
func (f *Field) Nearest(x, y, radius float64, match func(*Agent) bool) int {
	return f.Grid.Nearest(x, y, radius,
		func(i int) bool { return match(&f.Agents[i]) },
		func(i int) (float64, float64) { return f.Agents[i].Pos.X, f.Agents[i].Pos.Y },
	)
}

// Clamp keeps a position inside the world bounds.
func (f *Field) Clamp(x, y float64) (float64, float64) {
	return clampFloat(x, 0, f.Width), clampFloat(y, 0, f.Height)
}

// Apply commits an action for agent i.
func (f *Field) Apply(i int, act Action) {
	a := &f.Agents[i]
	if *a.Pos != act.Pos {
		f.Grid.Move(i, a.Pos.X, a.Pos.Y, act.Pos.X, act.Pos.Y)
		*a.Pos = act.Pos
	}
	*a.Vitals = act.Vitals

	switch act.Outcome {
	case OutcomeAte:
		t := &f.Agents[act.Target]
		t.Removed = true
		f.Grid.Remove(act.Target, t.Pos.X, t.Pos.Y)
	case OutcomeGrazed:
		f.Agents[act.Target].Vitals.Health = act.TargetHealth
	}
}

func isLivePredator(a *Agent) bool {
	return a.Body.Kind == components.KindPredator && a.Acting()
}

func isLivePrey(a *Agent) bool {
	return a.Body.Kind == components.KindPrey && a.Acting()
}

func isLivePlant(a *Agent) bool {
	return a.Body.Kind == components.KindPlant && !a.Vitals.Dormant()
}

// Step runs the behaviour of agent i against the field and returns the
// resulting action. It draws from rng in a fixed order so runs are
// reproducible for a given seed.
func Step(cfg *config.Config, f *Field, i int, rng *rand.Rand) Action {
	a := &f.Agents[i]
	switch a.Body.Kind {
	case components.KindPrey:
		return stepPrey(cfg, f, a, rng)
	case components.KindPredator:
		return stepPredator(cfg, f, a, rng)
	default:
		return stepPlant(cfg, a)
	}
}

func stepPlant(cfg *config.Config, a *Agent) Action {
	act := Action{Pos: *a.Pos, Vitals: *a.Vitals, Target: -1}
	if !act.Vitals.Dormant() {
		return act
	}
	act.Vitals.RegrowthTimer++
	if act.Vitals.RegrowthTimer > cfg.Plant.RegrowTime {
		act.Vitals.Health = cfg.Plant.MaxHealth
		act.Vitals.RegrowthTimer = 0
	}
	return act
}

func stepPrey(cfg *config.Config, f *Field, a *Agent, rng *rand.Rand) Action {
	pc := cfg.Prey
	act := Action{Vitals: *a.Vitals, Target: -1}
	x, y := a.Pos.X, a.Pos.Y
	speed := a.Body.Speed

	target := -1
	if p := f.Nearest(x, y, pc.FearRange, isLivePredator); p >= 0 {
		pred := f.Agents[p].Pos
		x, y = stepToward(x, y, pred.X, pred.Y, -speed*pc.FleeMultiplier)
	} else if p := f.Nearest(x, y, pc.SearchRange, isLivePlant); p >= 0 {
		plant := f.Agents[p].Pos
		x, y = stepToward(x, y, plant.X, plant.Y, speed)
		target = p
	} else {
		x, y = wander(x, y, speed, rng)
	}
	x, y = f.Clamp(x, y)
	act.Pos = components.Position{X: x, Y: y}

	if target >= 0 {
		plant := &f.Agents[target]
		if distance(x, y, plant.Pos.X, plant.Pos.Y) <= pc.EatRange {
			act.Outcome = OutcomeGrazed
			act.Target = target
			act.TargetHealth = clampFloat(plant.Vitals.Health-pc.GrazeAmount, 0, cfg.Plant.MaxHealth)
			act.Vitals.Energy = clampFloat(act.Vitals.Energy+pc.GainFromFood, 0, pc.MaxEnergy)
		}
	}

	act.Birth = metabolize(&act, a.Body.Kind, pc.AnimalConfig, f, rng)
	return act
}

func stepPredator(cfg *config.Config, f *Field, a *Agent, rng *rand.Rand) Action {
	pc := cfg.Predator
	act := Action{Vitals: *a.Vitals, Target: -1}
	x, y := a.Pos.X, a.Pos.Y
	speed := a.Body.Speed

	target := f.Nearest(x, y, pc.SearchRange, isLivePrey)
	if target >= 0 {
		prey := f.Agents[target].Pos
		x, y = stepToward(x, y, prey.X, prey.Y, speed)
	} else {
		x, y = wander(x, y, speed, rng)
	}
	x, y = f.Clamp(x, y)
	act.Pos = components.Position{X: x, Y: y}

	if target >= 0 {
		prey := f.Agents[target].Pos
		if distance(x, y, prey.X, prey.Y) <= pc.AttackRange {
			act.Outcome = OutcomeAte
			act.Target = target
			act.Vitals.Energy = clampFloat(act.Vitals.Energy+pc.GainFromFood, 0, pc.MaxEnergy)
		}
	}

	act.Birth = metabolize(&act, a.Body.Kind, pc.AnimalConfig, f, rng)
	return act
}

// metabolize deducts the per-tick energy cost and rolls for reproduction.
// A newborn appears at a fixed offset and takes half the parent's energy.
func metabolize(act *Action, kind components.Kind, ac config.AnimalConfig, f *Field, rng *rand.Rand) *Spawn {
	act.Vitals.Energy = clampFloat(act.Vitals.Energy-ac.EnergyCost, 0, ac.MaxEnergy)

	if act.Vitals.Energy > ac.ReproduceThreshold && rng.Float64() < ac.ReproduceProb {
		half := act.Vitals.Energy / 2
		act.Vitals.Energy = half
		x, y := f.Clamp(act.Pos.X+ac.SpawnOffset, act.Pos.Y+ac.SpawnOffset)
		return &Spawn{Kind: kind, X: x, Y: y, Energy: half, Inherit: true}
	}
	return nil
}

func wander(x, y, speed float64, rng *rand.Rand) (float64, float64) {
	x += (rng.Float64() - 0.5) * speed
	y += (rng.Float64() - 0.5) * speed
	return x, y
}
