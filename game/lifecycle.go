package game

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/systems"
)

// Start moves an Idle or Stopped game to Running.
func (g *Game) Start() error {
	if g.state == StateRunning {
		g.post(msgAlreadyActive)
		return ErrAlreadyRunning
	}
	if len(g.order) == 0 {
		g.post(msgNeedEntities)
		return ErrNoEntities
	}

	g.state = StateRunning
	g.post(msgStarted)
	g.logger.Info("simulation_started",
		"tick", g.tick,
		"entities", len(g.order),
		"seed", g.seed,
	)
	return nil
}

// Stop moves a Running game to Stopped. It is a no-op otherwise.
func (g *Game) Stop() {
	if g.state != StateRunning {
		return
	}
	g.state = StateStopped
	g.post(msgStopped)
	g.logger.Info("simulation_stopped", "tick", g.tick)
}

// Reset returns the game to the Idle state of a freshly built game:
// no entities, zones or history, tick 0 and the configured environment.
// The RNG stream and pacing are kept.
func (g *Game) Reset() {
	g.initWorld()
	g.field.Reset(nil)
	g.zones = nil
	g.tick = 0
	g.state = StateIdle
	g.env.Reset()
	g.history.Reset()
	g.collector.Reset()
	g.bookmarks.Reset()
	g.feed.clear()

	g.post(msgReset)
	g.logger.Info("world_reset")
}

// AddEntities inserts count entities of kind at random positions.
func (g *Game) AddEntities(kind components.Kind, count int) error {
	if count < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidCount, count)
	}
	if count == 0 {
		return nil
	}

	for i := 0; i < count; i++ {
		x, y := g.randomPosition()
		g.spawn(systems.Spawn{Kind: kind, X: x, Y: y})
	}
	g.recount()

	noun := kind.Noun()
	if count == 1 {
		noun = kind.Singular()
	}
	g.postf("Added %d %s!", count, noun)
	return nil
}

// PlaceZone inserts a human impact zone. A non-positive radius is rejected.
func (g *Game) PlaceZone(kind components.ZoneKind, x, y, radius float64) error {
	z, err := systems.NewZone(kind, x, y, radius)
	if err != nil {
		return err
	}
	g.zones = append(g.zones, z)
	g.postf("Placed %s zone.", kind)
	return nil
}

// SetWeather fixes the weather.
func (g *Game) SetWeather(w systems.Weather) {
	g.env.SetWeather(w)
	g.postf("Weather changed to %s!", w)
}

// SetAutoWeather lets the weather follow the temperature.
func (g *Game) SetAutoWeather() {
	g.env.SetAuto()
	g.postf("Weather changed to %s!", g.env.Weather())
}

// SetTemperature sets the temperature, clamped to the configured range,
// and returns the value applied.
func (g *Game) SetTemperature(celsius float64) float64 {
	applied := g.env.SetTemperature(celsius)
	g.postf("Temperature set to %s°C", strconv.FormatFloat(applied, 'f', -1, 64))
	return applied
}

// SetSpeed sets the pacing in ticks per second. It does not affect the
// outcome of a tick.
func (g *Game) SetSpeed(ticksPerSecond float64) error {
	if !(ticksPerSecond > 0) || math.IsInf(ticksPerSecond, 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidSpeed, ticksPerSecond)
	}
	// Bounds are checked in float64 so the Duration conversion cannot
	// truncate to 0 or overflow.
	nanos := float64(time.Second) / ticksPerSecond
	if nanos < float64(MinTickInterval) || nanos > float64(MaxTickInterval) {
		return fmt.Errorf("%w: %v ticks/s is outside [%v, %v] per tick",
			ErrInvalidSpeed, ticksPerSecond, MinTickInterval, MaxTickInterval)
	}
	g.interval = time.Duration(nanos)
	g.postf("Simulation speed set to %s", strconv.FormatFloat(ticksPerSecond, 'f', -1, 64))
	return nil
}

func (g *Game) randomPosition() (float64, float64) {
	x := g.rng.Float64() * g.cfg.World.Width
	y := g.rng.Float64() * g.cfg.World.Height
	return x, y
}

// spawn creates one entity. Animals get a speed from their band and, unless
// the spawn inherits parent energy, a fresh initial energy draw.
func (g *Game) spawn(s systems.Spawn) ecs.Entity {
	pos := components.Position{X: s.X, Y: s.Y}
	body := components.Body{Kind: s.Kind}
	var vit components.Vitals
	var fx components.Effects

	switch s.Kind {
	case components.KindPlant:
		vit.Health = g.cfg.Plant.InitialHealth
	case components.KindPrey, components.KindPredator:
		ac := g.cfg.Prey.AnimalConfig
		if s.Kind == components.KindPredator {
			ac = g.cfg.Predator.AnimalConfig
		}
		body.Speed = ac.SpeedMin + g.rng.Float64()*(ac.SpeedMax-ac.SpeedMin)
		if s.Inherit {
			vit.Energy = s.Energy
		} else {
			vit.Energy = ac.InitialEnergyMin + g.rng.Float64()*(ac.InitialEnergyMax-ac.InitialEnergyMin)
		}
	}

	e := g.mapper.NewEntity(&pos, &body, &vit, &fx)
	g.order = append(g.order, e)
	return e
}

// place inserts an entity with exact state, bypassing random draws.
func (g *Game) place(pos components.Position, body components.Body, vit components.Vitals, fx components.Effects) ecs.Entity {
	e := g.mapper.NewEntity(&pos, &body, &vit, &fx)
	g.order = append(g.order, e)
	return e
}

// recount refreshes the population counts from the world.
func (g *Game) recount() {
	var c struct{ pred, prey, plants int }
	query := g.filter.Query()
	for query.Next() {
		body, vit := query.Get()
		switch body.Kind {
		case components.KindPredator:
			c.pred++
		case components.KindPrey:
			c.prey++
		case components.KindPlant:
			if !vit.Dormant() {
				c.plants++
			}
		}
	}
	g.counts.Predators, g.counts.Prey, g.counts.Plants = c.pred, c.prey, c.plants
}
