package game

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/systems"
	"github.com/pthm-cable/meadow/telemetry"
)

// Step advances the world by one tick if the game is Running and reports
// whether a tick happened. Ticks never fail; all arithmetic clamps.
func (g *Game) Step() bool {
	if g.state != StateRunning {
		return false
	}

	g.perf.StartTick()
	g.tick++
	g.loadField()
	agents := g.field.Agents
	var spawns []systems.Spawn

	// 1. Environment
	g.perf.StartPhase(telemetry.PhaseEnvironment)
	for i := range agents {
		a := &agents[i]
		*a.Effects = 0
		if a.Acting() {
			g.env.Apply(a.Body, a.Vitals)
		}
	}

	// 2. Rain may grow a new plant
	if g.env.Raining() && g.rng.Float64() < g.cfg.Environment.RainSpawnProb {
		x, y := g.randomPosition()
		spawns = append(spawns, systems.Spawn{Kind: components.KindPlant, X: x, Y: y})
		g.collector.RecordRainPlant()
		g.post(msgRainPlant)
	}

	// 3. Behaviour, in insertion order
	g.perf.StartPhase(telemetry.PhaseBehavior)
	for i := range agents {
		if !agents[i].Acting() {
			continue
		}
		act := systems.Step(g.cfg, g.field, i, g.rng)
		g.field.Apply(i, act)

		switch act.Outcome {
		case systems.OutcomeAte:
			g.collector.RecordKill()
			g.post(msgKill)
		case systems.OutcomeGrazed:
			g.collector.RecordGraze(false)
			g.post(msgGraze)
		}
		if act.Birth != nil {
			spawns = append(spawns, *act.Birth)
		}
	}

	// 4. Zones, in placement order
	g.perf.StartPhase(telemetry.PhaseZones)
	for _, z := range g.zones {
		for i := range agents {
			a := &agents[i]
			if a.Acting() {
				z.Affect(g.cfg, a.Pos, a.Body, a.Vitals, a.Effects)
			}
		}
	}

	// 5. Pairwise interactions
	g.perf.StartPhase(telemetry.PhaseInteractions)
	for _, ev := range systems.ResolvePairs(g.cfg, g.field, g.env.Raining(), g.rng) {
		switch ev.Kind {
		case systems.EventKill:
			g.collector.RecordKill()
			g.post(msgKill)
		case systems.EventGraze:
			g.collector.RecordGraze(ev.Regrew)
			if ev.Regrew {
				g.post(msgRegrow)
			}
		case systems.EventBirth:
			spawns = append(spawns, *ev.Spawn)
		}
	}

	// 6. Remove the dead, then append newborns in queue order
	g.perf.StartPhase(telemetry.PhaseCleanup)
	g.removeDead()
	for _, s := range spawns {
		g.spawn(s)
		switch s.Kind {
		case components.KindPrey:
			g.collector.RecordBirth(s.Kind)
			g.post(msgPreyBorn)
		case components.KindPredator:
			g.collector.RecordBirth(s.Kind)
			g.post(msgPredatorBorn)
		}
	}

	// 7. Record
	g.perf.StartPhase(telemetry.PhaseTelemetry)
	g.recount()
	sample := telemetry.NewSample(g.tick, g.counts)
	g.history.Append(sample)
	if err := g.outputManager.WriteSamples([]telemetry.Sample{sample}); err != nil {
		g.logger.Error("failed to write history", "error", err)
	}

	// 8. Termination and warnings
	g.evaluate()

	g.flushTelemetry()
	g.perf.EndTick()

	report := g.report()
	for _, fn := range g.onTick {
		fn(report)
	}
	return true
}

// loadField points the behaviour field at the current entities.
func (g *Game) loadField() {
	agents := make([]systems.Agent, len(g.order))
	for i, e := range g.order {
		pos, body, vit, fx := g.mapper.Get(e)
		agents[i] = systems.Agent{Entity: e, Pos: pos, Body: body, Vitals: vit, Effects: fx}
	}
	g.field.Reset(agents)
}

// removeDead drops eaten and starved animals from the world and the order.
// Plants are never removed.
func (g *Game) removeDead() {
	kept := g.order[:0]
	var dead []ecs.Entity
	for i := range g.field.Agents {
		a := &g.field.Agents[i]
		if a.Body.Kind.IsAnimal() && (a.Removed || a.Vitals.Energy <= 0) {
			if !a.Removed {
				g.collector.RecordStarvation(a.Body.Kind)
			}
			dead = append(dead, a.Entity)
			continue
		}
		kept = append(kept, a.Entity)
	}
	g.order = kept

	// Component pointers held by the field are invalid after this.
	g.field.Reset(nil)
	for _, e := range dead {
		g.world.RemoveEntity(e)
	}
}

// evaluate applies the collapse rule and posts population warnings.
func (g *Game) evaluate() {
	c := g.counts
	switch {
	case c.Predators == 0 && c.Prey == 0:
		g.state = StateStopped
		g.post(msgCollapse)
		g.logger.Info("ecosystem_collapse", "tick", g.tick, "plants", c.Plants)
	case c.Prey == 0:
		g.post(msgStarvation)
	}
	if c.Plants == 0 && c.Prey > 0 {
		g.post(msgScarcity)
	}
}
