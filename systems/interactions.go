package systems

import (
	"math/rand"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/config"
)

// EventKind classifies a pairwise interaction.
type EventKind uint8

const (
	EventKill EventKind = iota
	EventGraze
	EventBirth
)

// Event is one resolved interaction. Actor is the predator or grazing prey,
// Target the prey or plant. Regrew is set when a grazed-out plant came back
// at once. Spawn is set for births.
type Event struct {
	Kind   EventKind
	Actor  int
	Target int
	Regrew bool
	Spawn  *Spawn
}

// ResolvePairs scans every unordered pair (i, j), i < j, once in ascending
// order. Eaten prey are only flagged; indices never shift during the scan,
// and flagged agents are skipped for the rest of it.
func ResolvePairs(cfg *config.Config, f *Field, raining bool, rng *rand.Rand) []Event {
	var events []Event
	n := len(f.Agents)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := &f.Agents[i], &f.Agents[j]
			if a.Removed {
				break
			}
			if b.Removed {
				continue
			}
			events = interact(cfg, f, i, j, raining, rng, events)
		}
	}
	return events
}

func interact(cfg *config.Config, f *Field, i, j int, raining bool, rng *rand.Rand, events []Event) []Event {
	ka, kb := f.Agents[i].Body.Kind, f.Agents[j].Body.Kind

	switch {
	case ka == components.KindPredator && kb == components.KindPrey:
		return predation(cfg, f, i, j, events)
	case ka == components.KindPrey && kb == components.KindPredator:
		return predation(cfg, f, j, i, events)
	case ka == components.KindPrey && kb == components.KindPlant:
		return graze(cfg, f, i, j, raining, rng, events)
	case ka == components.KindPlant && kb == components.KindPrey:
		return graze(cfg, f, j, i, raining, rng, events)
	}
	return events
}

func predation(cfg *config.Config, f *Field, pred, prey int, events []Event) []Event {
	p, q := &f.Agents[pred], &f.Agents[prey]
	if p.Vitals.Energy <= 0 || q.Vitals.Energy <= 0 {
		return events
	}
	if distance(p.Pos.X, p.Pos.Y, q.Pos.X, q.Pos.Y) > cfg.Interaction.PredationRange {
		return events
	}

	pc := cfg.Predator
	p.Vitals.Energy = clampFloat(p.Vitals.Energy+pc.GainFromFood, 0, pc.MaxEnergy)
	q.Removed = true
	return append(events, Event{Kind: EventKill, Actor: pred, Target: prey})
}

func graze(cfg *config.Config, f *Field, prey, plant int, raining bool, rng *rand.Rand, events []Event) []Event {
	s, g := &f.Agents[prey], &f.Agents[plant]
	if s.Vitals.Energy <= 0 || g.Vitals.Dormant() {
		return events
	}
	if distance(s.Pos.X, s.Pos.Y, g.Pos.X, g.Pos.Y) > cfg.Interaction.PreyPlantRange {
		return events
	}

	in := cfg.Interaction
	g.Vitals.Health = clampFloat(g.Vitals.Health-in.GrazeDamage, 0, cfg.Plant.MaxHealth)
	s.Vitals.Energy = clampFloat(s.Vitals.Energy+in.GrazeGain, 0, cfg.Prey.MaxEnergy)

	ev := Event{Kind: EventGraze, Actor: prey, Target: plant}
	if g.Vitals.Dormant() && (raining || rng.Float64() < in.PlantRegrowthChance) {
		g.Vitals.Health = in.PartialRegrowth
		g.Vitals.RegrowthTimer = 0
		ev.Regrew = true
	}
	events = append(events, ev)

	if s.Vitals.Energy > in.BirthEnergyThreshold && rng.Float64() < in.BirthProb {
		x, y := f.Clamp(s.Pos.X+in.BirthOffset, s.Pos.Y+in.BirthOffset)
		events = append(events, Event{
			Kind:   EventBirth,
			Actor:  prey,
			Target: -1,
			Spawn:  &Spawn{Kind: components.KindPrey, X: x, Y: y},
		})
	}
	return events
}
