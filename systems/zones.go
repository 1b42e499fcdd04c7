package systems

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/config"
)

// ErrInvalidRadius is returned when a zone is placed with a non-positive radius.
var ErrInvalidRadius = errors.New("zone radius must be > 0")

// Zone is a circular human impact area. Zones are immutable once placed.
type Zone struct {
	Kind   components.ZoneKind `json:"kind"`
	X      float64             `json:"x"`
	Y      float64             `json:"y"`
	Radius float64             `json:"radius"`
}

// NewZone validates and creates a zone.
func NewZone(kind components.ZoneKind, x, y, radius float64) (Zone, error) {
	if !(radius > 0) {
		return Zone{}, fmt.Errorf("%w: got %v", ErrInvalidRadius, radius)
	}
	return Zone{Kind: kind, X: x, Y: y, Radius: radius}, nil
}

// Contains reports whether a point lies inside the zone (boundary included).
func (z Zone) Contains(x, y float64) bool {
	return distanceSq(z.X, z.Y, x, y) <= z.Radius*z.Radius
}

// Affect applies the zone's per-tick delta to one entity and tags it.
// It reports whether the entity was inside the zone. Dormant plants are
// skipped entirely.
func (z Zone) Affect(cfg *config.Config, pos *components.Position, body *components.Body, v *components.Vitals, fx *components.Effects) bool {
	if !z.Contains(pos.X, pos.Y) {
		return false
	}

	zc := cfg.Zones
	intensity := zc.Intensity

	if body.Kind == components.KindPlant {
		if v.Dormant() {
			return false
		}
		var delta float64
		switch z.Kind {
		case components.ZonePollution:
			delta = -zc.PollutionPlant * intensity
		case components.ZoneDeforestation:
			delta = -zc.DeforestationPlant * intensity
		case components.ZoneConservation:
			delta = zc.ConservationPlant * intensity
		}
		v.Health = clampFloat(v.Health+delta, 0, cfg.Plant.MaxHealth)
	} else {
		var delta float64
		switch z.Kind {
		case components.ZonePollution:
			delta = -zc.PollutionAnimal * intensity
		case components.ZoneConservation:
			delta = zc.ConservationAnimal * intensity
		}
		v.Energy = clampFloat(v.Energy+delta, 0, maxEnergy(cfg, body.Kind))
	}

	fx.Add(z.Kind)
	return true
}
