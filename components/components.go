// Package components defines ECS components for the simulation.
package components

import (
	"fmt"
	"strings"
)

// Kind identifies what an entity is. It never changes after creation.
type Kind uint8

const (
	KindPlant Kind = iota
	KindPrey
	KindPredator
)

var kindNames = [...]string{
	KindPlant:    "plant",
	KindPrey:     "prey",
	KindPredator: "predator",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// IsAnimal reports whether the kind moves and spends energy.
func (k Kind) IsAnimal() bool {
	return k == KindPrey || k == KindPredator
}

// Noun returns the plural used in collaborator messages.
func (k Kind) Noun() string {
	switch k {
	case KindPredator:
		return "wolves"
	case KindPrey:
		return "sheep"
	default:
		return "plants"
	}
}

// Singular returns the singular used in collaborator messages.
func (k Kind) Singular() string {
	switch k {
	case KindPredator:
		return "wolf"
	case KindPrey:
		return "sheep"
	default:
		return "plant"
	}
}

// ParseKind accepts either the engine name or the everyday animal name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plant", "plants", "grass":
		return KindPlant, nil
	case "prey", "sheep":
		return KindPrey, nil
	case "predator", "predators", "wolf", "wolves":
		return KindPredator, nil
	}
	return 0, fmt.Errorf("unknown entity kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Position represents an entity's world position.
type Position struct {
	X, Y float64
}

// Body holds the immutable physical traits of an entity.
type Body struct {
	Kind  Kind
	Speed float64 // 0 for plants
}

// Vitals holds the mutable condition of an entity.
// Energy is meaningful for animals, Health and RegrowthTimer for plants.
type Vitals struct {
	Energy        float64
	Health        float64
	RegrowthTimer int // ticks spent dormant
}

// Dormant reports whether a plant has been grazed down to nothing.
func (v Vitals) Dormant() bool {
	return v.Health <= 0
}
