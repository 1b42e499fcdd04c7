package components

import (
	"fmt"
	"strings"
)

// ZoneKind identifies a human impact zone.
type ZoneKind uint8

const (
	ZonePollution ZoneKind = iota
	ZoneDeforestation
	ZoneConservation

	numZoneKinds
)

var zoneNames = [...]string{
	ZonePollution:     "pollution",
	ZoneDeforestation: "deforestation",
	ZoneConservation:  "conservation",
}

func (z ZoneKind) String() string {
	if z < numZoneKinds {
		return zoneNames[z]
	}
	return fmt.Sprintf("zone(%d)", z)
}

// ParseZoneKind parses a zone kind name.
func ParseZoneKind(s string) (ZoneKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for z := ZoneKind(0); z < numZoneKinds; z++ {
		if zoneNames[z] == name {
			return z, nil
		}
	}
	return 0, fmt.Errorf("unknown zone kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (z ZoneKind) MarshalText() ([]byte, error) {
	return []byte(z.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (z *ZoneKind) UnmarshalText(b []byte) error {
	parsed, err := ParseZoneKind(string(b))
	if err != nil {
		return err
	}
	*z = parsed
	return nil
}

// Effects is the set of zone tags applied to an entity during the current
// tick. It is cleared at the start of every tick and only used for display.
type Effects uint8

// Add marks the zone kind as applied.
func (e *Effects) Add(z ZoneKind) {
	*e |= 1 << z
}

// Has reports whether the zone kind was applied this tick.
func (e Effects) Has(z ZoneKind) bool {
	return e&(1<<z) != 0
}

// Kinds lists the applied zone kinds in declaration order.
func (e Effects) Kinds() []ZoneKind {
	var out []ZoneKind
	for z := ZoneKind(0); z < numZoneKinds; z++ {
		if e.Has(z) {
			out = append(out, z)
		}
	}
	return out
}

// Names lists the applied zone kinds by name.
func (e Effects) Names() []string {
	kinds := e.Kinds()
	if len(kinds) == 0 {
		return nil
	}
	names := make([]string, len(kinds))
	for i, z := range kinds {
		names[i] = z.String()
	}
	return names
}
