// Package game owns the ecosystem world and advances it one tick at a time.
package game

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/config"
	"github.com/pthm-cable/meadow/systems"
	"github.com/pthm-cable/meadow/telemetry"
)

// GridCellSize is the spatial grid cell size used for nearest searches.
const GridCellSize = 64.0

// Pacing bounds accepted by SetSpeed.
const (
	MinTickInterval = time.Millisecond
	MaxTickInterval = time.Hour
)

// State is the lifecycle state of a Game.
type State uint8

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(b []byte) error {
	for _, st := range []State{StateIdle, StateRunning, StateStopped} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", b)
}

// Errors reported by lifecycle and mutation calls. None of them change state.
var (
	ErrNoEntities     = errors.New("no entities to simulate")
	ErrAlreadyRunning = errors.New("simulation already running")
	ErrInvalidCount   = errors.New("entity count must be >= 0")
	ErrInvalidSpeed   = errors.New("speed must be > 0")
)

// Options configures a Game beyond the simulation config.
type Options struct {
	Seed        int64
	LogStats    bool
	OutputDir   string // CSV output; empty disables it
	SnapshotDir string // bookmark snapshots; empty disables them
	Logger      *slog.Logger
}

// TickReport is delivered to OnTick listeners after every tick.
type TickReport struct {
	Tick        int             `json:"tick"`
	Predators   int             `json:"predators"`
	Prey        int             `json:"prey"`
	Plants      int             `json:"plants"`
	Temperature float64         `json:"temperature"`
	Weather     systems.Weather `json:"weather"`
	State       State           `json:"state"`
}

// Sample returns the population part of the report.
func (r TickReport) Sample() telemetry.Sample {
	return telemetry.Sample{Tick: r.Tick, Predators: r.Predators, Prey: r.Prey, Plants: r.Plants}
}

// EnvironmentInfo is a read-only view of the environment.
type EnvironmentInfo struct {
	Temperature float64            `json:"temperature"`
	Weather     systems.Weather    `json:"weather"`
	Band        systems.EffectZone `json:"-"`
	Auto        bool               `json:"auto"`
}

// Game holds the complete simulation state. It is not safe for concurrent
// use; see Runner for serialised access from several goroutines.
type Game struct {
	cfg    *config.Config
	rng    *rand.Rand
	seed   int64
	logger *slog.Logger

	world  *ecs.World
	mapper *ecs.Map4[components.Position, components.Body, components.Vitals, components.Effects]
	filter *ecs.Filter2[components.Body, components.Vitals]

	// Insertion order of live entities; defines iteration order.
	order []ecs.Entity

	field *systems.Field
	env   *systems.Environment
	zones []systems.Zone

	// State
	tick     int
	state    State
	interval time.Duration
	counts   telemetry.Counts

	// Telemetry
	history       *telemetry.History
	collector     *telemetry.Collector
	perf          *telemetry.PerfCollector
	bookmarks     *telemetry.BookmarkDetector
	outputManager *telemetry.OutputManager
	logStats      bool
	snapshotDir   string

	// Collaborators
	feed       feed
	onTick     []func(TickReport)
	onMessage  []func(string)
	onStats    []func(telemetry.WindowStats)
	onBookmark []func(telemetry.Bookmark)
}

// New creates an Idle game. The config must already be validated; it is
// treated as read-only from here on.
func New(cfg *config.Config, opts Options) (*Game, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, err
	}

	g := &Game{
		cfg:           cfg,
		rng:           rand.New(rand.NewSource(opts.Seed)),
		seed:          opts.Seed,
		logger:        logger,
		field:         systems.NewField(cfg.World.Width, cfg.World.Height, GridCellSize),
		env:           systems.NewEnvironment(cfg),
		interval:      time.Duration(cfg.World.TickIntervalMS) * time.Millisecond,
		history:       telemetry.NewHistory(),
		collector:     telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		perf:          telemetry.NewPerfCollector(cfg.Telemetry.StatsWindow),
		bookmarks:     telemetry.NewBookmarkDetector(10),
		outputManager: om,
		logStats:      opts.LogStats,
		snapshotDir:   opts.SnapshotDir,
	}
	g.initWorld()
	return g, nil
}

// initWorld replaces the ECS world with an empty one.
func (g *Game) initWorld() {
	g.world = ecs.NewWorld()
	g.mapper = ecs.NewMap4[components.Position, components.Body, components.Vitals, components.Effects](g.world)
	g.filter = ecs.NewFilter2[components.Body, components.Vitals](g.world)
	g.order = g.order[:0]
	g.counts = telemetry.Counts{}
}

// Close flushes and closes run output.
func (g *Game) Close() error {
	return g.outputManager.Close()
}

// Config returns the configuration the game was built with.
func (g *Game) Config() *config.Config { return g.cfg }

// Seed returns the RNG seed.
func (g *Game) Seed() int64 { return g.seed }

// State returns the lifecycle state.
func (g *Game) State() State { return g.state }

// Tick returns the number of completed ticks.
func (g *Game) Tick() int { return g.tick }

// Interval returns the wall-clock pacing between ticks.
func (g *Game) Interval() time.Duration { return g.interval }

// Counts returns the population after the last tick or mutation.
func (g *Game) Counts() telemetry.Counts { return g.counts }

// History returns a copy of the population history.
func (g *Game) History() []telemetry.Sample { return g.history.Samples() }

// HistorySince returns the history entries recorded after tick.
func (g *Game) HistorySince(tick int) []telemetry.Sample { return g.history.Since(tick) }

// Zones returns a copy of the placed zones in placement order.
func (g *Game) Zones() []systems.Zone {
	out := make([]systems.Zone, len(g.zones))
	copy(out, g.zones)
	return out
}

// Environment returns the current environment.
func (g *Game) Environment() EnvironmentInfo {
	return EnvironmentInfo{
		Temperature: g.env.Temperature(),
		Weather:     g.env.Weather(),
		Band:        g.env.Zone(),
		Auto:        g.env.Auto(),
	}
}

// Entities returns a value snapshot of every entity in insertion order.
func (g *Game) Entities() []telemetry.EntityState {
	out := make([]telemetry.EntityState, 0, len(g.order))
	for _, e := range g.order {
		pos, body, vit, fx := g.mapper.Get(e)
		out = append(out, telemetry.EntityState{
			Kind:          body.Kind,
			X:             pos.X,
			Y:             pos.Y,
			Speed:         body.Speed,
			Energy:        vit.Energy,
			Health:        vit.Health,
			RegrowthTimer: vit.RegrowthTimer,
			Effects:       fx.Names(),
		})
	}
	return out
}

// EntityCount returns the number of entities, dormant plants included.
func (g *Game) EntityCount() int { return len(g.order) }

// OnTick registers a listener called after every tick.
func (g *Game) OnTick(fn func(TickReport)) {
	g.onTick = append(g.onTick, fn)
}

// OnMessage registers a listener for narrative and status messages.
func (g *Game) OnMessage(fn func(string)) {
	g.onMessage = append(g.onMessage, fn)
}

// OnStats registers a listener called whenever a stats window is flushed.
func (g *Game) OnStats(fn func(telemetry.WindowStats)) {
	g.onStats = append(g.onStats, fn)
}

// OnBookmark registers a listener for detected bookmarks.
func (g *Game) OnBookmark(fn func(telemetry.Bookmark)) {
	g.onBookmark = append(g.onBookmark, fn)
}

// RecentMessages returns the last few distinct messages, oldest first.
func (g *Game) RecentMessages() []string {
	return g.feed.Recent()
}

func (g *Game) report() TickReport {
	return TickReport{
		Tick:        g.tick,
		Predators:   g.counts.Predators,
		Prey:        g.counts.Prey,
		Plants:      g.counts.Plants,
		Temperature: g.env.Temperature(),
		Weather:     g.env.Weather(),
		State:       g.state,
	}
}
