package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/game"
	"github.com/pthm-cable/meadow/systems"
	"github.com/pthm-cable/meadow/telemetry"
)

// ProtocolVersion is sent in every state response.
const ProtocolVersion = "1"

// Command types accepted on POST /v1/commands and over the websocket.
const (
	CmdStart       = "start"
	CmdStop        = "stop"
	CmdReset       = "reset"
	CmdAdd         = "add"
	CmdZone        = "zone"
	CmdWeather     = "weather"
	CmdTemperature = "temperature"
	CmdSpeed       = "speed"
)

var errUnknownCommand = errors.New("unknown command")

// Command is one collaborator request.
type Command struct {
	Type string `json:"type"`

	Kind        string  `json:"kind,omitempty"` // entity or zone kind
	Count       int     `json:"count,omitempty"`
	X           float64 `json:"x,omitempty"`
	Y           float64 `json:"y,omitempty"`
	Radius      float64 `json:"radius,omitempty"` // 0 uses the configured default
	Weather     string  `json:"weather,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	Speed       float64 `json:"speed,omitempty"` // ticks per second
}

// Result answers a Command.
type Result struct {
	OK          bool     `json:"ok"`
	Error       string   `json:"error,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"` // applied value for temperature commands
}

// Event is pushed to websocket subscribers.
type Event struct {
	Type    string           `json:"type"` // state, tick, message or result
	State   *State           `json:"state,omitempty"`
	Tick    *game.TickReport `json:"tick,omitempty"`
	Message string           `json:"message,omitempty"`
	Result  *Result          `json:"result,omitempty"`
}

// State is the full read-only view returned by GET /v1/state.
type State struct {
	ProtocolVersion string                  `json:"protocol_version"`
	Tick            int                     `json:"tick"`
	State           game.State              `json:"state"`
	Width           float64                 `json:"width"`
	Height          float64                 `json:"height"`
	Counts          telemetry.Counts        `json:"counts"`
	Environment     game.EnvironmentInfo    `json:"environment"`
	Zones           []systems.Zone          `json:"zones"`
	Entities        []telemetry.EntityState `json:"entities"`
	Messages        []string                `json:"messages"`
}

func stateOf(g *game.Game) State {
	cfg := g.Config()
	return State{
		ProtocolVersion: ProtocolVersion,
		Tick:            g.Tick(),
		State:           g.State(),
		Width:           cfg.World.Width,
		Height:          cfg.World.Height,
		Counts:          g.Counts(),
		Environment:     g.Environment(),
		Zones:           g.Zones(),
		Entities:        g.Entities(),
		Messages:        g.RecentMessages(),
	}
}

// apply executes cmd against g. It runs on the runner goroutine.
func apply(g *game.Game, cmd Command) Result {
	var err error
	var res Result

	switch strings.ToLower(cmd.Type) {
	case CmdStart:
		err = g.Start()
	case CmdStop:
		g.Stop()
	case CmdReset:
		g.Reset()
	case CmdAdd:
		var kind components.Kind
		if kind, err = components.ParseKind(cmd.Kind); err == nil {
			err = g.AddEntities(kind, cmd.Count)
		}
	case CmdZone:
		var kind components.ZoneKind
		if kind, err = components.ParseZoneKind(cmd.Kind); err == nil {
			radius := cmd.Radius
			if radius == 0 {
				radius = g.Config().Zones.DefaultRadius
			}
			err = g.PlaceZone(kind, cmd.X, cmd.Y, radius)
		}
	case CmdWeather:
		if strings.EqualFold(cmd.Weather, "auto") {
			g.SetAutoWeather()
			break
		}
		var w systems.Weather
		if w, err = systems.ParseWeather(cmd.Weather); err == nil {
			g.SetWeather(w)
		}
	case CmdTemperature:
		applied := g.SetTemperature(cmd.Temperature)
		res.Temperature = &applied
	case CmdSpeed:
		err = g.SetSpeed(cmd.Speed)
	default:
		err = fmt.Errorf("%w %q", errUnknownCommand, cmd.Type)
	}

	if err != nil {
		return Result{Error: err.Error()}
	}
	res.OK = true
	return res
}
