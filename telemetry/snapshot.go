package telemetry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/pthm-cable/meadow/components"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete world state of a run.
type Snapshot struct {
	Version int   `json:"version"`
	Seed    int64 `json:"seed"`

	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Tick  int    `json:"tick"`
	State string `json:"state"`

	Environment EnvironmentState `json:"environment"`
	Zones       []ZoneState      `json:"zones"`
	Entities    []EntityState    `json:"entities"`
	History     []Sample         `json:"history"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// EnvironmentState is the serialized environment.
type EnvironmentState struct {
	Temperature float64 `json:"temperature"`
	Weather     string  `json:"weather"`
	Auto        bool    `json:"auto"`
}

// ZoneState is one serialized impact zone.
type ZoneState struct {
	Kind   components.ZoneKind `json:"kind"`
	X      float64             `json:"x"`
	Y      float64             `json:"y"`
	Radius float64             `json:"radius"`
}

// EntityState is one serialized entity, in insertion order.
type EntityState struct {
	Kind          components.Kind `json:"kind"`
	X             float64         `json:"x"`
	Y             float64         `json:"y"`
	Speed         float64         `json:"speed"`
	Energy        float64         `json:"energy"`
	Health        float64         `json:"health"`
	RegrowthTimer int             `json:"regrowth_timer"`
	Effects       []string        `json:"effects,omitempty"`
}

// SaveSnapshot writes a zstd-compressed JSON snapshot into dir and returns
// the file path.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	path := filepath.Join(dir, name+".json.zst")

	if err := WriteSnapshot(path, snapshot); err != nil {
		return "", err
	}
	return path, nil
}

// WriteSnapshot writes a snapshot to path.
func WriteSnapshot(path string, snapshot *Snapshot) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("write snapshot: %w", cerr)
		}
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}

	bw := bufio.NewWriter(enc)
	if err := json.NewEncoder(bw).Encode(snapshot); err != nil {
		enc.Close()
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	var snapshot Snapshot
	if err := json.NewDecoder(bufio.NewReader(dec)).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snapshot.Version)
	}
	return &snapshot, nil
}
