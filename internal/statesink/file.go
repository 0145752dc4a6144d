// Copyright (C) 2026 Prairie Dog Brewing
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package statesink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/prairiedogbeer/fermenator/internal/events"
)

type FileConfig struct {
	// Dir receives one <vessel>.state file per vessel.
	Dir string `mapstructure:"dir"`
}

// File writes a key=value snapshot per vessel, replaced atomically on
// every poll. Handy for rigs where "monitoring" is cat over ssh, and
// for dead-simple external watchdogs checking the heartbeat.
type File struct {
	dir string
}

func NewFile(cfg FileConfig) (*File, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("file sink: dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("file sink: %w", err)
	}
	return &File{dir: cfg.Dir}, nil
}

func (f *File) Name() string { return "file" }

func (f *File) Record(ctx context.Context, state events.VesselState) error {
	var b strings.Builder
	fmt.Fprintf(&b, "heartbeat=%d\n", state.Heartbeat.Unix())
	fmt.Fprintf(&b, "state=%s\n", state.State)
	fmt.Fprintf(&b, "heating=%s\n", boolField(state.Heating))
	fmt.Fprintf(&b, "cooling=%s\n", boolField(state.Cooling))
	writeOptional(&b, "temperature", state.Temperature)
	writeOptional(&b, "target", state.Target)
	writeOptional(&b, "gravity", state.Gravity)
	writeOptional(&b, "progress", state.Progress)
	writeOptional(&b, "heat_duty", state.HeatDuty)
	writeOptional(&b, "cool_duty", state.CoolDuty)

	path := filepath.Join(f.dir, state.Vessel+".state")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("file sink: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("file sink: %w", err)
	}
	return nil
}

func (f *File) Close() error { return nil }

func writeOptional(b *strings.Builder, key string, v *float64) {
	if v == nil {
		return
	}
	fmt.Fprintf(b, "%s=%s\n", key, strconv.FormatFloat(*v, 'f', -1, 64))
}

func boolField(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
