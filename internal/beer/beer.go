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

// Package beer decides whether a fermenting vessel wants heat or
// cooling. Decisions come from a weighted moving average of recent
// temperature readings measured against a target model, with
// asymmetric hysteresis so actuators are not chattered around the
// set point. Any doubt about the data resolves to "do nothing": a
// stale or implausible reading produces an error, never an actuation.
package beer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/prairiedogbeer/fermenator/internal/average"
	"github.com/prairiedogbeer/fermenator/internal/readings"
)

var (
	// ErrStaleData marks a reading older than the configured limit.
	ErrStaleData = errors.New("reading too old")

	// ErrInvalidReading marks a value no fermentation could produce.
	ErrInvalidReading = errors.New("implausible reading")

	// ErrDataFetch marks a source that kept failing after retries.
	ErrDataFetch = errors.New("data fetch failed")
)

const (
	DefaultTolerance         = 0.5
	DefaultMovingAverageSize = 10
	DefaultDataAgeWarning    = 30 * time.Minute
	DefaultFetchRetries      = 3
	DefaultFetchRetryDelay   = time.Second
)

// Plausibility bounds in Celsius and specific gravity. Anything
// outside is treated as a sensor fault rather than a process state.
const (
	minPlausibleTemp    = -10.0
	maxPlausibleTemp    = 100.0
	minPlausibleGravity = 0.9
	maxPlausibleGravity = 1.2
)

type Config struct {
	Target            TargetModel   `mapstructure:"target"`
	Tolerance         float64       `mapstructure:"tolerance"`
	MovingAverageSize int           `mapstructure:"moving_average_size"`
	DataAgeWarning    time.Duration `mapstructure:"data_age_warning"`
	FetchRetries      int           `mapstructure:"fetch_retries"`
	FetchRetryDelay   time.Duration `mapstructure:"fetch_retry_delay"`
}

func (c *Config) applyDefaults() {
	if c.Tolerance <= 0 {
		c.Tolerance = DefaultTolerance
	}
	if c.MovingAverageSize <= 0 {
		c.MovingAverageSize = DefaultMovingAverageSize
	}
	if c.DataAgeWarning <= 0 {
		c.DataAgeWarning = DefaultDataAgeWarning
	}
	if c.FetchRetries <= 0 {
		c.FetchRetries = DefaultFetchRetries
	}
	if c.FetchRetryDelay <= 0 {
		c.FetchRetryDelay = DefaultFetchRetryDelay
	}
}

// Engine tracks one vessel. It is not safe for concurrent use; the
// vessel's manager owns it and other consumers read published state.
type Engine struct {
	name   string
	source readings.Source
	cfg    Config
	log    zerolog.Logger
	now    func() time.Time

	window     *average.Window
	gravity    float64
	hasGravity bool
	target     float64
	hasTarget  bool
}

func New(name string, source readings.Source, cfg Config, log zerolog.Logger) (*Engine, error) {
	if name == "" {
		return nil, fmt.Errorf("beer: vessel name is required")
	}
	if source == nil {
		return nil, fmt.Errorf("beer %s: reading source is required", name)
	}
	if err := cfg.Target.Validate(); err != nil {
		return nil, fmt.Errorf("beer %s: %w", name, err)
	}
	cfg.applyDefaults()
	window, err := average.NewWindow(cfg.MovingAverageSize)
	if err != nil {
		return nil, fmt.Errorf("beer %s: %w", name, err)
	}
	return &Engine{
		name:   name,
		source: source,
		cfg:    cfg,
		log:    log.With().Str("vessel", name).Logger(),
		now:    time.Now,
		window: window,
	}, nil
}

func (e *Engine) Name() string { return e.name }

// RequiresHeating reports whether the vessel should be heated right
// now. Heat engages once the average drops more than the tolerance
// below target and, once engaged, stays on until the average reaches
// the target itself.
func (e *Engine) RequiresHeating(ctx context.Context, heating, cooling bool) (bool, error) {
	if err := e.refresh(ctx); err != nil {
		return false, err
	}
	avg, _ := e.window.Current()
	switch {
	case avg < e.target-e.cfg.Tolerance:
		e.log.Info().
			Float64("avg_temp", avg).
			Float64("target", e.target).
			Float64("tolerance", e.cfg.Tolerance).
			Msg("heating required")
		return true, nil
	case heating && avg < e.target:
		e.log.Debug().
			Float64("avg_temp", avg).
			Float64("target", e.target).
			Msg("holding heat until target")
		return true, nil
	default:
		return false, nil
	}
}

// RequiresCooling mirrors RequiresHeating on the warm side of the
// target.
func (e *Engine) RequiresCooling(ctx context.Context, heating, cooling bool) (bool, error) {
	if err := e.refresh(ctx); err != nil {
		return false, err
	}
	avg, _ := e.window.Current()
	switch {
	case avg > e.target+e.cfg.Tolerance:
		e.log.Info().
			Float64("avg_temp", avg).
			Float64("target", e.target).
			Float64("tolerance", e.cfg.Tolerance).
			Msg("cooling required")
		return true, nil
	case cooling && avg > e.target:
		e.log.Debug().
			Float64("avg_temp", avg).
			Float64("target", e.target).
			Msg("holding cooling until target")
		return true, nil
	default:
		return false, nil
	}
}

// AverageTemperature returns the current moving average, if at least
// one reading has been recorded.
func (e *Engine) AverageTemperature() (float64, bool) {
	return e.window.Current()
}

// Target returns the most recently evaluated target temperature.
func (e *Engine) Target() (float64, bool) {
	return e.target, e.hasTarget
}

// Gravity returns the most recent accepted gravity reading.
func (e *Engine) Gravity() (float64, bool) {
	return e.gravity, e.hasGravity
}

// Progress returns attenuation progress in [0, 1] for gravity-driven
// target models.
func (e *Engine) Progress() (float64, bool) {
	if !e.cfg.Target.NeedsGravity() || !e.hasGravity {
		return 0, false
	}
	return e.cfg.Target.Progress(e.gravity), true
}

// refresh pulls fresh readings and re-evaluates the target. Gravity
// comes first so a ramp never acts on a target from the previous poll.
func (e *Engine) refresh(ctx context.Context) error {
	if e.cfg.Target.NeedsGravity() {
		if err := e.refreshGravity(ctx); err != nil {
			return err
		}
	}
	if err := e.refreshTemperature(ctx); err != nil {
		return err
	}
	e.target = e.cfg.Target.TargetTemperature(e.gravity)
	e.hasTarget = true
	return nil
}

func (e *Engine) refreshTemperature(ctx context.Context) error {
	r, err := e.fetch(ctx, readings.KindTemperature, e.source.GetTemperature)
	if err != nil {
		return err
	}
	if err := e.checkReading(readings.KindTemperature, r, minPlausibleTemp, maxPlausibleTemp); err != nil {
		return err
	}
	if _, err := e.window.Record(r.Value); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidReading, err)
	}
	return nil
}

func (e *Engine) refreshGravity(ctx context.Context) error {
	r, err := e.fetch(ctx, readings.KindGravity, e.source.GetGravity)
	if err != nil {
		return err
	}
	if err := e.checkReading(readings.KindGravity, r, minPlausibleGravity, maxPlausibleGravity); err != nil {
		return err
	}
	e.gravity = r.Value
	e.hasGravity = true
	return nil
}

func (e *Engine) fetch(
	ctx context.Context,
	kind string,
	get func(context.Context, string) (readings.Reading, error),
) (readings.Reading, error) {
	var lastErr error
	for attempt := 1; attempt <= e.cfg.FetchRetries; attempt++ {
		r, err := get(ctx, e.name)
		if err == nil {
			return r, nil
		}
		lastErr = err
		e.log.Warn().
			Err(err).
			Str("kind", kind).
			Int("attempt", attempt).
			Msg("reading fetch failed")
		if attempt < e.cfg.FetchRetries {
			select {
			case <-ctx.Done():
				return readings.Reading{}, ctx.Err()
			case <-time.After(e.cfg.FetchRetryDelay):
			}
		}
	}
	return readings.Reading{}, fmt.Errorf("%w: %s for %s after %d attempts: %v",
		ErrDataFetch, kind, e.name, e.cfg.FetchRetries, lastErr)
}

func (e *Engine) checkReading(kind string, r readings.Reading, min, max float64) error {
	if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		return fmt.Errorf("%w: %s reading %v is not finite", ErrInvalidReading, kind, r.Value)
	}
	if r.Value < min || r.Value > max {
		return fmt.Errorf("%w: %s reading %v outside [%v, %v]",
			ErrInvalidReading, kind, r.Value, min, max)
	}
	if age := e.now().Sub(r.ObservedAt); age > e.cfg.DataAgeWarning {
		return fmt.Errorf("%w: %s reading is %s old (limit %s)",
			ErrStaleData, kind, age.Round(time.Second), e.cfg.DataAgeWarning)
	}
	return nil
}
