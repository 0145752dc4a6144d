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

// Package relay layers logical on/off state, duty cycling, and
// compressor protection over a raw output driver. A relay that is
// logically on may have its output de-energized at any moment by the
// duty cycle; callers that need the logical state ask Running().
package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Driver is a physical switch. Implementations must tolerate
// redundant writes of the same state.
type Driver interface {
	Set(ctx context.Context, on bool) error
}

type Config struct {
	// DutyFraction is the on share of each duty period, in [0, 1].
	// 1.0 (or unset) holds the output continuously.
	DutyFraction float64 `mapstructure:"duty_fraction"`

	// DutyPeriod is the length of one on+off cycle.
	DutyPeriod time.Duration `mapstructure:"duty_period"`

	// MinOff is how long the output must stay off between runs.
	// Glycol compressors are not built for short cycling.
	MinOff time.Duration `mapstructure:"min_off"`
}

const (
	DefaultDutyPeriod      = 10 * time.Minute
	DefaultDriveRetries    = 3
	DefaultDriveRetryDelay = 500 * time.Millisecond

	closeTimeout = 5 * time.Second
)

// Relay owns one output. On and Off flip the logical state; a
// background task holds the physical output to the duty cycle while
// the relay is logically on. The zero Relay is not usable, call New.
type Relay struct {
	name   string
	driver Driver
	log    zerolog.Logger

	dutyPeriod time.Duration
	minOff     time.Duration
	retries    int
	retryDelay time.Duration

	mu      sync.Mutex
	on      bool
	duty    float64
	lastOff time.Time
	cancel  context.CancelFunc
	done    chan struct{}
	taskErr error
}

func New(name string, driver Driver, cfg Config, log zerolog.Logger) *Relay {
	duty := cfg.DutyFraction
	if duty <= 0 || duty > 1 {
		duty = 1
	}
	period := cfg.DutyPeriod
	if period <= 0 {
		period = DefaultDutyPeriod
	}
	return &Relay{
		name:       name,
		driver:     driver,
		log:        log.With().Str("relay", name).Logger(),
		dutyPeriod: period,
		minOff:     cfg.MinOff,
		retries:    DefaultDriveRetries,
		retryDelay: DefaultDriveRetryDelay,
		duty:       duty,
	}
}

func (r *Relay) Name() string { return r.name }

// Running reports the logical state. True during the off phase of a
// duty cycle and during a deferred minimum-off wait.
func (r *Relay) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.on
}

func (r *Relay) DutyFraction() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.duty
}

// SetDutyFraction clamps to [0, 1]. A running relay picks up the new
// fraction at its next phase boundary.
func (r *Relay) SetDutyFraction(f float64) {
	if f < 0 {
		f = 0
	} else if f > 1 {
		f = 1
	}
	r.mu.Lock()
	r.duty = f
	r.mu.Unlock()
	r.log.Debug().Float64("duty", f).Msg("duty fraction set")
}

// On starts the relay. If the minimum off time has not elapsed since
// the last stop, the physical output stays de-energized until it has;
// the relay is logically on the whole while. Calling On on a running
// relay does nothing except report a background drive failure, if one
// has occurred since the last start.
func (r *Relay) On(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.on {
		return r.taskErr
	}

	var wait time.Duration
	if r.minOff > 0 && !r.lastOff.IsZero() {
		if since := time.Since(r.lastOff); since < r.minOff {
			wait = r.minOff - since
		}
	}

	taskCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	r.on = true
	r.taskErr = nil
	r.cancel = cancel
	r.done = done
	go r.task(taskCtx, wait, done)

	if wait > 0 {
		r.log.Info().Dur("wait", wait).Msg("turning on after minimum off time")
	} else {
		r.log.Info().Msg("turning on")
	}
	return nil
}

// Off stops the relay and re-asserts the output off even when the
// relay was not logically on. The last-off timestamp moves only on a
// real on-to-off transition, so redundant stops cannot extend a
// minimum off wait.
func (r *Relay) Off(ctx context.Context) error {
	r.mu.Lock()
	wasOn := r.on
	cancel, done := r.cancel, r.done
	r.on = false
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	err := r.drive(ctx, false)

	if wasOn {
		r.mu.Lock()
		r.lastOff = time.Now()
		r.mu.Unlock()
		r.log.Info().Msg("turning off")
	}
	return err
}

// Close forces the output off regardless of logical state.
func (r *Relay) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	return r.Off(ctx)
}

// task holds the output to the duty cycle until cancelled. The caller
// joins on done before touching the driver itself, so the driver only
// ever has one writer.
func (r *Relay) task(ctx context.Context, wait time.Duration, done chan struct{}) {
	defer close(done)

	if wait > 0 {
		if !r.sleep(ctx, wait) {
			return
		}
	}

	for {
		duty := r.DutyFraction()
		switch {
		case duty >= 1:
			if err := r.drive(ctx, true); err != nil {
				r.fail(err)
				return
			}
			if !r.sleep(ctx, r.dutyPeriod) {
				return
			}
		case duty <= 0:
			if err := r.drive(ctx, false); err != nil {
				r.fail(err)
				return
			}
			if !r.sleep(ctx, r.dutyPeriod) {
				return
			}
		default:
			if err := r.drive(ctx, true); err != nil {
				r.fail(err)
				return
			}
			if !r.sleep(ctx, time.Duration(duty*float64(r.dutyPeriod))) {
				return
			}
			// Re-read at the phase boundary so a fresh fraction
			// shapes the off phase it precedes.
			duty = r.DutyFraction()
			off := time.Duration((1 - duty) * float64(r.dutyPeriod))
			if off <= 0 {
				continue
			}
			if err := r.drive(ctx, false); err != nil {
				r.fail(err)
				return
			}
			if !r.sleep(ctx, off) {
				return
			}
		}
	}
}

func (r *Relay) fail(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	r.log.Error().Err(err).Msg("drive failed, output abandoned until next command")
	r.mu.Lock()
	r.taskErr = err
	r.mu.Unlock()
}

func (r *Relay) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (r *Relay) drive(ctx context.Context, on bool) error {
	state := "off"
	if on {
		state = "on"
	}
	var lastErr error
	for attempt := 1; attempt <= r.retries; attempt++ {
		err := r.driver.Set(ctx, on)
		if err == nil {
			if attempt > 1 {
				r.log.Info().Int("attempt", attempt).Str("state", state).Msg("drive recovered")
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err
		r.log.Warn().Err(err).Str("state", state).Int("attempt", attempt).Msg("drive attempt failed")
		if attempt < r.retries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.retryDelay):
			}
		}
	}
	return fmt.Errorf("drive %s %s after %d attempts: %w", r.name, state, r.retries, lastErr)
}
