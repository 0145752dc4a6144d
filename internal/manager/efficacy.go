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

package manager

import "github.com/rs/zerolog"

type thermalDirection int

const (
	directionHeat thermalDirection = iota + 1
	directionCool
)

// efficacyTracker watches how fast the average temperature moves
// while a relay runs and nudges the duty cycle toward a target rate
// of change. Judgement is withheld for a warm-up of several polls
// after every baseline, since glycol and heat wraps act on a vessel
// with minutes of lag.
type efficacyTracker struct {
	direction thermalDirection
	target    float64 // wanted |temp change| per poll
	increment float64
	warmup    int
	log       zerolog.Logger

	baselinePoll int
	baselineTemp float64
	active       bool
}

func newEfficacyTracker(direction thermalDirection, target, increment float64, warmup int, log zerolog.Logger) *efficacyTracker {
	return &efficacyTracker{
		direction: direction,
		target:    target,
		increment: increment,
		warmup:    warmup,
		log:       log,
	}
}

// reset opens a fresh observation window. Called when the relay
// starts and after every duty adjustment.
func (t *efficacyTracker) reset(poll int, avgTemp float64) {
	t.baselinePoll = poll
	t.baselineTemp = avgTemp
	t.active = true
}

// deactivate forgets the window. Called when the relay stops, so a
// later restart never judges efficacy across an idle gap.
func (t *efficacyTracker) deactivate() {
	t.active = false
}

// observe returns the duty delta to apply this poll: +increment when
// the temperature is moving too slowly toward the target, -increment
// when too quickly, 0 during warm-up or at the target rate. Any
// non-zero verdict re-baselines the window, one adjustment per
// window.
func (t *efficacyTracker) observe(poll int, avgTemp float64) float64 {
	if !t.active {
		return 0
	}
	elapsed := poll - t.baselinePoll
	if elapsed <= t.warmup {
		return 0
	}
	efficacy := (avgTemp - t.baselineTemp) / float64(elapsed)

	// Cooling efficacy is negative when working, so the wanted rate
	// flips sign and so do the comparisons.
	want := t.target
	if t.direction == directionCool {
		want = -want
	}

	var delta float64
	switch {
	case t.direction == directionHeat && efficacy < want,
		t.direction == directionCool && efficacy > want:
		delta = t.increment
	case t.direction == directionHeat && efficacy > want,
		t.direction == directionCool && efficacy < want:
		delta = -t.increment
	default:
		t.log.Debug().
			Float64("efficacy", efficacy).
			Float64("target", want).
			Msg("target efficacy reached")
		return 0
	}

	t.reset(poll, avgTemp)
	return delta
}
