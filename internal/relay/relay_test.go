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

package relay

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/prairiedogbeer/fermenator/internal/device"
)

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func newTestRelay(driver Driver, cfg Config) *Relay {
	r := New("heat", driver, cfg, zerolog.Nop())
	r.retryDelay = time.Millisecond
	return r
}

func TestOnDrivesOutputAndOffStops(t *testing.T) {
	ctx := context.Background()
	fake := device.NewFake("heat")
	r := newTestRelay(fake, Config{})

	if err := r.On(ctx); err != nil {
		t.Fatal(err)
	}
	if !r.Running() {
		t.Error("relay should be logically on immediately")
	}
	waitFor(t, fake.On, "output never energized")

	if err := r.Off(ctx); err != nil {
		t.Fatal(err)
	}
	if r.Running() {
		t.Error("relay should be logically off")
	}
	if fake.On() {
		t.Error("output still energized after Off")
	}
}

func TestDutyCycleAlternates(t *testing.T) {
	ctx := context.Background()
	fake := device.NewFake("heat")
	r := newTestRelay(fake, Config{
		DutyFraction: 0.25,
		DutyPeriod:   200 * time.Millisecond,
	})

	if err := r.On(ctx); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return len(fake.Sets()) >= 4 }, "duty cycle never alternated")
	if err := r.Off(ctx); err != nil {
		t.Fatal(err)
	}

	sets := fake.Sets()
	for i, want := range []bool{true, false, true, false} {
		if sets[i].On != want {
			t.Fatalf("transition %d = %v, want %v (sequence %+v)", i, sets[i].On, want, sets)
		}
	}

	// With a 0.25 fraction over 200ms the on phase runs about 50ms
	// and the off phase about 150ms.
	onPhase := sets[1].At.Sub(sets[0].At)
	offPhase := sets[2].At.Sub(sets[1].At)
	if onPhase < 25*time.Millisecond || onPhase > 175*time.Millisecond {
		t.Errorf("on phase lasted %v, want about 50ms", onPhase)
	}
	if offPhase <= onPhase {
		t.Errorf("off phase (%v) should outlast on phase (%v) at 0.25 duty", offPhase, onPhase)
	}
}

func TestOffInterruptsPhaseImmediately(t *testing.T) {
	ctx := context.Background()
	fake := device.NewFake("heat")
	r := newTestRelay(fake, Config{
		DutyFraction: 0.5,
		DutyPeriod:   10 * time.Second,
	})

	if err := r.On(ctx); err != nil {
		t.Fatal(err)
	}
	waitFor(t, fake.On, "output never energized")

	start := time.Now()
	if err := r.Off(ctx); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Off took %v, should not wait out the phase", elapsed)
	}
	if fake.On() {
		t.Error("output still energized after Off")
	}
}

func TestMinOffDefersRestart(t *testing.T) {
	ctx := context.Background()
	fake := device.NewFake("cool")
	r := newTestRelay(fake, Config{MinOff: 150 * time.Millisecond})

	if err := r.On(ctx); err != nil {
		t.Fatal(err)
	}
	waitFor(t, fake.On, "output never energized")
	if err := r.Off(ctx); err != nil {
		t.Fatal(err)
	}

	if err := r.On(ctx); err != nil {
		t.Fatal(err)
	}
	if !r.Running() {
		t.Error("relay should be logically on during the deferred wait")
	}
	time.Sleep(50 * time.Millisecond)
	if fake.On() {
		t.Error("output energized before minimum off time elapsed")
	}
	waitFor(t, fake.On, "output never re-energized after minimum off time")
}

func TestMinOffWaitIsCancellable(t *testing.T) {
	ctx := context.Background()
	fake := device.NewFake("cool")
	r := newTestRelay(fake, Config{MinOff: 10 * time.Second})

	if err := r.On(ctx); err != nil {
		t.Fatal(err)
	}
	waitFor(t, fake.On, "output never energized")
	if err := r.Off(ctx); err != nil {
		t.Fatal(err)
	}
	onWrites := countOn(fake.Sets())

	// Restart lands in the deferred wait; stopping again must not
	// block for the remaining 10s or touch the output.
	if err := r.On(ctx); err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	if err := r.Off(ctx); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Off took %v during deferred wait", elapsed)
	}
	if got := countOn(fake.Sets()); got != onWrites {
		t.Errorf("output energized %d times, want still %d", got, onWrites)
	}
}

func TestRedundantOffKeepsLastOff(t *testing.T) {
	ctx := context.Background()
	fake := device.NewFake("cool")
	r := newTestRelay(fake, Config{MinOff: 400 * time.Millisecond})

	if err := r.On(ctx); err != nil {
		t.Fatal(err)
	}
	waitFor(t, fake.On, "output never energized")
	if err := r.Off(ctx); err != nil {
		t.Fatal(err)
	}
	offAt := time.Now()

	time.Sleep(200 * time.Millisecond)
	if err := r.Off(ctx); err != nil {
		t.Fatal(err)
	}

	// Were the redundant stop to move the clock, the restart below
	// would stay de-energized until 600ms after the real stop.
	if err := r.On(ctx); err != nil {
		t.Fatal(err)
	}
	deadline := offAt.Add(550 * time.Millisecond)
	for !fake.On() {
		if time.Now().After(deadline) {
			t.Fatal("redundant Off extended the minimum off wait")
		}
		time.Sleep(5 * time.Millisecond)
	}
	_ = r.Close()
}

func TestOnReportsBackgroundDriveFailure(t *testing.T) {
	ctx := context.Background()
	fake := device.NewFake("heat")
	fake.SetErr = context.DeadlineExceeded
	r := newTestRelay(fake, Config{})

	if err := r.On(ctx); err != nil {
		t.Fatalf("first On should start cleanly, got %v", err)
	}
	waitFor(t, func() bool { return r.On(ctx) != nil }, "background failure never surfaced")

	// A fresh start clears the stored failure.
	fake.SetErr = nil
	if err := r.Off(ctx); err != nil {
		t.Fatal(err)
	}
	if err := r.On(ctx); err != nil {
		t.Fatalf("restart after recovery: %v", err)
	}
	waitFor(t, fake.On, "output never energized after recovery")
	_ = r.Close()
}

func TestDriveRetriesRecover(t *testing.T) {
	ctx := context.Background()
	fake := device.NewFake("heat")
	fake.FailCount = 2
	r := newTestRelay(fake, Config{})

	if err := r.On(ctx); err != nil {
		t.Fatal(err)
	}
	waitFor(t, fake.On, "drive never recovered within retry budget")
	if err := r.On(ctx); err != nil {
		t.Errorf("recovered relay reports %v", err)
	}
	_ = r.Close()
}

func TestCloseReassertsOff(t *testing.T) {
	fake := device.NewFake("heat")
	r := newTestRelay(fake, Config{})

	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	sets := fake.Sets()
	if len(sets) != 1 || sets[0].On {
		t.Errorf("Close should write one off, recorded %+v", sets)
	}
}

func TestSetDutyFractionClamps(t *testing.T) {
	r := newTestRelay(device.NewFake("heat"), Config{})
	r.SetDutyFraction(1.5)
	if got := r.DutyFraction(); got != 1.0 {
		t.Errorf("duty = %v, want clamp to 1.0", got)
	}
	r.SetDutyFraction(-0.2)
	if got := r.DutyFraction(); got != 0.0 {
		t.Errorf("duty = %v, want clamp to 0.0", got)
	}
}

func countOn(sets []device.Transition) int {
	n := 0
	for _, s := range sets {
		if s.On {
			n++
		}
	}
	return n
}
