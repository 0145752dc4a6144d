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

package beer

import (
	"math"
	"testing"
)

func TestTargetModelValidate(t *testing.T) {
	tests := []struct {
		name    string
		model   TargetModel
		wantErr bool
	}{
		{"set point", TargetModel{Kind: FixedSetPoint, SetPoint: 18}, false},
		{"linear ramp", TargetModel{Kind: LinearRamp, OriginalGravity: 1.060, FinalGravity: 1.010}, false},
		{"linear ramp equal gravities", TargetModel{Kind: LinearRamp, OriginalGravity: 1.050, FinalGravity: 1.050}, true},
		{"linear ramp inverted gravities", TargetModel{Kind: LinearRamp, OriginalGravity: 1.010, FinalGravity: 1.060}, true},
		{"dampened ramp", TargetModel{Kind: DampenedRamp, OriginalGravity: 1.060, FinalGravity: 1.010, DampingFactor: 0.5}, false},
		{"dampened ramp bad factor", TargetModel{Kind: DampenedRamp, OriginalGravity: 1.060, FinalGravity: 1.010, DampingFactor: 1.5}, true},
		{"unknown kind", TargetModel{Kind: "thermocline"}, true},
		{"empty kind", TargetModel{}, true},
	}
	for _, tt := range tests {
		err := tt.model.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestProgressClampsToGravitySpan(t *testing.T) {
	m := TargetModel{Kind: LinearRamp, OriginalGravity: 1.050, FinalGravity: 1.010}
	tests := []struct {
		gravity float64
		want    float64
	}{
		{1.050, 0},
		{1.030, 0.5},
		{1.010, 1},
		{1.070, 0}, // above original gravity clamps to start
		{1.000, 1}, // below final gravity clamps to finish
	}
	for _, tt := range tests {
		got := m.Progress(tt.gravity)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Progress(%v) = %v, want %v", tt.gravity, got, tt.want)
		}
	}
}

func TestLinearRampTargetTemperature(t *testing.T) {
	// A beer dropping from 25 to 5 plato while warming 16 to 20.
	// Halfway down the gravity span the target sits exactly halfway
	// up the temperature span.
	m := TargetModel{
		Kind:            LinearRamp,
		OriginalGravity: 25,
		FinalGravity:    5,
		StartTemp:       16,
		EndTemp:         20,
	}
	tests := []struct {
		gravity float64
		want    float64
	}{
		{25, 16},
		{15, 18},
		{5, 20},
		{30, 16},
		{2, 20},
	}
	for _, tt := range tests {
		got := m.TargetTemperature(tt.gravity)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("TargetTemperature(%v) = %v, want %v", tt.gravity, got, tt.want)
		}
	}
}

func TestDampenedRampLagsLinear(t *testing.T) {
	linear := TargetModel{
		Kind:            LinearRamp,
		OriginalGravity: 1.060,
		FinalGravity:    1.010,
		StartTemp:       16,
		EndTemp:         20,
	}
	damped := linear
	damped.Kind = DampenedRamp
	damped.DampingFactor = 0.3

	// Endpoints always match.
	for _, g := range []float64{1.060, 1.010} {
		l, d := linear.TargetTemperature(g), damped.TargetTemperature(g)
		if math.Abs(l-d) > 1e-9 {
			t.Errorf("endpoint gravity %v: linear %v, damped %v", g, l, d)
		}
	}

	// Mid-fermentation the damped schedule stays cooler.
	mid := 1.035
	if l, d := linear.TargetTemperature(mid), damped.TargetTemperature(mid); d >= l {
		t.Errorf("damped target %v not below linear %v at gravity %v", d, l, mid)
	}
}

func TestDampenedRampFactorOneIsLinear(t *testing.T) {
	linear := TargetModel{
		Kind:            LinearRamp,
		OriginalGravity: 1.060,
		FinalGravity:    1.010,
		StartTemp:       16,
		EndTemp:         20,
	}
	damped := linear
	damped.Kind = DampenedRamp
	damped.DampingFactor = 1.0

	for g := 1.010; g <= 1.060; g += 0.005 {
		l, d := linear.TargetTemperature(g), damped.TargetTemperature(g)
		if math.Abs(l-d) > 1e-9 {
			t.Errorf("gravity %v: linear %v, damped(1.0) %v", g, l, d)
		}
	}
}

func TestDampenedRampMonotonic(t *testing.T) {
	m := TargetModel{
		Kind:            DampenedRamp,
		OriginalGravity: 1.060,
		FinalGravity:    1.010,
		StartTemp:       16,
		EndTemp:         20,
		DampingFactor:   0.2,
	}
	prev := m.TargetTemperature(1.060)
	for g := 1.059; g >= 1.010; g -= 0.001 {
		cur := m.TargetTemperature(g)
		if cur < prev-1e-12 {
			t.Fatalf("target fell from %v to %v as gravity dropped to %v", prev, cur, g)
		}
		prev = cur
	}
}

func TestNeedsGravity(t *testing.T) {
	if (TargetModel{Kind: FixedSetPoint}).NeedsGravity() {
		t.Error("set point model should not need gravity")
	}
	if !(TargetModel{Kind: LinearRamp}).NeedsGravity() {
		t.Error("linear ramp model needs gravity")
	}
	if !(TargetModel{Kind: DampenedRamp}).NeedsGravity() {
		t.Error("dampened ramp model needs gravity")
	}
}
