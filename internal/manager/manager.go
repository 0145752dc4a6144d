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

// Package manager runs one control loop per vessel. Each poll asks
// the beer engine what the vessel wants, switches the heat and cool
// relays with the opposing side always stopped first, and reports
// the resulting state to the sinks. Any engine error disables both
// relays until a later poll succeeds again.
package manager

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/prairiedogbeer/fermenator/internal/beer"
	"github.com/prairiedogbeer/fermenator/internal/events"
	"github.com/prairiedogbeer/fermenator/internal/relay"
	"github.com/prairiedogbeer/fermenator/internal/statesink"
)

type Config struct {
	ActiveHeating bool          `mapstructure:"active_heating"`
	ActiveCooling bool          `mapstructure:"active_cooling"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`

	// TargetEfficacy is the wanted average temperature change per
	// poll while a relay runs. WarmupPolls must elapse after any
	// duty change before efficacy is judged again.
	TargetEfficacy    float64 `mapstructure:"target_efficacy"`
	WarmupPolls       int     `mapstructure:"warmup_polls"`
	HeatDutyIncrement float64 `mapstructure:"heat_duty_increment"`
	CoolDutyIncrement float64 `mapstructure:"cool_duty_increment"`
}

const (
	DefaultPollInterval      = time.Minute
	DefaultTargetEfficacy    = 1.0 / 60.0
	DefaultWarmupPolls       = 5
	DefaultHeatDutyIncrement = 0.05
	DefaultCoolDutyIncrement = 0.01
)

func (c *Config) applyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.TargetEfficacy <= 0 {
		c.TargetEfficacy = DefaultTargetEfficacy
	}
	if c.WarmupPolls <= 0 {
		c.WarmupPolls = DefaultWarmupPolls
	}
	if c.HeatDutyIncrement <= 0 {
		c.HeatDutyIncrement = DefaultHeatDutyIncrement
	}
	if c.CoolDutyIncrement <= 0 {
		c.CoolDutyIncrement = DefaultCoolDutyIncrement
	}
}

// Manager owns one vessel end to end. Either relay may be nil when a
// vessel has no hardware on that side.
type Manager struct {
	name   string
	engine *beer.Engine
	heat   *relay.Relay
	cool   *relay.Relay
	sink   statesink.Sink
	cfg    Config
	log    zerolog.Logger

	pollCount   int
	heatTracker *efficacyTracker
	coolTracker *efficacyTracker
}

func New(engine *beer.Engine, heat, cool *relay.Relay, sink statesink.Sink, cfg Config, log zerolog.Logger) *Manager {
	cfg.applyDefaults()
	log = log.With().Str("vessel", engine.Name()).Logger()
	return &Manager{
		name:   engine.Name(),
		engine: engine,
		heat:   heat,
		cool:   cool,
		sink:   sink,
		cfg:    cfg,
		log:    log,
		heatTracker: newEfficacyTracker(
			directionHeat, cfg.TargetEfficacy, cfg.HeatDutyIncrement, cfg.WarmupPolls, log),
		coolTracker: newEfficacyTracker(
			directionCool, cfg.TargetEfficacy, cfg.CoolDutyIncrement, cfg.WarmupPolls, log),
	}
}

// Run polls until the context is cancelled, then forces both relays
// off and reports a final state.
func (m *Manager) Run(ctx context.Context) {
	m.log.Info().
		Dur("poll_interval", m.cfg.PollInterval).
		Bool("active_heating", m.cfg.ActiveHeating).
		Bool("active_cooling", m.cfg.ActiveCooling).
		Msg("manager started")

	for {
		m.poll(ctx)
		m.emitState(ctx)
		select {
		case <-ctx.Done():
			m.shutdown()
			m.log.Info().Msg("manager stopped")
			return
		case <-time.After(m.cfg.PollInterval):
		}
	}
}

func (m *Manager) poll(ctx context.Context) {
	m.pollCount++
	heating, cooling := m.isHeating(), m.isCooling()

	needHeat, err := m.engine.RequiresHeating(ctx, heating, cooling)
	if err != nil {
		m.disable(ctx, err)
		return
	}
	if needHeat {
		m.stopCooling(ctx)
		m.startHeating(ctx)
		return
	}

	needCool, err := m.engine.RequiresCooling(ctx, heating, cooling)
	if err != nil {
		m.disable(ctx, err)
		return
	}
	if needCool {
		m.stopHeating(ctx)
		m.startCooling(ctx)
		return
	}

	m.log.Info().Msg("at set point")
	m.stopHeating(ctx)
	m.stopCooling(ctx)
}

// disable is the fail-safe: on any doubt, both sides off.
func (m *Manager) disable(ctx context.Context, err error) {
	m.log.Error().Err(err).Msg("temperature management disabled")
	m.stopHeating(ctx)
	m.stopCooling(ctx)
}

func (m *Manager) startHeating(ctx context.Context) {
	if !m.cfg.ActiveHeating {
		return
	}
	if m.heat == nil {
		m.log.Warn().Msg("heating required but no heating relay set")
		return
	}
	if !m.heat.Running() {
		if err := m.heat.On(ctx); err != nil {
			m.disable(ctx, err)
			return
		}
		if avg, ok := m.engine.AverageTemperature(); ok {
			m.heatTracker.reset(m.pollCount, avg)
		}
		return
	}
	if err := m.heat.On(ctx); err != nil {
		m.disable(ctx, err)
		return
	}
	m.adjustDuty(ctx, m.heatTracker, m.heat, "heating")
}

func (m *Manager) startCooling(ctx context.Context) {
	if !m.cfg.ActiveCooling {
		return
	}
	if m.cool == nil {
		m.log.Warn().Msg("cooling required but no cooling relay set")
		return
	}
	if !m.cool.Running() {
		if err := m.cool.On(ctx); err != nil {
			m.disable(ctx, err)
			return
		}
		if avg, ok := m.engine.AverageTemperature(); ok {
			m.coolTracker.reset(m.pollCount, avg)
		}
		return
	}
	if err := m.cool.On(ctx); err != nil {
		m.disable(ctx, err)
		return
	}
	m.adjustDuty(ctx, m.coolTracker, m.cool, "cooling")
}

func (m *Manager) stopHeating(ctx context.Context) {
	if m.heat == nil {
		return
	}
	wasOn := m.heat.Running()
	if err := m.heat.Off(ctx); err != nil {
		m.log.Error().Err(err).Msg("failed to stop heating relay")
	}
	if wasOn {
		m.heatTracker.deactivate()
	}
}

func (m *Manager) stopCooling(ctx context.Context) {
	if m.cool == nil {
		return
	}
	wasOn := m.cool.Running()
	if err := m.cool.Off(ctx); err != nil {
		m.log.Error().Err(err).Msg("failed to stop cooling relay")
	}
	if wasOn {
		m.coolTracker.deactivate()
	}
}

func (m *Manager) adjustDuty(ctx context.Context, tracker *efficacyTracker, r *relay.Relay, what string) {
	avg, ok := m.engine.AverageTemperature()
	if !ok {
		return
	}
	delta := tracker.observe(m.pollCount, avg)
	if delta == 0 {
		return
	}

	duty := r.DutyFraction()
	if delta > 0 && duty >= 1 {
		m.log.Warn().Msg(what + " is insufficient for current ambient")
		return
	}

	next := duty + delta
	if next > 1 {
		next = 1
	} else if next < 0 {
		next = 0
	}
	r.SetDutyFraction(next)
	if delta > 0 {
		m.log.Info().Float64("duty", next).Msg(what + " duty cycle increased")
	} else {
		m.log.Info().Float64("duty", next).Msg(what + " duty cycle decreased")
	}
}

func (m *Manager) isHeating() bool {
	return m.heat != nil && m.heat.Running()
}

func (m *Manager) isCooling() bool {
	return m.cool != nil && m.cool.Running()
}

func (m *Manager) state() string {
	switch {
	case m.isHeating():
		return events.StateHeating
	case m.isCooling():
		return events.StateCooling
	default:
		return events.StateIdle
	}
}

func (m *Manager) emitState(ctx context.Context) {
	if m.sink == nil {
		return
	}
	st := events.VesselState{
		Vessel:    m.name,
		State:     m.state(),
		Heating:   m.isHeating(),
		Cooling:   m.isCooling(),
		Heartbeat: time.Now(),
	}
	if v, ok := m.engine.AverageTemperature(); ok {
		st.Temperature = &v
	}
	if v, ok := m.engine.Target(); ok {
		st.Target = &v
	}
	if v, ok := m.engine.Gravity(); ok {
		st.Gravity = &v
	}
	if v, ok := m.engine.Progress(); ok {
		st.Progress = &v
	}
	if m.heat != nil {
		d := m.heat.DutyFraction()
		st.HeatDuty = &d
	}
	if m.cool != nil {
		d := m.cool.DutyFraction()
		st.CoolDuty = &d
	}
	if err := m.sink.Record(ctx, st); err != nil {
		m.log.Error().Err(err).Msg("failed to record vessel state")
	}
}

// shutdown forces the outputs off with a fresh context, since the
// run context is already cancelled by the time it is called.
func (m *Manager) shutdown() {
	if m.heat != nil {
		if err := m.heat.Close(); err != nil {
			m.log.Error().Err(err).Msg("failed to close heating relay")
		}
	}
	if m.cool != nil {
		if err := m.cool.Close(); err != nil {
			m.log.Error().Err(err).Msg("failed to close cooling relay")
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m.emitState(ctx)
}
