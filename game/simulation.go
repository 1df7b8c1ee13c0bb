package game

import (
	"github.com/pthm-cable/bubbles/telemetry"
)

// Update advances one rendered frame of dt seconds. Paused games only
// record frame timing.
func (g *Game) Update(dt float64) error {
	g.perfCollector.RecordFrame()
	if g.paused {
		return nil
	}
	if dt > maxFrameDT {
		dt = maxFrameDT
	}
	return g.Step(dt)
}

// UpdateHeadless advances one fixed step of sim.dt.
func (g *Game) UpdateHeadless() error {
	return g.Step(g.cfg.Sim.DT)
}

// Step runs one simulation tick: advance the field, sync the scene, then
// telemetry. A failed advance leaves the clock and positions untouched,
// and a failed tick is left out of the perf window.
func (g *Game) Step(dt float64) error {
	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseAdvance)
	t := g.clock + dt
	recycled, err := g.field.Advance(dt, t, g.params)
	if err != nil {
		g.perfCollector.CancelTick()
		return err
	}
	g.clock = t
	g.tick++

	g.perfCollector.StartPhase(telemetry.PhaseSync)
	if err := g.scene.Sync(g.field.Positions()); err != nil {
		g.perfCollector.CancelTick()
		return err
	}

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.frames.Record(dt, recycled)
	g.flushTelemetry()

	g.perfCollector.EndTick()
	return nil
}
