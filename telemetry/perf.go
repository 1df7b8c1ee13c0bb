package telemetry

import (
	"log/slog"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Step phases, in the order Game.Step runs them.
const (
	PhaseAdvance   = "advance"
	PhaseSync      = "sync"
	PhaseTelemetry = "telemetry"
)

var stepPhases = []string{PhaseAdvance, PhaseSync, PhaseTelemetry}

// tickTiming is one completed step: wall time plus time spent per phase.
type tickTiming struct {
	total  time.Duration
	phases map[string]time.Duration
}

// PerfCollector times simulation steps into a fixed ring of the most recent
// ticks. Frame pacing is tracked separately so the viewer can show FPS even
// while paused.
type PerfCollector struct {
	ring   []tickTiming
	next   int
	filled int

	// open is true between StartTick and EndTick/CancelTick.
	open     bool
	started  time.Time
	phase    string
	phaseAt  time.Time
	inFlight map[string]time.Duration

	prevFrame time.Time
	frameDur  time.Duration

	particles int
}

// NewPerfCollector keeps the last window ticks; window < 1 means 60.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{ring: make([]tickTiming, window)}
}

func (p *PerfCollector) StartTick() {
	p.open = true
	p.started = time.Now()
	p.phase = ""
	p.inFlight = make(map[string]time.Duration, len(stepPhases))
}

// StartPhase closes the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase string) {
	if !p.open {
		return
	}
	now := time.Now()
	p.closePhase(now)
	p.phase = phase
	p.phaseAt = now
}

// EndTick stores the open tick in the ring. Without a preceding StartTick it
// does nothing.
func (p *PerfCollector) EndTick() {
	if !p.open {
		return
	}
	now := time.Now()
	p.closePhase(now)
	p.ring[p.next] = tickTiming{total: now.Sub(p.started), phases: p.inFlight}
	p.next = (p.next + 1) % len(p.ring)
	if p.filled < len(p.ring) {
		p.filled++
	}
	p.open = false
}

// CancelTick drops the open tick. Used when a step fails part way so a
// half-timed tick does not skew the window.
func (p *PerfCollector) CancelTick() {
	p.open = false
	p.phase = ""
	p.inFlight = nil
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase != "" {
		p.inFlight[p.phase] += now.Sub(p.phaseAt)
	}
}

// Len is the number of ticks currently in the window.
func (p *PerfCollector) Len() int { return p.filled }

// SetWorkload sets the particle count each tick advances.
func (p *PerfCollector) SetWorkload(particles int) {
	p.particles = particles
}

// RecordFrame marks a rendered frame; the gap to the previous mark is the
// frame duration.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.prevFrame.IsZero() {
		p.frameDur = now.Sub(p.prevFrame)
	}
	p.prevFrame = now
}

// PerfStats summarises the tick window.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration

	// Mean time per phase and its share of the mean tick, in percent.
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	TicksPerSecond     float64
	ParticlesPerSecond float64

	FrameDuration time.Duration
	FPS           float64
}

func (p *PerfCollector) Stats() PerfStats {
	out := PerfStats{
		PhaseAvg:      make(map[string]time.Duration),
		PhasePct:      make(map[string]float64),
		FrameDuration: p.frameDur,
	}
	if p.frameDur > 0 {
		out.FPS = 1 / p.frameDur.Seconds()
	}
	if p.filled == 0 {
		return out
	}

	totals := make([]float64, p.filled)
	perPhase := make(map[string]float64)
	for i, tick := range p.ring[:p.filled] {
		totals[i] = float64(tick.total)
		for name, d := range tick.phases {
			perPhase[name] += float64(d)
		}
	}

	mean := stat.Mean(totals, nil)
	out.AvgTickDuration = time.Duration(mean)
	out.MinTickDuration = time.Duration(floats.Min(totals))
	out.MaxTickDuration = time.Duration(floats.Max(totals))

	n := float64(p.filled)
	for name, sum := range perPhase {
		avg := sum / n
		out.PhaseAvg[name] = time.Duration(avg)
		if mean > 0 {
			out.PhasePct[name] = avg / mean * 100
		}
	}
	if mean > 0 {
		out.TicksPerSecond = float64(time.Second) / mean
		out.ParticlesPerSecond = out.TicksPerSecond * float64(p.particles)
	}
	return out
}

// LogStats writes the window at info level. Phases under 0.1% are omitted.
func (s PerfStats) LogStats() {
	args := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"min_tick_us", s.MinTickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
		"particles_per_sec", int(s.ParticlesPerSecond),
	}
	if s.FPS > 0 {
		args = append(args, "fps", int(s.FPS))
	}
	for _, name := range stepPhases {
		if pct := s.PhasePct[name]; pct > 0.1 {
			args = append(args, name+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", args...)
}

func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
		slog.Float64("particles_per_sec", s.ParticlesPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, name := range stepPhases {
		if pct, ok := s.PhasePct[name]; ok {
			attrs = append(attrs, slog.Float64(name+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one row of perf.csv.
type PerfStatsCSV struct {
	WindowEnd       int64   `csv:"window_end"`
	AvgTickUS       int64   `csv:"avg_tick_us"`
	MinTickUS       int64   `csv:"min_tick_us"`
	MaxTickUS       int64   `csv:"max_tick_us"`
	TicksPerSec     float64 `csv:"ticks_per_sec"`
	ParticlesPerSec float64 `csv:"particles_per_sec"`
	FPS             float64 `csv:"fps"`
	AdvancePct      float64 `csv:"advance_pct"`
	SyncPct         float64 `csv:"sync_pct"`
	TelemetryPct    float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats for the window ending at tick windowEnd.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:       windowEnd,
		AvgTickUS:       s.AvgTickDuration.Microseconds(),
		MinTickUS:       s.MinTickDuration.Microseconds(),
		MaxTickUS:       s.MaxTickDuration.Microseconds(),
		TicksPerSec:     s.TicksPerSecond,
		ParticlesPerSec: s.ParticlesPerSecond,
		FPS:             s.FPS,
		AdvancePct:      s.PhasePct[PhaseAdvance],
		SyncPct:         s.PhasePct[PhaseSync],
		TelemetryPct:    s.PhasePct[PhaseTelemetry],
	}
}
