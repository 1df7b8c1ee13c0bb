package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/bubbles/systems"
)

// SampleStats summarizes a generated point set.
type SampleStats struct {
	Count int `csv:"count"`

	// Nearest-neighbour distances
	MinPairDist float64 `csv:"min_pair_dist"`
	NearestMean float64 `csv:"nearest_mean"`
	NearestStd  float64 `csv:"nearest_std"`
	NearestP10  float64 `csv:"nearest_p10"`
	NearestP50  float64 `csv:"nearest_p50"`
	NearestP90  float64 `csv:"nearest_p90"`

	// Coverage
	MaxCenterDist float64 `csv:"max_center_dist"`
	MeanHeight    float64 `csv:"mean_height"` // Mean y relative to center
}

// ComputeSampleStats measures spacing and coverage of points within sphere.
func ComputeSampleStats(points []systems.Point3, sphere systems.Sphere) SampleStats {
	s := SampleStats{Count: len(points)}
	if len(points) == 0 {
		return s
	}

	centerDist := make([]float64, len(points))
	heights := make([]float64, len(points))
	for i, p := range points {
		dx, dy, dz := p.X-sphere.Center.X, p.Y-sphere.Center.Y, p.Z-sphere.Center.Z
		centerDist[i] = math.Sqrt(dx*dx + dy*dy + dz*dz)
		heights[i] = dy
	}
	s.MaxCenterDist = floats.Max(centerDist)
	s.MeanHeight = stat.Mean(heights, nil)

	if len(points) < 2 {
		return s
	}

	nearest := NearestDistances(points)
	s.MinPairDist = floats.Min(nearest)
	s.NearestMean, s.NearestStd = stat.MeanStdDev(nearest, nil)

	sort.Float64s(nearest)
	s.NearestP10 = Percentile(nearest, 0.10)
	s.NearestP50 = Percentile(nearest, 0.50)
	s.NearestP90 = Percentile(nearest, 0.90)
	return s
}

// NearestDistances returns, for each point, the distance to its nearest
// other point. Needs at least two points.
func NearestDistances(points []systems.Point3) []float64 {
	kp := make(kdtree.Points, len(points))
	for i, p := range points {
		kp[i] = kdtree.Point{p.X, p.Y, p.Z}
	}
	// New reorders kp; queries below build their own points
	tree := kdtree.New(kp, false)

	out := make([]float64, len(points))
	for i, p := range points {
		// NearestSet leaves the heap sorted nearest first, so index 0 is
		// the query point itself and the last entry is its neighbour.
		keep := kdtree.NewNKeeper(2)
		tree.NearestSet(keep, kdtree.Point{p.X, p.Y, p.Z})
		out[i] = math.Sqrt(keep.Heap[len(keep.Heap)-1].Dist)
	}
	return out
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// LogValue implements slog.LogValuer for structured logging.
func (s SampleStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("count", s.Count),
		slog.Float64("min_pair_dist", s.MinPairDist),
		slog.Float64("nearest_mean", s.NearestMean),
		slog.Float64("nearest_std", s.NearestStd),
		slog.Float64("nearest_p10", s.NearestP10),
		slog.Float64("nearest_p50", s.NearestP50),
		slog.Float64("nearest_p90", s.NearestP90),
		slog.Float64("max_center_dist", s.MaxCenterDist),
		slog.Float64("mean_height", s.MeanHeight),
	)
}

// FrameStats holds aggregated motion statistics for a window of ticks.
type FrameStats struct {
	WindowEnd  int64   `csv:"window_end"`
	SimTime    float64 `csv:"sim_time"`
	Ticks      int     `csv:"ticks"`
	Recycled   int     `csv:"recycled"`    // Particles recycled during the window
	RecycleHz  float64 `csv:"recycle_hz"`  // Recycles per simulated second
	MeanHeight float64 `csv:"mean_height"` // Mean y relative to center at window end
	HeightStd  float64 `csv:"height_std"`
	Outside    int     `csv:"outside"` // Particles outside the sphere at window end
}

// FrameCollector accumulates per-tick motion counters between flushes.
type FrameCollector struct {
	interval int
	ticks    int
	recycled int
	simTime  float64
	heights  []float64
}

// NewFrameCollector creates a collector that flushes every interval ticks.
func NewFrameCollector(interval int) *FrameCollector {
	if interval < 1 {
		interval = 600
	}
	return &FrameCollector{interval: interval}
}

// Record adds one tick's results.
func (c *FrameCollector) Record(dt float64, recycled int) {
	c.ticks++
	c.recycled += recycled
	c.simTime += dt
}

// ShouldFlush reports whether a full window has been recorded.
func (c *FrameCollector) ShouldFlush() bool {
	return c.ticks >= c.interval
}

// Flush summarizes the window against the current positions and resets
// the counters.
func (c *FrameCollector) Flush(windowEnd int64, clock float64, positions []systems.Point3, sphere systems.Sphere) FrameStats {
	s := FrameStats{
		WindowEnd: windowEnd,
		SimTime:   clock,
		Ticks:     c.ticks,
		Recycled:  c.recycled,
	}
	if c.simTime > 0 {
		s.RecycleHz = float64(c.recycled) / c.simTime
	}

	if cap(c.heights) < len(positions) {
		c.heights = make([]float64, len(positions))
	}
	c.heights = c.heights[:len(positions)]
	for i, p := range positions {
		c.heights[i] = p.Y - sphere.Center.Y
		if !sphere.Contains(p) {
			s.Outside++
		}
	}
	switch {
	case len(positions) > 1:
		s.MeanHeight, s.HeightStd = stat.MeanStdDev(c.heights, nil)
	case len(positions) == 1:
		s.MeanHeight = c.heights[0]
	}

	c.ticks = 0
	c.recycled = 0
	c.simTime = 0
	return s
}

// LogStats logs the frame stats using slog.
func (s FrameStats) LogStats() {
	slog.Info("frames",
		"window_end", s.WindowEnd,
		"sim_time", s.SimTime,
		"ticks", s.Ticks,
		"recycled", s.Recycled,
		"recycle_hz", s.RecycleHz,
		"mean_height", s.MeanHeight,
		"height_std", s.HeightStd,
		"outside", s.Outside,
	)
}
