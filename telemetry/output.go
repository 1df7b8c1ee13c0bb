package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/bubbles/config"
	"github.com/pthm-cable/bubbles/systems"
)

// PointRecord is one position row in points.csv and in position files
// accepted by LoadPositions.
type PointRecord struct {
	Index int     `csv:"index"`
	X     float64 `csv:"x"`
	Y     float64 `csv:"y"`
	Z     float64 `csv:"z"`
}

// csvLog is an append-only CSV file that writes its header once.
type csvLog struct {
	file          *os.File
	headerWritten bool
}

func createCSVLog(dir, name string) (*csvLog, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvLog{file: f}, nil
}

// write appends records, which must be a slice of csv-tagged structs.
func (l *csvLog) write(records any) error {
	if !l.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, l.file); err != nil {
			return err
		}
		l.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, l.file)
}

func (l *csvLog) close() error {
	if l == nil {
		return nil
	}
	return l.file.Close()
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir    string
	frames *csvLog
	perf   *csvLog
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	frames, err := createCSVLog(dir, "frames.csv")
	if err != nil {
		return nil, err
	}
	perf, err := createCSVLog(dir, "perf.csv")
	if err != nil {
		frames.close()
		return nil, err
	}

	return &OutputManager{dir: dir, frames: frames, perf: perf}, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteFrames appends a frame window record to frames.csv.
func (om *OutputManager) WriteFrames(stats FrameStats) error {
	if om == nil {
		return nil
	}
	if err := om.frames.write([]FrameStats{stats}); err != nil {
		return fmt.Errorf("writing frames: %w", err)
	}
	return nil
}

// WritePerf appends a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int64) error {
	if om == nil {
		return nil
	}
	if err := om.perf.write([]PerfStatsCSV{stats.ToCSV(windowEnd)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteSamples saves the generated point set to samples.csv and its
// summary to sample_stats.csv.
func (om *OutputManager) WriteSamples(points []systems.Point3, stats SampleStats) error {
	if om == nil {
		return nil
	}
	if err := WritePositions(filepath.Join(om.dir, "samples.csv"), points); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(om.dir, "sample_stats.csv"))
	if err != nil {
		return fmt.Errorf("creating sample_stats.csv: %w", err)
	}
	defer f.Close()
	if err := gocsv.Marshal([]SampleStats{stats}, f); err != nil {
		return fmt.Errorf("writing sample stats: %w", err)
	}
	return nil
}

// WriteSnapshot saves a position snapshot to points.csv.
func (om *OutputManager) WriteSnapshot(positions []systems.Point3) error {
	if om == nil {
		return nil
	}
	return WritePositions(filepath.Join(om.dir, "points.csv"), positions)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	if err := om.frames.close(); err != nil {
		firstErr = err
	}
	if err := om.perf.close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// WritePositions writes positions as index,x,y,z rows.
func WritePositions(path string, positions []systems.Point3) error {
	records := make([]PointRecord, len(positions))
	for i, p := range positions {
		records[i] = PointRecord{Index: i, X: p.X, Y: p.Y, Z: p.Z}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	if err := gocsv.Marshal(records, f); err != nil {
		return fmt.Errorf("writing positions: %w", err)
	}
	return nil
}

// LoadPositions reads positions written by WritePositions. Rows are
// returned in file order; the index column is informational.
func LoadPositions(path string) ([]systems.Point3, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening positions: %w", err)
	}
	defer f.Close()

	var records []PointRecord
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, fmt.Errorf("parsing positions: %w", err)
	}

	positions := make([]systems.Point3, len(records))
	for i, r := range records {
		positions[i] = systems.Point3{X: r.X, Y: r.Y, Z: r.Z}
	}
	return positions, nil
}
