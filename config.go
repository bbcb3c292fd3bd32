package pointindex

import (
	"fmt"
	"io"
	"runtime"

	"github.com/charmbracelet/log"
)

// Config controls index shape and query behavior.
// Start with [DefaultConfig] and override the fields you need.
type Config struct {
	// Dims is the dimensionality of stored points, 2 or 3. Default: 3.
	Dims int

	// MaxEntries is the leaf capacity and the interior fan-out. A node that
	// grows past it is split. Must be >= 2. Default: 8.
	MaxEntries int

	// MinEntries is the minimum occupancy of a non-root node after a
	// removal; underfull nodes are dissolved and their entries reinserted.
	// Must satisfy 1 <= MinEntries <= MaxEntries/2. Default: 3.
	MinEntries int

	// Metric measures distances for Nearest, Within and the batch queries.
	// Box and Sphere selection is always Euclidean.
	// Default: EuclideanMetric.
	Metric Metric

	// Workers controls the number of goroutines used by batch queries.
	// 0 means runtime.NumCPU().
	Workers int

	// Logger receives debug output about rebuilds and error output about
	// structural faults. nil discards everything.
	Logger *log.Logger
}

// DefaultConfig returns a Config with reasonable defaults for 3D particle
// sets.
func DefaultConfig() Config {
	return Config{
		Dims:       3,
		MaxEntries: 8,
		MinEntries: 3,
		Metric:     EuclideanMetric{},
	}
}

// applyDefaults fills in zero-valued config fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Dims == 0 {
		cfg.Dims = 3
	}
	if cfg.MaxEntries == 0 {
		cfg.MaxEntries = 8
	}
	if cfg.MinEntries == 0 {
		cfg.MinEntries = max(1, min(3, cfg.MaxEntries/2))
	}
	if cfg.Metric == nil {
		cfg.Metric = EuclideanMetric{}
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
}

// validateConfig checks that cfg fields are valid and returns a descriptive error if not.
func validateConfig(cfg *Config) error {
	if cfg.Dims != 2 && cfg.Dims != 3 {
		return fmt.Errorf("pointindex: Dims must be 2 or 3, got %d", cfg.Dims)
	}
	if cfg.MaxEntries < 2 {
		return fmt.Errorf("pointindex: MaxEntries must be >= 2, got %d", cfg.MaxEntries)
	}
	if cfg.MinEntries < 1 || cfg.MinEntries > cfg.MaxEntries/2 {
		return fmt.Errorf("pointindex: MinEntries must be in [1, MaxEntries/2=%d], got %d", cfg.MaxEntries/2, cfg.MinEntries)
	}
	if m, ok := cfg.Metric.(MinkowskiMetric); ok && m.P < 1 {
		return fmt.Errorf("pointindex: MinkowskiMetric P must be >= 1, got %g", m.P)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("pointindex: Workers must be >= 0, got %d", cfg.Workers)
	}
	return nil
}
