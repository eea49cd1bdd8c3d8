package alloc

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// SizeClassConfig defines the segregated free-list strategy.
// Either Limits lists the finite class bounds explicitly, or the ladder
// fields describe linear small steps followed by geometric growth.
// A final catch-all class is always appended.
type SizeClassConfig struct {
	// Name for this configuration (for reports and the CLI)
	Name string

	// Limits are inclusive upper bounds of the finite classes, ascending.
	// When set, the ladder settings below are ignored.
	Limits []int

	// Small block settings (linear increments)
	SmallMin       int // Smallest block size considered (typically MinBlockSize)
	SmallMax       int // Max for linear increments
	SmallIncrement int // Increment between small classes

	// Medium block settings (logarithmic growth)
	MediumMax    int     // Sizes above this land in the catch-all class
	GrowthFactor float64 // Exponential growth factor (1.5, 2.0, etc.)
}

// Predefined configurations.
var (
	// Classic: power-of-two classes 16 .. 4096 plus a catch-all, 10 lists.
	ConfigClassic = SizeClassConfig{
		Name:   "Classic",
		Limits: []int{16, 32, 64, 128, 256, 512, 1024, 2048, 4096},
	}

	// FineGrained: one class per 8 bytes up to 256, then 1.5x steps to 16K.
	// 28 linear + 11 geometric + catch-all = 40 lists.
	ConfigFineGrained = SizeClassConfig{
		Name:           "FineGrained",
		SmallMin:       32,
		SmallMax:       256,
		SmallIncrement: 8,
		MediumMax:      16384,
		GrowthFactor:   1.5,
	}

	// Coarse: 32-byte steps to 256, then doubling to 16K.
	// 7 linear + 6 geometric + catch-all = 14 lists.
	ConfigCoarse = SizeClassConfig{
		Name:           "Coarse",
		SmallMin:       32,
		SmallMax:       256,
		SmallIncrement: 32,
		MediumMax:      16384,
		GrowthFactor:   2.0,
	}

	// Default configuration (used if none specified).
	DefaultConfig = ConfigClassic
)

var errBadConfig = errors.New("alloc: invalid size class config")

// LookupConfig resolves a configuration by name, case-insensitively.
// Accepted names: classic, fine (finegrained), coarse.
func LookupConfig(name string) (SizeClassConfig, bool) {
	switch strings.ToLower(name) {
	case "", "classic":
		return ConfigClassic, true
	case "fine", "finegrained":
		return ConfigFineGrained, true
	case "coarse":
		return ConfigCoarse, true
	}
	return SizeClassConfig{}, false
}

// ClassRange is the inclusive size range covered by one class.
// Max is -1 for the catch-all class.
type ClassRange struct {
	Index int
	Min   int
	Max   int
}

// Ranges returns the class ladder described by the config.
func (c SizeClassConfig) Ranges() ([]ClassRange, error) {
	table, err := newSizeClassTable(c)
	if err != nil {
		return nil, err
	}
	out := make([]ClassRange, 0, table.NumClasses())
	lo := 1
	for i, hi := range table.bounds {
		out = append(out, ClassRange{Index: i, Min: lo, Max: hi})
		lo = hi + 1
	}
	out = append(out, ClassRange{Index: len(table.bounds), Min: lo, Max: -1})
	return out, nil
}

// sizeClassTable holds the computed size class boundaries.
type sizeClassTable struct {
	config SizeClassConfig
	bounds []int // Inclusive upper bound of each finite class
}

// newSizeClassTable computes size class boundaries from config.
func newSizeClassTable(config SizeClassConfig) (*sizeClassTable, error) {
	table := &sizeClassTable{config: config}

	if len(config.Limits) > 0 {
		for i, b := range config.Limits {
			if b <= 0 || (i > 0 && b <= config.Limits[i-1]) {
				return nil, fmt.Errorf("%w %q: limits must be positive and ascending", errBadConfig, config.Name)
			}
		}
		table.bounds = append([]int(nil), config.Limits...)
		return table, nil
	}

	if config.SmallIncrement <= 0 || config.SmallMin <= 0 || config.GrowthFactor <= 1 {
		return nil, fmt.Errorf("%w %q: ladder needs positive min and increment and growth > 1", errBadConfig, config.Name)
	}

	table.bounds = make([]int, 0, 64)

	// Phase 1: Small blocks (linear increments)
	for size := config.SmallMin; size < config.SmallMax; size += config.SmallIncrement {
		table.bounds = append(table.bounds, size+config.SmallIncrement-1)
	}

	// Phase 2: Medium blocks (logarithmic growth)
	size := max(config.SmallMax, config.SmallMin)
	for size < config.MediumMax {
		nextSize := int(math.Ceil(float64(size) * config.GrowthFactor))
		if nextSize <= size {
			nextSize = size + 1 // Ensure progress
		}
		table.bounds = append(table.bounds, nextSize-1)
		size = nextSize
	}

	if len(table.bounds) == 0 {
		return nil, fmt.Errorf("%w %q: no classes", errBadConfig, config.Name)
	}
	return table, nil
}

// classify returns the class index for a block size. Sizes above every
// finite bound map to the catch-all class; sizes <= 0 return NumClasses(),
// one past the last valid index.
func (t *sizeClassTable) classify(size int) int {
	if size <= 0 {
		return t.NumClasses()
	}

	// Binary search for the smallest bound that fits
	lo, hi := 0, len(t.bounds)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		if size <= t.bounds[mid] {
			if mid == 0 || size > t.bounds[mid-1] {
				return mid
			}
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}

	// Larger than all bounds → catch-all
	return len(t.bounds)
}

// String returns a human-readable description of the size class table.
func (t *sizeClassTable) String() string {
	return t.config.Name
}

// NumClasses returns the number of free lists, catch-all included.
func (t *sizeClassTable) NumClasses() int {
	return len(t.bounds) + 1
}
