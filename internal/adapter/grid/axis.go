// Package grid holds immutable in-memory forecast grids and point lookups on them.
package grid

import (
	"fmt"
	"math"
	"sort"
)

// NearestIndex returns the index of the axis value closest to target.
// The axis must be sorted ascending.
//
//   - target below the first value (or NaN, or an empty axis) -> 0
//   - target above the last value -> last index
//   - target equidistant from two neighbours -> the lower index
func NearestIndex(axis []float32, target float32) int {
	if len(axis) == 0 || math.IsNaN(float64(target)) {
		return 0
	}

	// First index whose value is >= target.
	i := sort.Search(len(axis), func(i int) bool { return axis[i] >= target })

	switch {
	case i == len(axis):
		return len(axis) - 1
	case i == 0 || axis[i] == target:
		return i
	}

	prevDiff := target - axis[i-1]
	nextDiff := axis[i] - target
	if prevDiff > nextDiff {
		return i
	}
	return i - 1
}

// validateAxis checks that an axis is non-empty, finite and strictly increasing.
func validateAxis(name string, axis []float32) error {
	if len(axis) == 0 {
		return fmt.Errorf("%s axis is empty", name)
	}
	for i, v := range axis {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("%s axis has non-finite value at index %d", name, i)
		}
		if i > 0 && v <= axis[i-1] {
			return fmt.Errorf("%s coordinates must be strictly increasing (index %d)", name, i)
		}
	}
	return nil
}
