package grid

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is matched by errors.Is for every *RangeError.
var ErrOutOfRange = errors.New("time window out of range")

// RangeError reports a requested time window that the snapshot does not cover.
type RangeError struct {
	Offset    int
	Length    int
	TimeSteps int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("grid: window [%d, %d) outside available time steps [0, %d)",
		e.Offset, e.Offset+e.Length, e.TimeSteps)
}

// Is reports whether target is ErrOutOfRange.
func (e *RangeError) Is(target error) bool {
	return target == ErrOutOfRange
}
