package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrStructuralMismatch marks a report pair whose blocks cannot be trusted
	// to describe the same areas. No calendar is produced for such a pair.
	ErrStructuralMismatch = errors.New("structural mismatch")

	// ErrLookupMiss marks a weather code with no telop entry. It only
	// invalidates the area that referenced the code.
	ErrLookupMiss = errors.New("weather code lookup miss")
)

func mismatchf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStructuralMismatch, fmt.Sprintf(format, args...))
}
