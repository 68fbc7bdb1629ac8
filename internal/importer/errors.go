package importer

import (
	"errors"
	"fmt"
)

// Row-level error kinds. Structural and referential errors are produced by
// the importers themselves before touching storage; anything the database
// rejects beyond the anticipated conflict target surfaces as a constraint
// error. Stream errors abort the file.
var (
	ErrStructural  = errors.New("structural input error")
	ErrReferential = errors.New("referential error")
	ErrConstraint  = errors.New("constraint violation")
	ErrStream      = errors.New("stream error")
)

func structuralf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStructural, fmt.Sprintf(format, args...))
}

func referentialf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrReferential, fmt.Sprintf(format, args...))
}

func constraintf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConstraint, fmt.Sprintf(format, args...))
}
