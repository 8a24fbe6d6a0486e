package jsonplot

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// Returned (wrapped in a *LoadError) when the source JSON cannot be read or
	// is not a column-oriented table.
	ErrLoad = errors.New("unable to load column-oriented json")

	ErrColumnNotFound = errors.New("column not found")

	// Configuration errors. Both are returned before anything is rendered.
	ErrInvalidPlotType = errors.New("plot type must be a plot kind name or a renderer")
	ErrUnknownPlotKind = errors.New("unknown plot kind")

	// Rendering errors.
	ErrInvalidStyle = errors.New("invalid style")
	ErrNoData       = errors.New("no plottable values")
)

// LoadError is returned by the table loader. It matches ErrLoad with
// errors.Is and unwraps to the underlying cause (such as fs.ErrNotExist).
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %v", ErrLoad, e.Err)
	}
	return fmt.Sprintf("%v %s: %v", ErrLoad, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func (e *LoadError) Is(target error) bool {
	return target == ErrLoad
}
