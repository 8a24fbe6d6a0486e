package jsonplot

import (
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

// Same default figure size as matplotlib.
const (
	DefaultFigureWidth  = 6.4 * vg.Inch
	DefaultFigureHeight = 4.8 * vg.Inch
)

// Figure scopes one plot from creation to release. Every plot operation
// creates its own figure and closes it before returning.
type Figure struct {
	Plot *plot.Plot

	width  vg.Length
	height vg.Length
}

func newFigure(width, height vg.Length) *Figure {
	return &Figure{
		Plot:   plot.New(),
		width:  width,
		height: height,
	}
}

// Save writes the figure to path. The image format is taken from the file
// extension.
func (f *Figure) Save(path string) error {
	if f.Plot == nil {
		return errors.New("figure is closed")
	}
	return f.Plot.Save(f.width, f.height, path)
}

// Close releases the plot. gonum/plot holds no native or global state, so
// dropping the reference is all there is to free.
func (f *Figure) Close() {
	f.Plot = nil
}
