package jsonplot

import (
	"strings"

	"github.com/pkg/errors"
)

// PlotKind selects the renderer for a paired-column plot. It is either a name
// from the built-in set (see PlotKinds) or a caller supplied Renderer.
type PlotKind struct {
	name     string
	renderer Renderer
}

func Named(name string) PlotKind {
	return PlotKind{name: name}
}

func Custom(renderer Renderer) PlotKind {
	return PlotKind{renderer: renderer}
}

// ParsePlotKind accepts a plot kind name, a Renderer or a PlotKind. Any other
// value fails with ErrInvalidPlotType, an unknown name with
// ErrUnknownPlotKind.
func ParsePlotKind(v any) (PlotKind, error) {
	var kind PlotKind
	switch k := v.(type) {
	case PlotKind:
		kind = k
	case string:
		kind = Named(k)
	case Renderer:
		kind = Custom(k)
	default:
		return PlotKind{}, errors.Wrapf(ErrInvalidPlotType, "got %T", v)
	}

	if _, _, err := kind.resolve(); err != nil {
		return PlotKind{}, err
	}
	return kind, nil
}

func (k PlotKind) String() string {
	if k.renderer != nil {
		return k.renderer.Name()
	}
	return k.name
}

// resolve returns the name used in output file names and the renderer.
func (k PlotKind) resolve() (string, Renderer, error) {
	switch {
	case k.renderer != nil:
		name := k.renderer.Name()
		if name == "" || strings.ContainsAny(name, `/\`) {
			return "", nil, errors.Wrapf(ErrInvalidPlotType, "renderer name %q cannot be used in a file name", name)
		}
		return name, k.renderer, nil

	case k.name != "":
		renderer, ok := namedRenderers[k.name]
		if !ok {
			return "", nil, errors.Wrapf(ErrUnknownPlotKind, "plot type %q is not valid", k.name)
		}
		return k.name, renderer, nil
	}

	return "", nil, ErrInvalidPlotType
}
