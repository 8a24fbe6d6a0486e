package jsonplot

import (
	"image/color"
	"math"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Renderer draws y against x onto a plot. x and y always have the same
// length and may contain NaN for missing cells. Style is passed through from
// the caller untouched.
type Renderer interface {
	Name() string
	Render(p *plot.Plot, x, y []float64, style Style) error
}

type RenderFunc func(p *plot.Plot, x, y []float64, style Style) error

type funcRenderer struct {
	name string
	fn   RenderFunc
}

// NewRenderer wraps fn into a Renderer. The name is used in output file names.
func NewRenderer(name string, fn RenderFunc) Renderer {
	return &funcRenderer{name: name, fn: fn}
}

func (r *funcRenderer) Name() string {
	return r.name
}

func (r *funcRenderer) Render(p *plot.Plot, x, y []float64, style Style) error {
	return r.fn(p, x, y, style)
}

// The closed set of renderers that can be selected by name.
var namedRenderers = map[string]Renderer{
	"plot":         NewRenderer("plot", lineRenderer(lineVariant{})),
	"step":         NewRenderer("step", lineRenderer(lineVariant{step: plotter.PreStep})),
	"fill_between": NewRenderer("fill_between", lineRenderer(lineVariant{fill: true})),
	"loglog":       NewRenderer("loglog", lineRenderer(lineVariant{logX: true, logY: true})),
	"semilogx":     NewRenderer("semilogx", lineRenderer(lineVariant{logX: true})),
	"semilogy":     NewRenderer("semilogy", lineRenderer(lineVariant{logY: true})),
	"scatter":      NewRenderer("scatter", renderScatter),
	"bar":          NewRenderer("bar", renderBar),
}

// PlotKinds lists the names accepted by Named, sorted.
func PlotKinds() []string {
	names := maps.Keys(namedRenderers)
	sort.Strings(names)
	return names
}

type lineVariant struct {
	step       plotter.StepKind
	fill       bool
	logX, logY bool
}

type lineOptions struct {
	Axes   axesStyle   `style:",squash"`
	Paint  paintStyle  `style:",squash"`
	Stroke strokeStyle `style:",squash"`
	Marker markerStyle `style:",squash"`
}

func lineRenderer(variant lineVariant) RenderFunc {
	return func(p *plot.Plot, x, y []float64, style Style) error {
		var opts lineOptions
		if err := style.Decode(&opts); err != nil {
			return err
		}

		c, err := opts.Paint.color()
		if err != nil {
			return err
		}

		ls, err := opts.Stroke.lineStyle(c)
		if err != nil {
			return err
		}

		xys := finiteXYs(x, y)
		if variant.logX || variant.logY {
			// Log axes cannot show values <= 0, they are masked out.
			xys = Filter(xys, func(xy plotter.XY) bool {
				return (!variant.logX || xy.X > 0) && (!variant.logY || xy.Y > 0)
			})
		}
		if len(xys) == 0 {
			return ErrNoData
		}

		opts.Axes.apply(p)

		line, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		line.LineStyle = ls
		line.StepStyle = variant.step
		if variant.fill {
			line.FillColor = c
		}
		p.Add(line)
		thumbs := []plot.Thumbnailer{line}

		if opts.Marker.Marker != "" {
			gs, err := opts.Marker.glyphStyle(c)
			if err != nil {
				return err
			}
			points, err := plotter.NewScatter(xys)
			if err != nil {
				return err
			}
			points.GlyphStyle = gs
			p.Add(points)
			thumbs = append(thumbs, points)
		}

		if variant.logX {
			p.X.Scale = plot.LogScale{}
			p.X.Tick.Marker = plot.LogTicks{Prec: -1}
		}
		if variant.logY {
			p.Y.Scale = plot.LogScale{}
			p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
		}

		opts.Axes.legend(p, thumbs...)
		return nil
	}
}

type scatterOptions struct {
	Axes   axesStyle   `style:",squash"`
	Paint  paintStyle  `style:",squash"`
	Marker markerStyle `style:",squash"`
}

func renderScatter(p *plot.Plot, x, y []float64, style Style) error {
	var opts scatterOptions
	if err := style.Decode(&opts); err != nil {
		return err
	}

	c, err := opts.Paint.color()
	if err != nil {
		return err
	}

	gs, err := opts.Marker.glyphStyle(c)
	if err != nil {
		return err
	}

	xys := finiteXYs(x, y)
	if len(xys) == 0 {
		return ErrNoData
	}

	opts.Axes.apply(p)

	s, err := plotter.NewScatter(xys)
	if err != nil {
		return err
	}
	s.GlyphStyle = gs
	p.Add(s)

	opts.Axes.legend(p, s)
	return nil
}

type barOptions struct {
	Axes  axesStyle  `style:",squash"`
	Paint paintStyle `style:",squash"`
	Width float64    `style:"width"`
}

func renderBar(p *plot.Plot, x, y []float64, style Style) error {
	opts := barOptions{Width: 0.8}
	if err := style.Decode(&opts); err != nil {
		return err
	}
	if opts.Width <= 0 {
		return errors.Wrapf(ErrInvalidStyle, "bar width must be positive, got %v", opts.Width)
	}

	c, err := opts.Paint.color()
	if err != nil {
		return err
	}

	xys := finiteXYs(x, y)
	if len(xys) == 0 {
		return ErrNoData
	}

	opts.Axes.apply(p)

	b := &bars{xys: xys, width: opts.Width, color: c}
	p.Add(b)

	opts.Axes.legend(p, b)
	return nil
}

// bars draws one bar per point, centred on X and rising from zero to Y. The
// width is in data units. plotter.BarChart only places bars at integer
// offsets, which cannot represent arbitrary x positions.
type bars struct {
	xys   plotter.XYs
	width float64
	color color.Color
}

func (b *bars) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	half := b.width / 2

	for _, xy := range b.xys {
		x0, x1 := trX(xy.X-half), trX(xy.X+half)
		y0, y1 := trY(0), trY(xy.Y)
		pts := []vg.Point{{X: x0, Y: y0}, {X: x0, Y: y1}, {X: x1, Y: y1}, {X: x1, Y: y0}}
		c.FillPolygon(b.color, c.ClipPolygonXY(pts))
	}
}

func (b *bars) DataRange() (xmin, xmax, ymin, ymax float64) {
	xmin, xmax = math.Inf(1), math.Inf(-1)
	half := b.width / 2

	for _, xy := range b.xys {
		xmin = math.Min(xmin, xy.X-half)
		xmax = math.Max(xmax, xy.X+half)
		ymin = math.Min(ymin, xy.Y)
		ymax = math.Max(ymax, xy.Y)
	}

	return xmin, xmax, ymin, ymax
}

func (b *bars) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	c.FillPolygon(b.color, c.ClipPolygonXY(pts))
}

type histOptions struct {
	Axes    axesStyle  `style:",squash"`
	Paint   paintStyle `style:",squash"`
	Bins    int        `style:"bins"`
	Density bool       `style:"density"`
}

const defaultBins = 10

// renderHist draws a frequency histogram of a numeric column, or one bar per
// category with its count for a categorical column.
func renderHist(p *plot.Plot, col Column, style Style) error {
	opts := histOptions{Bins: defaultBins}
	if err := style.Decode(&opts); err != nil {
		return err
	}
	if opts.Bins <= 0 {
		return errors.Wrapf(ErrInvalidStyle, "bins must be positive, got %d", opts.Bins)
	}

	c, err := opts.Paint.color()
	if err != nil {
		return err
	}

	if col.Categorical() {
		return renderCategoryCounts(p, col, opts, c)
	}

	values := finiteValues(col.Values)
	if len(values) == 0 {
		return ErrNoData
	}

	opts.Axes.apply(p)

	h, err := plotter.NewHist(values, opts.Bins)
	if err != nil {
		return err
	}
	h.FillColor = c
	h.LineStyle.Color = color.White
	if opts.Density {
		h.Normalize(1)
	}
	p.Add(h)

	opts.Axes.legend(p, h)
	return nil
}

func renderCategoryCounts(p *plot.Plot, col Column, opts histOptions, c color.Color) error {
	if len(col.Categories) == 0 {
		return ErrNoData
	}

	counts := make([]float64, len(col.Categories))
	total := 0.0
	for _, v := range col.Values {
		if math.IsNaN(v) {
			continue
		}
		counts[int(v)]++
		total++
	}
	if opts.Density {
		for i := range counts {
			counts[i] /= total
		}
	}

	xys := make(plotter.XYs, len(counts))
	for i, n := range counts {
		xys[i] = plotter.XY{X: float64(i), Y: n}
	}

	opts.Axes.apply(p)

	b := &bars{xys: xys, width: 0.8, color: c}
	p.Add(b)
	p.X.Tick.Marker = col.ticks()

	opts.Axes.legend(p, b)
	return nil
}
