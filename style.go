package jsonplot

import (
	"encoding/hex"
	"image/color"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Style holds renderer options. It is forwarded verbatim to the renderer,
// which decides which keys it understands. The built-in renderers reject keys
// they do not know with ErrInvalidStyle.
type Style map[string]any

// Decode copies the style into out, a pointer to a struct whose fields are
// tagged with `style:"key"`. Unknown keys are an error.
func (s Style) Decode(out any) error {
	if len(s) == 0 {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "style",
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(map[string]any(s)); err != nil {
		return errors.Wrapf(ErrInvalidStyle, "%v", err)
	}
	return nil
}

// Matplotlib's default color cycle, addressable as "C0".."C9".
var colorCycle = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

var defaultColor = mustParseColor(colorCycle[0])

type axesStyle struct {
	Title  string `style:"title"`
	XLabel string `style:"xlabel"`
	YLabel string `style:"ylabel"`
	Label  string `style:"label"`
	Grid   bool   `style:"grid"`
}

func (a axesStyle) apply(p *plot.Plot) {
	if a.Title != "" {
		p.Title.Text = a.Title
	}
	if a.XLabel != "" {
		p.X.Label.Text = a.XLabel
	}
	if a.YLabel != "" {
		p.Y.Label.Text = a.YLabel
	}
	if a.Grid {
		p.Add(plotter.NewGrid())
	}
}

func (a axesStyle) legend(p *plot.Plot, thumbs ...plot.Thumbnailer) {
	if a.Label != "" {
		p.Legend.Add(a.Label, thumbs...)
	}
}

type paintStyle struct {
	Color string   `style:"color"`
	Alpha *float64 `style:"alpha"`
}

func (s paintStyle) color() (color.Color, error) {
	c := defaultColor
	if s.Color != "" {
		parsed, err := parseColor(s.Color)
		if err != nil {
			return nil, err
		}
		c = parsed
	}

	if s.Alpha != nil {
		if *s.Alpha < 0 || *s.Alpha > 1 {
			return nil, errors.Wrapf(ErrInvalidStyle, "alpha %v is outside [0, 1]", *s.Alpha)
		}
		nrgba := color.NRGBAModel.Convert(c).(color.NRGBA)
		nrgba.A = uint8(*s.Alpha*255 + 0.5)
		c = nrgba
	}

	return c, nil
}

type strokeStyle struct {
	LineWidth float64 `style:"linewidth"`
	LineStyle string  `style:"linestyle"`
}

func (s strokeStyle) lineStyle(c color.Color) (draw.LineStyle, error) {
	ls := draw.LineStyle{Color: c, Width: vg.Points(1.5)}
	if s.LineWidth > 0 {
		ls.Width = vg.Points(s.LineWidth)
	}

	switch s.LineStyle {
	case "", "-", "solid":
	case "--", "dashed":
		ls.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
	case ":", "dotted":
		ls.Dashes = []vg.Length{vg.Points(1.5), vg.Points(2.5)}
	case "-.", "dashdot":
		ls.Dashes = []vg.Length{vg.Points(6), vg.Points(2.5), vg.Points(1.5), vg.Points(2.5)}
	default:
		return ls, errors.Wrapf(ErrInvalidStyle, "unknown linestyle %q", s.LineStyle)
	}

	return ls, nil
}

type markerStyle struct {
	Marker     string  `style:"marker"`
	MarkerSize float64 `style:"markersize"`
}

func (s markerStyle) glyphStyle(c color.Color) (draw.GlyphStyle, error) {
	gs := draw.GlyphStyle{Color: c, Radius: vg.Points(3), Shape: draw.CircleGlyph{}}
	if s.MarkerSize > 0 {
		gs.Radius = vg.Points(s.MarkerSize / 2)
	}

	switch s.Marker {
	case "", "o":
	case ".":
		gs.Radius = gs.Radius / 2
	case "s":
		gs.Shape = draw.SquareGlyph{}
	case "^":
		gs.Shape = draw.TriangleGlyph{}
	case "x":
		gs.Shape = draw.CrossGlyph{}
	case "+":
		gs.Shape = draw.PlusGlyph{}
	default:
		return gs, errors.Wrapf(ErrInvalidStyle, "unknown marker %q", s.Marker)
	}

	return gs, nil
}

// parseColor accepts CSS color names, "#rrggbb", "#rrggbbaa" and "C0".."C9".
func parseColor(s string) (color.Color, error) {
	name := strings.ToLower(strings.TrimSpace(s))

	if len(name) == 2 && name[0] == 'c' && name[1] >= '0' && name[1] <= '9' {
		name = colorCycle[name[1]-'0']
	}

	if c, ok := colornames.Map[name]; ok {
		return c, nil
	}

	if strings.HasPrefix(name, "#") && (len(name) == 7 || len(name) == 9) {
		b, err := hex.DecodeString(name[1:])
		if err == nil {
			c := color.NRGBA{R: b[0], G: b[1], B: b[2], A: 0xff}
			if len(b) == 4 {
				c.A = b[3]
			}
			return c, nil
		}
	}

	return nil, errors.Wrapf(ErrInvalidStyle, "unknown color %q", s)
}

func mustParseColor(s string) color.Color {
	c, err := parseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}
