package jsonplot

import (
	"math"
	"sort"
	"strings"

	"github.com/go-gota/gota/series"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
)

// Column is a table column converted to plot coordinates.
//
// Numeric columns keep their values, boolean columns become 0 and 1. String
// columns are categorical: Labels holds the raw strings, Categories the
// distinct labels in order of first appearance, and Values the position of
// each row's label in Categories. Missing string cells (JSON null) take no
// category and get a NaN value.
type Column struct {
	Name       string
	Values     []float64
	Labels     []string
	Categories []string

	missing []bool
}

func (c Column) Categorical() bool {
	return c.Labels != nil
}

func (c Column) Len() int {
	return len(c.Values)
}

// Column extracts the named column in row order.
func (t *Table) Column(name string) (Column, error) {
	s, err := t.Series(name)
	if err != nil {
		return Column{}, err
	}
	return columnFromSeries(s)
}

// Pairs extracts two columns as row-aligned x and y. With sortByFirstColumn
// the rows are ordered by the (x, y) tuple, so rows with equal x are ordered
// by y.
func (t *Table) Pairs(col1, col2 string, sortByFirstColumn bool) (Column, Column, error) {
	x, err := t.Column(col1)
	if err != nil {
		return Column{}, Column{}, err
	}

	y, err := t.Column(col2)
	if err != nil {
		return Column{}, Column{}, err
	}

	if sortByFirstColumn {
		x, y = sortPairs(x, y)
	}

	return x, y, nil
}

func columnFromSeries(s series.Series) (Column, error) {
	if s.Err != nil {
		return Column{}, s.Err
	}

	col := Column{Name: s.Name}

	switch s.Type() {
	case series.String:
		col.Labels = s.Records()
		col.missing = s.IsNaN()
		col.encodeCategories()
	case series.Bool:
		bools, err := s.Bool()
		if err != nil {
			return Column{}, err
		}
		col.Values = make([]float64, len(bools))
		for i, b := range bools {
			if b {
				col.Values[i] = 1
			}
		}
	default:
		col.Values = s.Float()
	}

	return col, nil
}

func (c *Column) encodeCategories() {
	positions := make(map[string]int)
	c.Categories = c.Categories[:0]
	c.Values = make([]float64, len(c.Labels))

	for i, label := range c.Labels {
		if c.isMissing(i) {
			c.Values[i] = math.NaN()
			continue
		}
		pos, ok := positions[label]
		if !ok {
			pos = len(c.Categories)
			positions[label] = pos
			c.Categories = append(c.Categories, label)
		}
		c.Values[i] = float64(pos)
	}
}

func (c Column) isMissing(i int) bool {
	return c.missing != nil && c.missing[i]
}

// compare orders two rows. Strings compare lexicographically; numbers
// numerically. Missing cells and NaN go after everything else.
func (c Column) compare(i, j int) int {
	if c.Categorical() {
		switch mi, mj := c.isMissing(i), c.isMissing(j); {
		case mi && mj:
			return 0
		case mi:
			return 1
		case mj:
			return -1
		}
		return strings.Compare(c.Labels[i], c.Labels[j])
	}

	a, b := c.Values[i], c.Values[j]
	switch {
	case math.IsNaN(a) && math.IsNaN(b):
		return 0
	case math.IsNaN(a):
		return 1
	case math.IsNaN(b):
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (c Column) reorder(order []int) Column {
	out := Column{Name: c.Name}
	if c.Categorical() {
		out.Labels = make([]string, len(order))
		if c.missing != nil {
			out.missing = make([]bool, len(order))
		}
		for i, row := range order {
			out.Labels[i] = c.Labels[row]
			if c.missing != nil {
				out.missing[i] = c.missing[row]
			}
		}
		out.encodeCategories()
		return out
	}

	out.Values = make([]float64, len(order))
	for i, row := range order {
		out.Values[i] = c.Values[row]
	}
	return out
}

func sortPairs(x, y Column) (Column, Column) {
	order := make([]int, x.Len())
	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := order[a], order[b]
		if c := x.compare(ra, rb); c != 0 {
			return c < 0
		}
		return y.compare(ra, rb) < 0
	})

	return x.reorder(order), y.reorder(order)
}

func (c Column) ticks() plot.ConstantTicks {
	ticks := make(plot.ConstantTicks, len(c.Categories))
	for i, label := range c.Categories {
		ticks[i] = plot.Tick{Value: float64(i), Label: label}
	}
	return ticks
}

// finiteXYs zips x and y, dropping rows where either value is NaN or infinite.
func finiteXYs(x, y []float64) plotter.XYs {
	xys := make(plotter.XYs, 0, len(x))
	for i := range x {
		if isFinite(x[i]) && isFinite(y[i]) {
			xys = append(xys, plotter.XY{X: x[i], Y: y[i]})
		}
	}
	return xys
}

func finiteValues(values []float64) plotter.Values {
	out := make(plotter.Values, 0, len(values))
	for _, v := range values {
		if isFinite(v) {
			out = append(out, v)
		}
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
