package jsonplot

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"
)

// Table is a read-only set of named, row-aligned columns backed by a gota
// DataFrame. Column order follows the key order of the source JSON object.
//
// gota rewrites some column names (an empty name becomes "X<n>"), so columns
// are looked up by position in names, never by name in the frame.
type Table struct {
	df      dataframe.DataFrame
	names   []string
	columns []series.Series
}

// LoadTable reads the column-oriented JSON file at path. Every failure is
// returned as a *LoadError.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	t, err := ReadTable(f)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			loadErr.Path = path
		}
		return nil, err
	}

	return t, nil
}

// ReadTable decodes a column-oriented JSON object. Each key is a column name
// and each value is either an array of cells, or an object of cells keyed by
// row index.
//
// Cell types are inferred per column: numbers become an Int series when they
// are all integral and none is null, otherwise a Float series with nulls as
// NaN. All-boolean columns become a Bool series. Anything else becomes a
// String series.
func ReadTable(r io.Reader) (*Table, error) {
	raw, err := decodeColumns(r)
	if err != nil {
		return nil, &LoadError{Err: err}
	}

	if err := alignRows(raw); err != nil {
		return nil, &LoadError{Err: err}
	}

	columns := make([]series.Series, 0, len(raw))
	for _, col := range raw {
		s, err := inferSeries(col.name, col.cells)
		if err != nil {
			return nil, &LoadError{Err: err}
		}
		columns = append(columns, s)
	}

	return NewTable(columns...)
}

// NewTable builds a table from in-memory series. All series must have the
// same length.
func NewTable(columns ...series.Series) (*Table, error) {
	names := make([]string, 0, len(columns))
	stored := make([]series.Series, 0, len(columns))
	seen := make(map[string]bool, len(columns))
	for _, s := range columns {
		if seen[s.Name] {
			return nil, &LoadError{Err: errors.Errorf("duplicate column %q", s.Name)}
		}
		seen[s.Name] = true
		names = append(names, s.Name)
		stored = append(stored, s.Copy())
	}

	// gota refuses to build a frame without columns, but an empty object is
	// still a valid (empty) table.
	if len(columns) == 0 {
		return &Table{names: names}, nil
	}

	df := dataframe.New(columns...)
	if df.Err != nil {
		return nil, &LoadError{Err: df.Err}
	}

	return &Table{df: df, names: names, columns: stored}, nil
}

// NumericSeries converts any numeric slice into a Float series.
func NumericSeries[T Number](name string, values []T) series.Series {
	floats := make([]float64, len(values))
	for i, v := range values {
		floats[i] = float64(v)
	}
	return series.New(floats, series.Float, name)
}

func (t *Table) Columns() []string {
	names := make([]string, len(t.names))
	copy(names, t.names)
	return names
}

func (t *Table) HasColumn(name string) bool {
	return t.index(name) >= 0
}

func (t *Table) index(name string) int {
	for i, n := range t.names {
		if n == name {
			return i
		}
	}
	return -1
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if len(t.names) == 0 {
		return 0
	}
	return t.df.Nrow()
}

// Series returns the named column as stored.
func (t *Table) Series(name string) (series.Series, error) {
	i := t.index(name)
	if i < 0 {
		return series.Series{}, errors.Wrapf(ErrColumnNotFound, "%q", name)
	}
	return t.columns[i].Copy(), nil
}

// DataFrame returns a copy of the underlying frame. Its column names are the
// ones gota assigned, which differ from Columns for empty names.
func (t *Table) DataFrame() dataframe.DataFrame {
	return t.df.Copy()
}

type rawColumn struct {
	name  string
	cells []any

	// Set for object-form columns, where cells are keyed by row index.
	indexKeys []string
	indexed   map[string]any
}

func decodeColumns(r io.Reader) ([]rawColumn, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return nil, errors.Wrap(err, "top-level value must be an object")
	}

	var columns []rawColumn
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name := tok.(string) // object keys are always strings

		if seen[name] {
			return nil, errors.Errorf("duplicate column %q", name)
		}
		seen[name] = true

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, errors.Wrapf(err, "column %q", name)
		}

		col, err := decodeColumnValue(name, value)
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}

	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after the top-level object")
	}

	return columns, nil
}

func decodeColumnValue(name string, value json.RawMessage) (rawColumn, error) {
	col := rawColumn{name: name}

	value = bytes.TrimSpace(value)
	if len(value) > 0 && value[0] == '[' {
		dec := json.NewDecoder(bytes.NewReader(value))
		dec.UseNumber()
		if err := dec.Decode(&col.cells); err != nil {
			return col, errors.Wrapf(err, "column %q", name)
		}
		if col.cells == nil {
			col.cells = []any{}
		}
		return col, nil
	}

	// Otherwise it has to be an object keyed by row index. Decode it token by
	// token to keep the key order.
	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()
	if err := expectDelim(dec, '{'); err != nil {
		return col, errors.Errorf("column %q must be an array or an object keyed by row index", name)
	}

	col.indexed = make(map[string]any)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return col, errors.Wrapf(err, "column %q", name)
		}
		key := tok.(string)

		var cell any
		if err := dec.Decode(&cell); err != nil {
			return col, errors.Wrapf(err, "column %q row %q", name, key)
		}

		if _, dup := col.indexed[key]; !dup {
			col.indexKeys = append(col.indexKeys, key)
		}
		col.indexed[key] = cell
	}

	return col, nil
}

// alignRows fills in cells for object-form columns. Row indexes are the union
// of every column's keys in first-seen order, sorted numerically when all of
// them are integers. Missing cells are null.
func alignRows(columns []rawColumn) error {
	hasIndexed := false
	for _, col := range columns {
		if col.indexed != nil {
			hasIndexed = true
			break
		}
	}

	if !hasIndexed {
		for _, col := range columns[min(1, len(columns)):] {
			if len(col.cells) != len(columns[0].cells) {
				return errors.Errorf("column %q has %d rows, column %q has %d", col.name, len(col.cells), columns[0].name, len(columns[0].cells))
			}
		}
		return nil
	}

	var index []string
	seen := make(map[string]bool)
	addKey := func(key string) {
		if !seen[key] {
			seen[key] = true
			index = append(index, key)
		}
	}

	for _, col := range columns {
		if col.indexed != nil {
			for _, key := range col.indexKeys {
				addKey(key)
			}
			continue
		}
		for i := range col.cells {
			addKey(strconv.Itoa(i))
		}
	}

	if positions, ok := integerKeys(index); ok {
		sort.SliceStable(index, func(i, j int) bool {
			return positions[index[i]] < positions[index[j]]
		})
	}

	for i := range columns {
		col := &columns[i]
		lookup := col.indexed
		if lookup == nil {
			lookup = make(map[string]any, len(col.cells))
			for row, cell := range col.cells {
				lookup[strconv.Itoa(row)] = cell
			}
		}

		col.cells = make([]any, len(index))
		for row, key := range index {
			col.cells[row] = lookup[key]
		}
	}

	return nil
}

func integerKeys(keys []string) (map[string]int64, bool) {
	positions := make(map[string]int64, len(keys))
	for _, key := range keys {
		n, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, false
		}
		positions[key] = n
	}
	return positions, true
}

func inferSeries(name string, cells []any) (series.Series, error) {
	allNumbers, allBools := true, true
	integral, hasNull, hasValue := true, false, false

	for row, cell := range cells {
		switch v := cell.(type) {
		case nil:
			hasNull = true
			continue
		case json.Number:
			allBools = false
			if _, err := strconv.ParseInt(v.String(), 10, 0); err != nil {
				integral = false
			}
		case bool:
			allNumbers = false
		case string:
			allNumbers, allBools = false, false
		default:
			return series.Series{}, errors.Errorf("column %q row %d: nested values are not supported", name, row)
		}
		hasValue = true
	}

	switch {
	case allNumbers && integral && hasValue && !hasNull:
		ints := make([]int, len(cells))
		for i, cell := range cells {
			n, _ := strconv.ParseInt(cell.(json.Number).String(), 10, 0)
			ints[i] = int(n)
		}
		return series.New(ints, series.Int, name), nil

	case allNumbers:
		floats := make([]float64, len(cells))
		for i, cell := range cells {
			if cell == nil {
				floats[i] = math.NaN()
				continue
			}
			f, err := cell.(json.Number).Float64()
			if err != nil {
				return series.Series{}, errors.Wrapf(err, "column %q row %d", name, i)
			}
			floats[i] = f
		}
		return series.New(floats, series.Float, name), nil

	case allBools && !hasNull:
		bools := make([]bool, len(cells))
		for i, cell := range cells {
			bools[i] = cell.(bool)
		}
		return series.New(bools, series.Bool, name), nil
	}

	records := make([]string, len(cells))
	for i, cell := range cells {
		switch v := cell.(type) {
		case nil:
			records[i] = "NaN"
		case json.Number:
			records[i] = v.String()
		case bool:
			records[i] = strconv.FormatBool(v)
		case string:
			records[i] = v
		}
	}
	return series.New(records, series.String, name), nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != want {
		return errors.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
