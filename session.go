package jsonplot

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

// PlotSession owns one table loaded from a column-oriented JSON file and
// writes plots of its columns to image files.
//
// Every successful plot appends the written path to ProducedFiles. Failed
// plots never do. A session serializes its own operations.
type PlotSession struct {
	sourcePath string
	table      *Table

	outputDirectory string
	displayEnabled  bool
	imageFormat     string
	figureWidth     vg.Length
	figureHeight    vg.Length
	displayer       Displayer

	mutex         sync.Mutex
	producedFiles []string

	logger logrus.FieldLogger
}

type Option func(*PlotSession)

// Directory the images are written to. Defaults to the current directory.
func WithOutputDirectory(dir string) Option {
	return func(s *PlotSession) {
		s.outputDirectory = dir
	}
}

// Whether produced images are displayed. Defaults to true.
func WithDisplay(enabled bool) Option {
	return func(s *PlotSession) {
		s.displayEnabled = enabled
	}
}

// Image file extension, which also selects the encoder. Defaults to "png".
func WithImageFormat(format string) Option {
	return func(s *PlotSession) {
		s.imageFormat = strings.TrimPrefix(format, ".")
	}
}

func WithFigureSize(width, height vg.Length) Option {
	return func(s *PlotSession) {
		s.figureWidth = width
		s.figureHeight = height
	}
}

// Displayer used when display is enabled. Defaults to SystemViewer.
func WithDisplayer(d Displayer) Option {
	return func(s *PlotSession) {
		s.displayer = d
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *PlotSession) {
		s.logger = logger
	}
}

// NewPlotSession loads sourcePath. Load failures are returned as *LoadError.
func NewPlotSession(sourcePath string, opts ...Option) (*PlotSession, error) {
	s := &PlotSession{
		sourcePath:      sourcePath,
		outputDirectory: ".",
		displayEnabled:  true,
		imageFormat:     "png",
		figureWidth:     DefaultFigureWidth,
		figureHeight:    DefaultFigureHeight,
		logger:          logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.WithFields(logrus.Fields{
		"tag":    "PlotSession",
		"source": sourcePath,
	})

	if s.displayEnabled && s.displayer == nil {
		s.displayer = SystemViewer{}
	}

	table, err := LoadTable(sourcePath)
	if err != nil {
		s.logger.WithError(err).Debug("failed to load table")
		return nil, err
	}
	s.table = table

	return s, nil
}

func (s *PlotSession) SourcePath() string {
	return s.sourcePath
}

func (s *PlotSession) Table() *Table {
	return s.table
}

func (s *PlotSession) Columns() []string {
	return s.table.Columns()
}

func (s *PlotSession) OutputDirectory() string {
	return s.outputDirectory
}

func (s *PlotSession) ImageFormat() string {
	return s.imageFormat
}

func (s *PlotSession) DisplayEnabled() bool {
	return s.displayEnabled
}

// ProducedFiles returns the paths written so far, in call order.
func (s *PlotSession) ProducedFiles() []string {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	files := make([]string, len(s.producedFiles))
	copy(files, s.producedFiles)
	return files
}

// Hist draws a histogram of field and saves it as hist_<field>.<format>.
//
// Style keys: title, xlabel, ylabel, label, grid, color, alpha, bins (default
// 10) and density.
func (s *PlotSession) Hist(field string, style Style) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	col, err := s.table.Column(field)
	if err != nil {
		return "", err
	}

	return s.render("hist_"+field, func(p *plot.Plot) error {
		p.X.Label.Text = field
		return renderHist(p, col, style)
	})
}

// PairPlot draws col2 against col1 with the renderer selected by kind and
// saves it as <kind>_<col1>_<col2>.<format>. With sortByFirstColumn the rows
// are sorted by the (col1, col2) tuple first.
//
// Categorical (string) columns are drawn at positions 0..n-1, labelled with
// the category, in order of first appearance.
func (s *PlotSession) PairPlot(kind PlotKind, col1, col2 string, sortByFirstColumn bool, style Style) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	name, renderer, err := kind.resolve()
	if err != nil {
		return "", err
	}

	x, y, err := s.table.Pairs(col1, col2, sortByFirstColumn)
	if err != nil {
		return "", err
	}

	return s.render(name+"_"+col1+"_"+col2, func(p *plot.Plot) error {
		p.X.Label.Text = col1
		p.Y.Label.Text = col2
		if x.Categorical() {
			p.X.Tick.Marker = x.ticks()
		}
		if y.Categorical() {
			p.Y.Tick.Marker = y.ticks()
		}

		return renderer.Render(p, x.Values, y.Values, style)
	})
}

// DrawPlot is PairPlot for a loosely typed plot type: a plot kind name, a
// Renderer or a PlotKind.
func (s *PlotSession) DrawPlot(plotType any, col1, col2 string, sortByFirstColumn bool, style Style) (string, error) {
	kind, err := ParsePlotKind(plotType)
	if err != nil {
		return "", err
	}
	return s.PairPlot(kind, col1, col2, sortByFirstColumn, style)
}

// Pairs returns the two columns exactly as PairPlot would hand them to the
// renderer.
func (s *PlotSession) Pairs(col1, col2 string, sortByFirstColumn bool) (Column, Column, error) {
	return s.table.Pairs(col1, col2, sortByFirstColumn)
}

// render runs draw on a fresh figure, saves it, records the path and then
// displays it. The figure is released on every path out of this function.
func (s *PlotSession) render(basename string, draw func(*plot.Plot) error) (string, error) {
	fig := newFigure(s.figureWidth, s.figureHeight)
	defer fig.Close()

	path := filepath.Join(s.outputDirectory, basename+"."+s.imageFormat)
	logger := s.logger.WithField("path", path)

	if err := draw(fig.Plot); err != nil {
		logger.WithError(err).Debug("failed to render plot")
		return "", err
	}

	if err := fig.Save(path); err != nil {
		logger.WithError(err).Debug("failed to save plot")
		return "", err
	}

	s.producedFiles = append(s.producedFiles, path)
	logger.Debug("saved plot")

	if s.displayEnabled {
		if err := s.displayer.Display(path); err != nil {
			logger.WithError(err).Warn("failed to display plot")
		}
	}

	return path, nil
}
