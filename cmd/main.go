package main

import (
	"os"

	"github.com/cactusdynamics/jsonplot"
	"github.com/sirupsen/logrus"
)

// Plots the ground truth corners against the detected ones of a deviation
// report, e.g. `go run ./cmd deviation.json`.
func main() {
	source := "./deviation.json"
	if len(os.Args) > 1 {
		source = os.Args[1]
	}

	session, err := jsonplot.NewPlotSession(source)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load dataset")
	}

	path, err := session.PairPlot(jsonplot.Named("scatter"), "gt_corners", "rb_corners", true, nil)
	if err != nil {
		logrus.WithError(err).Fatal("failed to plot")
	}

	logrus.WithField("path", path).Info("plot written")
}
