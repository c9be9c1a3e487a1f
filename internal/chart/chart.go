// internal/chart/chart.go
// Package chart renders the two-engine comparison as a single PNG with one
// panel per metric: throughput, average latency, and average time to first
// token, each plotted against concurrency.
package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/mwiater/enginemark/internal/bench"
	"github.com/mwiater/enginemark/internal/metrics"
)

const (
	panelWidth  = 520
	panelHeight = 400
)

type panel struct {
	title string
	yAxis string
	value func(metrics.AggregatedMetrics) float64
}

var panels = []panel{
	{
		title: "Throughput",
		yAxis: "requests/s",
		value: func(a metrics.AggregatedMetrics) float64 { return a.Throughput },
	},
	{
		title: "Average Latency",
		yAxis: "seconds",
		value: func(a metrics.AggregatedMetrics) float64 { return a.AvgLatency.Seconds() },
	},
	{
		title: "Average Time To First Token",
		yAxis: "seconds",
		value: func(a metrics.AggregatedMetrics) float64 { return a.AvgTTFT.Seconds() },
	},
}

// WriteComparison renders all panels side by side and writes the composite
// PNG to path. Rendering needs at least two concurrency levels per engine to
// draw a line.
func WriteComparison(c *bench.Comparison, path string) error {
	images := make([]image.Image, 0, len(panels))
	for _, p := range panels {
		img, err := renderPanel(p, c)
		if err != nil {
			return fmt.Errorf("panel %q: %w", p.title, err)
		}
		images = append(images, img)
	}

	composite := image.NewRGBA(image.Rect(0, 0, panelWidth*len(images), panelHeight))
	for i, img := range images {
		offset := image.Rect(i*panelWidth, 0, (i+1)*panelWidth, panelHeight)
		draw.Draw(composite, offset, img, img.Bounds().Min, draw.Src)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating chart directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating chart file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, composite); err != nil {
		return fmt.Errorf("error writing chart: %w", err)
	}

	return nil
}

func renderPanel(p panel, c *bench.Comparison) (image.Image, error) {
	graph := gochart.Chart{
		Title:  p.title,
		Width:  panelWidth,
		Height: panelHeight,
		XAxis: gochart.XAxis{
			Name: "concurrency",
		},
		YAxis: gochart.YAxis{
			Name: p.yAxis,
		},
		Series: []gochart.Series{
			lineSeries(c.EngineA.Name, c.ResultsA, p.value),
			lineSeries(c.EngineB.Name, c.ResultsB, p.value),
		},
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return nil, err
	}
	return png.Decode(&buf)
}

func lineSeries(name string, table metrics.ResultTable, value func(metrics.AggregatedMetrics) float64) gochart.ContinuousSeries {
	levels := table.Levels()
	xs := make([]float64, 0, len(levels))
	ys := make([]float64, 0, len(levels))
	for _, level := range levels {
		xs = append(xs, float64(level))
		ys = append(ys, value(table[level]))
	}
	return gochart.ContinuousSeries{
		Name:    name,
		XValues: xs,
		YValues: ys,
	}
}
