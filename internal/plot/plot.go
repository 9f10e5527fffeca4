// Package plot renders the I-V characteristic curve of a data set.
package plot

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/nvandessel/photolab/internal/dataset"
)

// ErrNoData is returned when there are no points to plot.
var ErrNoData = errors.New("no data to plot")

// Format is an image output format.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat maps a format name or file extension to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "png":
		return FormatPNG, nil
	case "svg":
		return FormatSVG, nil
	default:
		return "", fmt.Errorf("unsupported plot format %q (want png or svg)", s)
	}
}

// Palette is the series color cycle, as hex RGB.
var Palette = []string{"1FB8CD", "FFC185", "B4413C", "ECEBD5", "5D878F", "DB4545", "D2BA4C"}

// SeriesColor returns the palette color of the i-th series.
func SeriesColor(i int) drawing.Color {
	return drawing.ColorFromHex(Palette[i%len(Palette)])
}

// Options controls the rendered chart.
type Options struct {
	Title      string
	Width      int
	Height     int
	ErrorBands bool
}

// DefaultOptions returns a 1024x640 chart with error bands.
func DefaultOptions() Options {
	return Options{
		Title:      "I-V Characteristic Curve",
		Width:      1024,
		Height:     640,
		ErrorBands: true,
	}
}

// Build assembles the chart for points: one line per (material, wavelength)
// group in order of first appearance, each sorted by voltage, plus dashed
// mean ± standard error bands when requested.
func Build(points []dataset.DataPoint, opts Options) (*chart.Chart, error) {
	if len(points) == 0 {
		return nil, ErrNoData
	}

	var series []chart.Series
	for i, g := range dataset.GroupPoints(points) {
		pts := slices.Clone(g.Points)
		slices.SortStableFunc(pts, func(a, b dataset.DataPoint) int {
			return cmp.Compare(a.VoltageV, b.VoltageV)
		})
		// A one-point series is drawn as a degenerate segment.
		if len(pts) == 1 {
			pts = append(pts, pts[0])
		}

		xs := make([]float64, len(pts))
		ys := make([]float64, len(pts))
		lo := make([]float64, len(pts))
		hi := make([]float64, len(pts))
		for j, p := range pts {
			xs[j] = p.VoltageV
			ys[j] = p.CurrentNa
			lo[j] = max(0, p.CurrentNa-p.ErrorNa)
			hi[j] = p.CurrentNa + p.ErrorNa
		}

		color := SeriesColor(i)
		series = append(series, chart.ContinuousSeries{
			Name:    g.Label,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				DotColor:    color,
				DotWidth:    3,
			},
		})
		if opts.ErrorBands {
			band := chart.Style{
				StrokeColor:     color.WithAlpha(160),
				StrokeWidth:     1,
				StrokeDashArray: []float64{4, 3},
			}
			series = append(series,
				chart.ContinuousSeries{Name: g.Label + " +SE", XValues: xs, YValues: hi, Style: band},
				chart.ContinuousSeries{Name: g.Label + " -SE", XValues: xs, YValues: lo, Style: band},
			)
		}
	}

	xMin, xMax, yMax := bounds(points)
	ch := &chart.Chart{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  "Applied Voltage (V)",
			Range: &chart.ContinuousRange{Min: xMin, Max: xMax},
		},
		YAxis: chart.YAxis{
			Name:  "Photocurrent (nA)",
			Range: &chart.ContinuousRange{Min: 0, Max: yMax},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.LegendLeft(ch)}
	return ch, nil
}

// bounds returns axis limits that are never degenerate.
func bounds(points []dataset.DataPoint) (xMin, xMax, yMax float64) {
	xMin, xMax = points[0].VoltageV, points[0].VoltageV
	for _, p := range points {
		xMin = min(xMin, p.VoltageV)
		xMax = max(xMax, p.VoltageV)
		yMax = max(yMax, p.CurrentNa+p.ErrorNa)
	}
	if xMax-xMin < 0.1 {
		xMin -= 0.5
		xMax += 0.5
	}
	if yMax <= 0 {
		yMax = 1
	} else {
		yMax *= 1.1
	}
	return xMin, xMax, yMax
}

// Render writes the chart of points to w in the given format.
func Render(w io.Writer, points []dataset.DataPoint, format Format, opts Options) error {
	ch, err := Build(points, opts)
	if err != nil {
		return err
	}

	var provider chart.RendererProvider
	switch format {
	case FormatPNG:
		provider = chart.PNG
	case FormatSVG:
		provider = chart.SVG
	default:
		return fmt.Errorf("unsupported plot format %q", format)
	}
	if err := ch.Render(provider, w); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	return nil
}

// RenderFile writes the chart to path, picking the format from its extension.
func RenderFile(path string, points []dataset.DataPoint, opts Options) error {
	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return ErrNoData
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating plot file: %w", err)
	}
	if err := Render(f, points, format, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
