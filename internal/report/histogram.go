// Package report renders pulse and space timing samples as a PNG histogram
// for offline calibration and as an HTML chart page for the web server.
package report

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/banshee-data/irdecode/internal/stats"
)

// ErrNoSamples is returned when there is nothing to plot.
var ErrNoSamples = errors.New("no timing samples recorded")

// HistogramOptions controls WriteHistogram. Zero values select defaults.
type HistogramOptions struct {
	// Kinds to draw. The default leaves out gap, whose space is orders of
	// magnitude wider than the data widths.
	Kinds  []string
	Bins   int
	Width  vg.Length
	Height vg.Length
}

var kindColors = map[string]color.RGBA{
	"header":  {R: 0x44, G: 0x01, B: 0x54, A: 0xc0},
	"zero":    {R: 0x31, G: 0x68, B: 0x8e, A: 0xc0},
	"one":     {R: 0x35, G: 0xb7, B: 0x79, A: 0xc0},
	"gap":     {R: 0xb5, G: 0xde, B: 0x2b, A: 0xc0},
	"unknown": {R: 0xd6, G: 0x27, B: 0x28, A: 0xc0},
}

func (o HistogramOptions) withDefaults() HistogramOptions {
	if len(o.Kinds) == 0 {
		o.Kinds = []string{"header", "zero", "one", "unknown"}
	}
	if o.Bins <= 0 {
		o.Bins = 50
	}
	if o.Width <= 0 {
		o.Width = 10 * vg.Inch
	}
	if o.Height <= 0 {
		o.Height = 8 * vg.Inch
	}
	return o
}

// WriteHistogramPNG renders rec to a PNG file at path, creating parent
// directories as needed.
func WriteHistogramPNG(path string, rec *stats.Recorder, o HistogramOptions) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create plot dir: %w", err)
		}
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create plot file: %w", err)
	}
	if err := WriteHistogram(f, rec, o); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteHistogram renders one histogram panel for pulse widths above one for
// space widths and writes the PNG to w.
func WriteHistogram(w io.Writer, rec *stats.Recorder, o HistogramOptions) error {
	o = o.withDefaults()

	rows := make([][]*plot.Plot, 0, len(stats.Parts))
	total := 0
	for _, part := range stats.Parts {
		p, n, err := histogramPanel(rec, part, o)
		if err != nil {
			return err
		}
		total += n
		rows = append(rows, []*plot.Plot{p})
	}
	if total == 0 {
		return ErrNoSamples
	}

	img := vgimg.New(o.Width, o.Height)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      len(rows),
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      5 * vg.Millimeter,
		PadTop:    2 * vg.Millimeter,
		PadBottom: 2 * vg.Millimeter,
		PadLeft:   2 * vg.Millimeter,
		PadRight:  2 * vg.Millimeter,
	}
	canvases := plot.Align(rows, tiles, dc)
	for i := range rows {
		rows[i][0].Draw(canvases[i][0])
	}

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

func histogramPanel(rec *stats.Recorder, part stats.Part, o HistogramOptions) (*plot.Plot, int, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s widths", part)
	p.X.Label.Text = "Width (us)"
	p.Y.Label.Text = "Count"
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	n := 0
	for _, kind := range o.Kinds {
		samples := rec.Samples(kind, part)
		if len(samples) == 0 {
			continue
		}
		h, err := plotter.NewHist(plotter.Values(samples), o.Bins)
		if err != nil {
			return nil, 0, fmt.Errorf("%s %s histogram: %w", kind, part, err)
		}
		if c, ok := kindColors[kind]; ok {
			h.FillColor = c
		}
		h.LineStyle.Width = vg.Points(0.5)
		p.Add(h)
		p.Legend.Add(fmt.Sprintf("%s (n=%d)", kind, len(samples)), h)
		n += len(samples)
	}
	return p, n, nil
}
