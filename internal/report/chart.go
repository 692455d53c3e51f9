package report

import (
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/irdecode/internal/stats"
)

// RenderTimingChart writes an HTML page with bar charts of the mean, p5 and
// p95 width of every kind, one chart per part, and a sample count chart.
func RenderTimingChart(w io.Writer, summary []stats.Stat, generated time.Time) error {
	byKey := make(map[string]stats.Stat, len(summary))
	var kinds []string
	seen := make(map[string]bool)
	for _, s := range summary {
		byKey[s.Kind+"/"+string(s.Part)] = s
		if !seen[s.Kind] {
			seen[s.Kind] = true
			kinds = append(kinds, s.Kind)
		}
	}

	page := components.NewPage()
	page.PageTitle = "IR timing"

	for _, part := range stats.Parts {
		var mean, p5, p95 []opts.BarData
		for _, kind := range kinds {
			s, ok := byKey[kind+"/"+string(part)]
			if !ok {
				// "-" is an empty slot to echarts.
				mean = append(mean, opts.BarData{Value: "-"})
				p5 = append(p5, opts.BarData{Value: "-"})
				p95 = append(p95, opts.BarData{Value: "-"})
				continue
			}
			mean = append(mean, opts.BarData{Value: round1(s.Mean)})
			p5 = append(p5, opts.BarData{Value: s.P5})
			p95 = append(p95, opts.BarData{Value: s.P95})
		}

		bar := charts.NewBar()
		bar.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{PageTitle: "IR timing", Width: "100%", Height: "480px"}),
			charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("%s widths (us)", part), Subtitle: generated.Format(time.RFC3339)}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		)
		bar.SetXAxis(kinds).
			AddSeries("p5", p5).
			AddSeries("mean", mean, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"})).
			AddSeries("p95", p95)
		page.AddCharts(bar)
	}

	var counts []opts.BarData
	for _, kind := range kinds {
		s := byKey[kind+"/"+string(stats.PartPulse)]
		counts = append(counts, opts.BarData{Value: s.Count})
	}
	countBar := charts.NewBar()
	countBar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "320px"}),
		charts.WithTitleOpts(opts.Title{Title: "Pairs per kind"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	countBar.SetXAxis(kinds).
		AddSeries("pairs", counts, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	page.AddCharts(countBar)

	return page.Render(w)
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
