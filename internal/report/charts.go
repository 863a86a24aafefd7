package report

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/windfield/internal/wind"
)

// WriteHTMLReport renders an HTML page with time series charts for
// plane speeds, shear, and veer. Rejected rows show up as gaps.
func WriteHTMLReport(w io.Writer, title string, descriptors []wind.WindfieldDescriptor) error {
	n := len(descriptors)
	times := make([]string, n)
	upper := make([]opts.LineData, n)
	lower := make([]opts.LineData, n)
	shear := make([]opts.LineData, n)
	veer := make([]opts.LineData, n)

	for i, d := range descriptors {
		times[i] = time.Unix(0, d.Time).UTC().Format("15:04:05.000")
		upper[i] = lineValue(d.Upper.Speed)
		lower[i] = lineValue(d.Lower.Speed)
		shear[i] = lineValue(d.Shear)
		veer[i] = lineValue(d.Veer)
	}

	speedChart := newTimeSeriesChart("Planar Wind Speed", "m/s", times)
	speedChart.AddSeries("upper plane", upper)
	speedChart.AddSeries("lower plane", lower)

	shearChart := newTimeSeriesChart("Vertical Shear Exponent", "", times)
	shearChart.AddSeries("shear", shear)

	veerChart := newTimeSeriesChart("Directional Veer", "rad/m", times)
	veerChart.AddSeries("veer", veer)

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(speedChart, shearChart, veerChart)

	return page.Render(w)
}

func newTimeSeriesChart(title, unit string, times []string) *charts.Line {
	subtitle := fmt.Sprintf("%d samples", len(times))
	if unit != "" {
		subtitle = fmt.Sprintf("%s, %d samples", unit, len(times))
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	line.SetXAxis(times)
	return line
}

// lineValue maps NaN to a nil data point so echarts leaves a gap
// instead of plotting zero.
func lineValue(v float64) opts.LineData {
	if math.IsNaN(v) {
		return opts.LineData{Value: nil}
	}
	return opts.LineData{Value: v}
}
