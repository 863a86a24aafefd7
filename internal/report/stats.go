// Package report produces summary statistics, HTML charts, and profile
// plots from reconstructed wind results.
package report

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/windfield/internal/wind"
)

// SeriesStats summarizes one scalar series. NaN entries are excluded
// before computing the moments.
type SeriesStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// Summary aggregates per-series statistics over a reconstruction run.
type Summary struct {
	Descriptors int         `json:"descriptors"`
	UpperSpeed  SeriesStats `json:"upper_speed"`
	LowerSpeed  SeriesStats `json:"lower_speed"`
	Shear       SeriesStats `json:"shear"`
	Veer        SeriesStats `json:"veer"`
}

func summarizeSeries(values []float64) SeriesStats {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return SeriesStats{
			Mean: math.NaN(), StdDev: math.NaN(),
			Min: math.NaN(), Max: math.NaN(), Median: math.NaN(),
		}
	}

	sort.Float64s(finite)
	mean, std := stat.MeanStdDev(finite, nil)
	if len(finite) == 1 {
		std = 0
	}

	return SeriesStats{
		Count:  len(finite),
		Mean:   mean,
		StdDev: std,
		Min:    finite[0],
		Max:    finite[len(finite)-1],
		Median: stat.Quantile(0.5, stat.Empirical, finite, nil),
	}
}

// Summarize computes summary statistics over reconstructed
// descriptors.
func Summarize(descriptors []wind.WindfieldDescriptor) Summary {
	n := len(descriptors)
	upper := make([]float64, n)
	lower := make([]float64, n)
	shear := make([]float64, n)
	veer := make([]float64, n)
	for i, d := range descriptors {
		upper[i] = d.Upper.Speed
		lower[i] = d.Lower.Speed
		shear[i] = d.Shear
		veer[i] = d.Veer
	}

	return Summary{
		Descriptors: n,
		UpperSpeed:  summarizeSeries(upper),
		LowerSpeed:  summarizeSeries(lower),
		Shear:       summarizeSeries(shear),
		Veer:        summarizeSeries(veer),
	}
}
