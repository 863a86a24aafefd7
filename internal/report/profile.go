package report

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/windfield/internal/wind"
)

// ProfileConfig describes the vertical profile plot.
type ProfileConfig struct {
	MinHeight float64 // lowest height on the profile, m
	MaxHeight float64 // highest height on the profile, m
	Steps     int     // number of profile points
}

// DefaultProfileConfig spans a typical rotor swept area.
func DefaultProfileConfig() ProfileConfig {
	return ProfileConfig{MinHeight: 40, MaxHeight: 200, Steps: 64}
}

// SaveProfilePNG renders the power-law wind profile implied by the
// mean shear and reference speed of a run and saves it as a PNG.
func SaveProfilePNG(path string, summary Summary, refHeight float64, cfg ProfileConfig) error {
	if cfg.Steps < 2 {
		return fmt.Errorf("profile needs at least 2 steps, got %d", cfg.Steps)
	}
	if !(cfg.MinHeight > 0) || cfg.MaxHeight <= cfg.MinHeight {
		return fmt.Errorf("invalid profile height range [%v, %v]", cfg.MinHeight, cfg.MaxHeight)
	}

	shear := summary.Shear.Mean
	refSpeed := summary.LowerSpeed.Mean
	if math.IsNaN(shear) || math.IsNaN(refSpeed) {
		return fmt.Errorf("run has no valid shear or speed data to profile")
	}

	pts := make(plotter.XYs, cfg.Steps)
	step := (cfg.MaxHeight - cfg.MinHeight) / float64(cfg.Steps-1)
	for i := range pts {
		hgt := cfg.MinHeight + float64(i)*step
		pts[i].X = wind.ExtrapolateWindspeed(hgt, shear, refSpeed, refHeight)
		pts[i].Y = hgt
	}

	p := plot.New()
	p.Title.Text = "Extrapolated Wind Profile"
	p.X.Label.Text = "Wind Speed (m/s)"
	p.Y.Label.Text = "Height (m)"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Width = vg.Points(1.5)
	p.Add(line)
	p.Add(plotter.NewGrid())

	if err := p.Save(6*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("save profile plot: %w", err)
	}
	return nil
}
