package scale

import (
	"math"

	"github.com/panbanda/fitpaper/pkg/models"
)

// Options controls a full scale computation.
type Options struct {
	Paper Paper

	// StartX and StartY pin the axis origins. Nil means "use the data".
	StartX *float64
	StartY *float64

	// CustomXPerCm and CustomYPerCm supply literal scales. Both must be
	// set, finite and positive for the custom scale to become active.
	CustomXPerCm *float64
	CustomYPerCm *float64
}

// Compute derives landscape, portrait and custom scales from one dataset.
// Portrait uses the same paper with width and height swapped.
func Compute(points []models.Point, opts Options) models.ScaleReport {
	paper := opts.Paper
	if paper.Width <= 0 || paper.Height <= 0 {
		paper = A4
	}

	var report models.ScaleReport

	lw, lh := paper.Landscape()
	if res, ok := Calculate(points, lw, lh, opts.StartX, opts.StartY); ok {
		report.Landscape = &res
	}
	pw, ph := paper.Portrait()
	if res, ok := Calculate(points, pw, ph, opts.StartX, opts.StartY); ok {
		report.Portrait = &res
	}

	report.Custom = Custom(opts.CustomXPerCm, opts.CustomYPerCm, opts.StartX, opts.StartY, report.Landscape)
	return report
}

// Custom builds a caller-defined scale. Origins come from the overrides
// when present, otherwise from the landscape result, otherwise zero.
func Custom(xPerCm, yPerCm, startX, startY *float64, landscape *models.ScaleResult) models.CustomScale {
	x, okX := positive(xPerCm)
	y, okY := positive(yPerCm)
	if !okX || !okY {
		return models.CustomScale{}
	}

	c := models.CustomScale{Active: true, XPerCm: x, YPerCm: y}
	if v, ok := override(startX); ok {
		c.StartX = v
	} else if landscape != nil {
		c.StartX = landscape.StartX
	}
	if v, ok := override(startY); ok {
		c.StartY = v
	} else if landscape != nil {
		c.StartY = landscape.StartY
	}
	return c
}

func positive(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0 {
		return 0, false
	}
	return *v, true
}
