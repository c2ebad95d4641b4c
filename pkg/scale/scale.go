// Package scale maps data ranges onto a fixed paper drawing area using
// round "1, 2, 5" steps per centimetre.
package scale

import (
	"math"

	"github.com/panbanda/fitpaper/pkg/models"
)

// Paper is a drawing area in centimetres. Width is the long edge when the
// sheet is in landscape.
type Paper struct {
	Width  float64 `json:"width" toon:"width"`
	Height float64 `json:"height" toon:"height"`
}

// A4 is the usable grid area of an A4 sheet of graph paper.
var A4 = Paper{Width: 26, Height: 16}

// Landscape returns the x and y lengths with the long edge horizontal.
func (p Paper) Landscape() (width, height float64) {
	return p.Width, p.Height
}

// Portrait returns the x and y lengths with the long edge vertical.
func (p Paper) Portrait() (width, height float64) {
	return p.Height, p.Width
}

// steps are the mantissas of a nice scale, in ascending order.
var steps = [...]float64{1, 2, 5}

// Standard returns the smallest value of the form {1, 2, 5, 10} x 10^k that
// is at least rangeV/length, so that rangeV fits in length units.
//
// A zero range has no usable scale and returns 0, as does a non-positive
// range or length.
func Standard(rangeV, length float64) float64 {
	if rangeV <= 0 || length <= 0 || math.IsNaN(rangeV) || math.IsInf(rangeV, 0) {
		return 0
	}

	raw := rangeV / length
	magnitude := math.Pow(10, math.Floor(math.Log10(raw)))
	normalized := raw / magnitude

	step := 10.0
	for _, s := range steps {
		if normalized <= s {
			step = s
			break
		}
	}
	return step * magnitude
}

// Calculate fits points onto a width x height area. A finite startX or
// startY replaces the observed minimum on that axis; the maximum always
// comes from the data.
//
// It returns false for fewer than two points, or when either axis has a
// range that is not positive and finite and so has no usable step.
func Calculate(points []models.Point, width, height float64, startX, startY *float64) (models.ScaleResult, bool) {
	if len(points) < 2 {
		return models.ScaleResult{}, false
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	if v, ok := override(startX); ok {
		minX = v
	}
	if v, ok := override(startY); ok {
		minY = v
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if !(rangeX > 0) || !(rangeY > 0) {
		return models.ScaleResult{}, false
	}

	xPerCm := Standard(rangeX, width)
	yPerCm := Standard(rangeY, height)
	if !usable(xPerCm) || !usable(yPerCm) {
		return models.ScaleResult{}, false
	}

	return models.ScaleResult{
		XPerCm: xPerCm,
		YPerCm: yPerCm,
		StartX: minX,
		StartY: minY,
	}, true
}

func usable(step float64) bool {
	return step > 0 && !math.IsInf(step, 0)
}

func override(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	return *v, true
}
