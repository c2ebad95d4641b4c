// Package stats provides the aggregate helpers shared by every fitter.
package stats

import (
	"math"

	"github.com/panbanda/fitpaper/pkg/models"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Sum returns the sum of values. The sum of an empty slice is 0.
func Sum(values []float64) float64 {
	return floats.Sum(values)
}

// Mean returns the arithmetic mean of values.
// The caller must pass a non-empty slice; an empty one yields NaN.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return stat.Mean(values, nil)
}

// CoefficientOfDetermination returns 1 - SSres/SStot for predict over points.
//
// Returns 0 for fewer than 2 points. The value is not clamped: a poor fit
// goes negative, and constant y (SStot = 0) yields NaN or -Inf.
func CoefficientOfDetermination(points []models.Point, predict func(float64) float64) float64 {
	if len(points) < 2 {
		return 0
	}

	ys := make([]float64, len(points))
	for i, p := range points {
		ys[i] = p.Y
	}
	yMean := Mean(ys)

	var ssTot, ssRes float64
	for _, p := range points {
		d := p.Y - yMean
		ssTot += d * d
		r := p.Y - predict(p.X)
		ssRes += r * r
	}

	return 1 - ssRes/ssTot
}

// Residuals returns y - predict(x) for each point, in order.
func Residuals(points []models.Point, predict func(float64) float64) []float64 {
	res := make([]float64, len(points))
	for i, p := range points {
		res[i] = p.Y - predict(p.X)
	}
	return res
}

// Percentile calculates the p-th percentile of a sorted slice.
// The slice must already be sorted in ascending order.
// Returns 0 if the slice is empty.
func Percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
