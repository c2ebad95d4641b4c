package fit

import (
	"math"

	"github.com/panbanda/fitpaper/pkg/models"
	"gonum.org/v1/gonum/stat"
)

// line is a least-squares straight line v = slope*u + intercept.
type line struct {
	slope     float64
	intercept float64
}

// leastSquares fits an ordinary least-squares line through points.
//
// When every x is identical there is no unique line and both coefficients
// are NaN.
func leastSquares(points []models.Point) line {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}

	if constant(xs) {
		return line{slope: math.NaN(), intercept: math.NaN()}
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	return line{slope: slope, intercept: intercept}
}

func constant(values []float64) bool {
	if len(values) == 0 {
		return true
	}
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
