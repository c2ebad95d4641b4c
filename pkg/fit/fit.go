// Package fit selects the best-fitting model for a set of 2-D points.
//
// Every model family is fitted by linearising the data, running ordinary
// least squares on the transformed points, and mapping the resulting
// line back to model coefficients. Fitters are pure: they allocate fresh
// results and hold no state, so they are safe for concurrent use.
package fit

import (
	"fmt"
	"math"

	"github.com/panbanda/fitpaper/pkg/models"
	"github.com/panbanda/fitpaper/pkg/stats"
)

// MinPoints is the fewest points any regression accepts.
const MinPoints = 2

// SaturationEpsilon is the smallest reciprocal intercept accepted by the
// saturation fit. Anything closer to zero implies an unbounded Vmax.
const SaturationEpsilon = 1e-10

// Fitter fits one model family.
type Fitter interface {
	Type() models.FitType
	// Fit returns false when the points cannot support the model.
	Fit(points []models.Point) (*models.FittedModel, bool)
}

// model describes how a family is linearised and recovered.
type model struct {
	fitType models.FitType

	// keep filters points outside the transform's domain. Nil keeps all.
	keep func(p models.Point) bool

	// forward maps an original point into the linear space.
	forward func(p models.Point) models.Point

	// untransform turns the fitted line into coefficients and a predictor.
	untransform func(l line) (params []models.Param, predict func(float64) float64, ok bool)

	equation func(params []models.Param) string
}

func (m model) Type() models.FitType {
	return m.fitType
}

func (m model) Fit(points []models.Point) (*models.FittedModel, bool) {
	valid := points
	if m.keep != nil {
		valid = make([]models.Point, 0, len(points))
		for _, p := range points {
			if m.keep(p) {
				valid = append(valid, p)
			}
		}
	}
	if len(valid) < MinPoints {
		return nil, false
	}

	transformed := valid
	if m.forward != nil {
		transformed = make([]models.Point, len(valid))
		for i, p := range valid {
			transformed[i] = m.forward(p)
		}
	}

	params, predict, ok := m.untransform(leastSquares(transformed))
	if !ok {
		return nil, false
	}

	// Goodness of fit is measured on the original points, not the
	// linearised ones.
	r2 := stats.CoefficientOfDetermination(valid, predict)
	return models.NewFittedModel(m.fitType, m.equation(params), r2, len(valid), predict, params...), true
}

var (
	linearModel = model{
		fitType: models.FitLinear,
		untransform: func(l line) ([]models.Param, func(float64) float64, bool) {
			m, c := l.slope, l.intercept
			params := []models.Param{{Name: models.ParamSlope, Value: m}, {Name: models.ParamIntercept, Value: c}}
			return params, func(x float64) float64 { return m*x + c }, true
		},
		equation: func(p []models.Param) string {
			return fmt.Sprintf("y = %.4fx + %.4f", p[0].Value, p[1].Value)
		},
	}

	exponentialModel = model{
		fitType: models.FitExponential,
		keep:    func(p models.Point) bool { return p.Y > 0 },
		forward: func(p models.Point) models.Point {
			return models.Point{X: p.X, Y: math.Log(p.Y)}
		},
		untransform: func(l line) ([]models.Param, func(float64) float64, bool) {
			a, b := math.Exp(l.intercept), l.slope
			params := []models.Param{{Name: models.ParamA, Value: a}, {Name: models.ParamB, Value: b}}
			return params, func(x float64) float64 { return a * math.Exp(b*x) }, true
		},
		equation: func(p []models.Param) string {
			return fmt.Sprintf("y = %.4fe^(%.4fx)", p[0].Value, p[1].Value)
		},
	}

	logarithmicModel = model{
		fitType: models.FitLogarithmic,
		keep:    func(p models.Point) bool { return p.X > 0 },
		forward: func(p models.Point) models.Point {
			return models.Point{X: math.Log(p.X), Y: p.Y}
		},
		untransform: func(l line) ([]models.Param, func(float64) float64, bool) {
			a, b := l.intercept, l.slope
			params := []models.Param{{Name: models.ParamA, Value: a}, {Name: models.ParamB, Value: b}}
			return params, func(x float64) float64 { return a + b*math.Log(x) }, true
		},
		equation: func(p []models.Param) string {
			return fmt.Sprintf("y = %.4f + %.4f * ln(x)", p[0].Value, p[1].Value)
		},
	}

	// Lineweaver-Burk: 1/y = (Km/Vmax)(1/x) + 1/Vmax.
	saturationModel = model{
		fitType: models.FitSaturation,
		keep:    func(p models.Point) bool { return p.X != 0 && p.Y != 0 },
		forward: func(p models.Point) models.Point {
			return models.Point{X: 1 / p.X, Y: 1 / p.Y}
		},
		untransform: func(l line) ([]models.Param, func(float64) float64, bool) {
			if math.Abs(l.intercept) < SaturationEpsilon {
				return nil, nil, false
			}
			vmax := 1 / l.intercept
			km := l.slope * vmax
			params := []models.Param{{Name: models.ParamVmax, Value: vmax}, {Name: models.ParamKm, Value: km}}
			return params, func(x float64) float64 { return (vmax * x) / (km + x) }, true
		},
		equation: func(p []models.Param) string {
			return fmt.Sprintf("y = (%.4fx) / (%.4f + x)", p[0].Value, p[1].Value)
		},
	}
)

// Fitters returns every model family in evaluation order. The order is
// the tie-break used by optimal selection.
func Fitters() []Fitter {
	return []Fitter{linearModel, exponentialModel, logarithmicModel, saturationModel}
}

// ForType returns the fitter for one model family.
func ForType(t models.FitType) (Fitter, bool) {
	for _, f := range Fitters() {
		if f.Type() == t {
			return f, true
		}
	}
	return nil, false
}

// Linear fits y = m*x + c. Identical x values produce a model with NaN
// coefficients rather than a failure; check Valid before display.
func Linear(points []models.Point) (*models.FittedModel, bool) {
	return linearModel.Fit(points)
}

// Exponential fits y = a*e^(b*x), ignoring points with y <= 0.
func Exponential(points []models.Point) (*models.FittedModel, bool) {
	return exponentialModel.Fit(points)
}

// Logarithmic fits y = a + b*ln(x), ignoring points with x <= 0.
func Logarithmic(points []models.Point) (*models.FittedModel, bool) {
	return logarithmicModel.Fit(points)
}

// Saturation fits the Michaelis-Menten curve y = Vmax*x / (Km + x),
// ignoring points where x or y is zero.
func Saturation(points []models.Point) (*models.FittedModel, bool) {
	return saturationModel.Fit(points)
}
