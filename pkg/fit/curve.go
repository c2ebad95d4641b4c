package fit

import (
	"math"

	"github.com/panbanda/fitpaper/pkg/models"
)

// DefaultCurveSteps is the number of sampling intervals across the data range.
const DefaultCurveSteps = 50

// curveMargin extends the sampled range past the data on both sides.
const curveMargin = 0.1

// SampleCurve evaluates m across the x range of points, padded by 10% on
// either side, for drawing a smooth fit line. Abscissas outside the
// model's domain and non-finite predictions are skipped.
func SampleCurve(m *models.FittedModel, points []models.Point, steps int) []models.Point {
	if m == nil || len(points) == 0 {
		return nil
	}
	if steps <= 0 {
		steps = DefaultCurveSteps
	}

	minX, maxX := points[0].X, points[0].X
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
	}
	span := maxX - minX
	if span == 0 {
		span = 1
	}

	step := span / float64(steps)
	start := minX - span*curveMargin
	end := maxX + span*curveMargin
	// Tolerate rounding at the far edge.
	limit := end + step*1e-9

	out := make([]models.Point, 0, steps+steps/4+1)
	for i := 0; ; i++ {
		x := start + float64(i)*step
		if x > limit {
			break
		}
		if !m.Domain(x) {
			continue
		}
		y := m.Predict(x)
		if math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		out = append(out, models.Point{X: x, Y: y})
	}
	return out
}
