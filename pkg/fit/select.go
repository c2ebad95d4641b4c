package fit

import (
	"math"

	"github.com/panbanda/fitpaper/pkg/models"
)

// Candidate is the outcome of one fitter during selection.
type Candidate struct {
	Type  models.FitType      `json:"type" toon:"type"`
	Model *models.FittedModel `json:"model,omitempty" toon:"model"`
	OK    bool                `json:"ok" toon:"ok"`
}

// FitAll runs every fitter over points, in evaluation order.
func FitAll(points []models.Point) []Candidate {
	fitters := Fitters()
	out := make([]Candidate, 0, len(fitters))
	for _, f := range fitters {
		m, ok := f.Fit(points)
		out = append(out, Candidate{Type: f.Type(), Model: m, OK: ok})
	}
	return out
}

// Select fits points with the model chosen by mode.
//
// A named mode returns that fitter's result unchanged. ModeOptimal returns
// the successful fit with the highest r2, the earliest in evaluation
// order on ties; if every fitter fails it falls back to the linear fit.
// Fewer than MinPoints points never produce a result.
func Select(points []models.Point, mode models.FitMode) (*models.FittedModel, bool) {
	if len(points) < MinPoints {
		return nil, false
	}

	if t, ok := mode.FitType(); ok {
		f, _ := ForType(t)
		return f.Fit(points)
	}
	if mode != models.ModeOptimal {
		return nil, false
	}

	if best := Best(FitAll(points)); best != nil {
		return best, true
	}
	return Linear(points)
}

// Best returns the highest scoring successful candidate, or nil.
// A NaN r2 never beats a comparable score.
func Best(candidates []Candidate) *models.FittedModel {
	var best *models.FittedModel
	for _, c := range candidates {
		if !c.OK || c.Model == nil {
			continue
		}
		if best == nil || outranks(c.Model.R2, best.R2) {
			best = c.Model
		}
	}
	return best
}

func outranks(r2, current float64) bool {
	if math.IsNaN(r2) {
		return false
	}
	if math.IsNaN(current) {
		return true
	}
	return r2 > current
}
