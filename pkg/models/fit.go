package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnknownFitMode is returned by ParseFitMode for unrecognised names.
var ErrUnknownFitMode = errors.New("unknown fit mode")

// FitType identifies one model family.
type FitType string

const (
	FitLinear      FitType = "linear"
	FitExponential FitType = "exponential"
	FitLogarithmic FitType = "logarithmic"
	FitSaturation  FitType = "saturation"
)

// FitTypes lists every model family in evaluation order.
func FitTypes() []FitType {
	return []FitType{FitLinear, FitExponential, FitLogarithmic, FitSaturation}
}

// Label returns a human-readable name for the model family.
func (t FitType) Label() string {
	switch t {
	case FitLinear:
		return "Linear"
	case FitExponential:
		return "Exponential"
	case FitLogarithmic:
		return "Logarithmic"
	case FitSaturation:
		return "Saturation (Michaelis-Menten)"
	default:
		return string(t)
	}
}

// FitMode selects either one model family or the best of all of them.
type FitMode string

const (
	ModeLinear      = FitMode(FitLinear)
	ModeExponential = FitMode(FitExponential)
	ModeLogarithmic = FitMode(FitLogarithmic)
	ModeSaturation  = FitMode(FitSaturation)
	ModeOptimal     FitMode = "optimal"
)

// ParseFitMode converts a string to a FitMode.
func ParseFitMode(s string) (FitMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "optimal", "best", "auto":
		return ModeOptimal, nil
	case "linear", "lin":
		return ModeLinear, nil
	case "exponential", "exp":
		return ModeExponential, nil
	case "logarithmic", "log":
		return ModeLogarithmic, nil
	case "saturation", "sat", "michaelis-menten", "mm":
		return ModeSaturation, nil
	default:
		return "", fmt.Errorf("%w: %q (want optimal, linear, exponential, logarithmic or saturation)", ErrUnknownFitMode, s)
	}
}

// FitType returns the single model family for a named mode.
// It returns false for ModeOptimal.
func (m FitMode) FitType() (FitType, bool) {
	switch t := FitType(m); t {
	case FitLinear, FitExponential, FitLogarithmic, FitSaturation:
		return t, true
	default:
		return "", false
	}
}

// Param is one named model coefficient.
type Param struct {
	Name  string  `json:"name" toon:"name"`
	Value float64 `json:"value" toon:"value"`
}

// Parameter names used by the model families.
const (
	ParamSlope     = "slope"
	ParamIntercept = "intercept"
	ParamA         = "a"
	ParamB         = "b"
	ParamVmax      = "vmax"
	ParamKm        = "km"
)

// FittedModel is the outcome of fitting one model family to a point set.
// It has no identity and is recomputed whenever the data changes.
type FittedModel struct {
	Type     FitType `json:"type" toon:"type"`
	Equation string  `json:"equation" toon:"equation"`
	R2       float64 `json:"r2" toon:"r2"`
	Params   []Param `json:"params" toon:"params"`
	// N is the number of points that survived domain filtering.
	N int `json:"n" toon:"n"`

	predict func(float64) float64
}

// NewFittedModel assembles a fitted model around its prediction function.
func NewFittedModel(t FitType, equation string, r2 float64, n int, predict func(float64) float64, params ...Param) *FittedModel {
	return &FittedModel{
		Type:     t,
		Equation: equation,
		R2:       r2,
		Params:   params,
		N:        n,
		predict:  predict,
	}
}

// Predict evaluates the model at x. The result may be non-finite outside
// the model's domain.
func (m *FittedModel) Predict(x float64) float64 {
	if m.predict == nil {
		return math.NaN()
	}
	return m.predict(x)
}

// Param returns the named coefficient.
func (m *FittedModel) Param(name string) (float64, bool) {
	for _, p := range m.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return 0, false
}

// Valid reports whether r2 and every coefficient are finite. Invalid
// models must not be presented as usable fits.
func (m *FittedModel) Valid() bool {
	if !isFinite(m.R2) {
		return false
	}
	for _, p := range m.Params {
		if !isFinite(p.Value) {
			return false
		}
	}
	return true
}

// Domain reports whether the model may be evaluated at x.
func (m *FittedModel) Domain(x float64) bool {
	switch m.Type {
	case FitLogarithmic:
		return x > 0
	case FitSaturation:
		km, _ := m.Param(ParamKm)
		return x != -km
	default:
		return true
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
