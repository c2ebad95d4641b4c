package models

import (
	"fmt"
	"strings"
)

// Orientation is the way the sheet is turned.
type Orientation string

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
)

// ParseOrientation converts a string to an Orientation.
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "landscape", "l":
		return Landscape, nil
	case "portrait", "p":
		return Portrait, nil
	default:
		return "", fmt.Errorf("unknown orientation %q (want landscape or portrait)", s)
	}
}

// Label returns the capitalised orientation name.
func (o Orientation) Label() string {
	if o == Portrait {
		return "Portrait"
	}
	return "Landscape"
}

// ScaleResult maps data units onto centimetres of paper for one sheet
// orientation. XPerCm and YPerCm are data units per centimetre.
type ScaleResult struct {
	XPerCm float64 `json:"x_per_cm" toon:"x_per_cm"`
	YPerCm float64 `json:"y_per_cm" toon:"y_per_cm"`
	StartX float64 `json:"start_x" toon:"start_x"`
	StartY float64 `json:"start_y" toon:"start_y"`
}

// Distance converts a data point to its offset on paper, in centimetres,
// from the axis origin (StartX, StartY).
func (s ScaleResult) Distance(x, y float64) (dx, dy float64) {
	return (x - s.StartX) / s.XPerCm, (y - s.StartY) / s.YPerCm
}

// CustomScale is a caller-supplied scale that bypasses nice-step
// selection. It only applies when Active is set.
type CustomScale struct {
	Active bool    `json:"active" toon:"active"`
	XPerCm float64 `json:"x_per_cm,omitempty" toon:"x_per_cm"`
	YPerCm float64 `json:"y_per_cm,omitempty" toon:"y_per_cm"`
	StartX float64 `json:"start_x,omitempty" toon:"start_x"`
	StartY float64 `json:"start_y,omitempty" toon:"start_y"`
}

// Result returns the custom scale as a ScaleResult.
func (c CustomScale) Result() ScaleResult {
	return ScaleResult{XPerCm: c.XPerCm, YPerCm: c.YPerCm, StartX: c.StartX, StartY: c.StartY}
}

// ScaleReport holds the scales computed from one dataset. Landscape and
// Portrait are nil when the data range on either axis is not positive.
type ScaleReport struct {
	Landscape *ScaleResult `json:"landscape" toon:"landscape"`
	Portrait  *ScaleResult `json:"portrait" toon:"portrait"`
	Custom    CustomScale  `json:"custom" toon:"custom"`
}

// Active returns the scale that applies for the chosen orientation. When
// useCustom is set and the custom scale is active, it wins regardless of
// orientation.
func (r ScaleReport) Active(o Orientation, useCustom bool) (ScaleResult, bool) {
	if useCustom && r.Custom.Active {
		return r.Custom.Result(), true
	}
	res := r.Landscape
	if o == Portrait {
		res = r.Portrait
	}
	if res == nil {
		return ScaleResult{}, false
	}
	return *res, true
}
