package models

import (
	"bytes"
	"encoding/json"
	"testing"

	toon "github.com/toon-format/toon-go"
)

func formatFixtures() []struct {
	name string
	data any
} {
	landscape := ScaleResult{XPerCm: 1, YPerCm: 5, StartX: 0, StartY: 10}
	return []struct {
		name string
		data any
	}{
		{
			name: "Dataset",
			data: NewDataset("growth", Point{X: 1, Y: 2}, Point{X: 2, Y: 4.5}),
		},
		{
			name: "FittedModel",
			data: NewFittedModel(FitLinear, "y = 2x + 0.1", 0.99, 3, nil,
				Param{Name: ParamSlope, Value: 2},
				Param{Name: ParamIntercept, Value: 0.1},
			),
		},
		{
			name: "ScaleReport",
			data: ScaleReport{
				Landscape: &landscape,
				Custom:    CustomScale{Active: true, XPerCm: 2, YPerCm: 2},
			},
		},
		{
			name: "Orientation",
			data: struct {
				Orientation Orientation `json:"orientation" toon:"orientation"`
			}{Portrait},
		},
		{
			name: "FitMode",
			data: struct {
				Mode FitMode `json:"mode" toon:"mode"`
			}{ModeOptimal},
		},
	}
}

// TestAllTypesSerializeToJSON ensures all model types work with JSON encoding.
func TestAllTypesSerializeToJSON(t *testing.T) {
	for _, tt := range formatFixtures() {
		t.Run(tt.name+"_json", func(t *testing.T) {
			data, err := json.Marshal(tt.data)
			if err != nil {
				t.Fatalf("json.Marshal(%s) failed: %v", tt.name, err)
			}
			if len(data) == 0 {
				t.Errorf("json.Marshal(%s) returned empty data", tt.name)
			}
		})
	}
}

// TestAllTypesSerializeToTOON ensures all model types work with TOON encoding.
func TestAllTypesSerializeToTOON(t *testing.T) {
	for _, tt := range formatFixtures() {
		t.Run(tt.name+"_toon", func(t *testing.T) {
			data, err := toon.Marshal(tt.data)
			if err != nil {
				t.Fatalf("toon.Marshal(%s) failed: %v", tt.name, err)
			}
			if len(data) == 0 {
				t.Errorf("toon.Marshal(%s) returned empty data", tt.name)
			}
		})
	}
}

func TestFittedModelJSONShape(t *testing.T) {
	m := NewFittedModel(FitSaturation, "y = 10x / (2 + x)", 0.9, 4, nil,
		Param{Name: ParamVmax, Value: 10},
		Param{Name: ParamKm, Value: 2},
	)
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded["type"] != "saturation" {
		t.Errorf("type = %v, want saturation", decoded["type"])
	}
	params, ok := decoded["params"].([]any)
	if !ok || len(params) != 2 {
		t.Fatalf("params = %v, want 2 entries", decoded["params"])
	}
	first := params[0].(map[string]any)
	if first["name"] != ParamVmax || first["value"] != 10.0 {
		t.Errorf("params[0] = %v, want vmax=10", first)
	}
	if _, ok := decoded["predict"]; ok {
		t.Error("predict function should not be serialized")
	}
}

func TestRoundTripJSON(t *testing.T) {
	original := NewDataset("calibration", Point{X: 0.5, Y: 1.25}, Point{X: 3, Y: -2})

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded Dataset
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded.Name != original.Name {
		t.Errorf("Name = %q, want %q", decoded.Name, original.Name)
	}
	if decoded.Fingerprint() != original.Fingerprint() {
		t.Errorf("Fingerprint changed after round trip")
	}
}

// TestTextOutputFormat verifies types can be formatted as text for display.
func TestTextOutputFormat(t *testing.T) {
	tests := []struct {
		name   string
		format func() string
		want   string
	}{
		{
			name:   "FitType_label",
			format: func() string { var buf bytes.Buffer; buf.WriteString(FitSaturation.Label()); return buf.String() },
			want:   "Saturation (Michaelis-Menten)",
		},
		{
			name:   "FitType_format",
			format: func() string { var buf bytes.Buffer; buf.WriteString(FitExponential.String()); return buf.String() },
			want:   "exponential",
		},
		{
			name:   "Orientation_format",
			format: func() string { var buf bytes.Buffer; buf.WriteString(Portrait.Label()); return buf.String() },
			want:   "Portrait",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.format()
			if result != tt.want {
				t.Errorf("format() = %q, want %q", result, tt.want)
			}
		})
	}
}
