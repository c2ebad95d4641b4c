package scale

import (
	"math"
	"testing"

	"github.com/panbanda/fitpaper/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func TestStandard(t *testing.T) {
	tests := []struct {
		name   string
		rangeV float64
		length float64
		want   float64
	}{
		{"rounds 3.7 up to 5", 37, 10, 5},
		{"zero range", 0, 10, 0},
		{"exact unit", 10, 10, 1},
		{"exact two", 20, 10, 2},
		{"between two and five", 25, 10, 5},
		{"above five goes to ten", 60, 10, 10},
		{"tenths", 1, 10, 0.1},
		{"tens", 370, 10, 50},
		{"thousandths", 0.037, 10, 0.005},
		{"a4 landscape width", 10, 26, 0.5},
		{"zero length", 10, 0, 0},
		{"negative range", -4, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Standard(tt.rangeV, tt.length), 1e-12)
		})
	}
}

func TestStandard_AlwaysCoversRange(t *testing.T) {
	for _, r := range []float64{0.0013, 0.7, 3, 9.99, 11, 47.5, 123, 9999, 1e7} {
		for _, l := range []float64{16, 26} {
			s := Standard(r, l)
			assert.GreaterOrEqual(t, s*l, r*(1-1e-12), "range %v on %v", r, l)
			// The next smaller nice step would not fit.
			assert.Less(t, s/2.5*l, r*(1+1e-12), "range %v on %v", r, l)
		}
	}
}

func TestCalculate(t *testing.T) {
	points := []models.Point{{X: 0, Y: 0}, {X: 4, Y: 20}, {X: 10, Y: 50}}

	res, ok := Calculate(points, 26, 16, nil, nil)
	require.True(t, ok)
	assert.InDelta(t, 0.5, res.XPerCm, 1e-12)
	assert.InDelta(t, 5, res.YPerCm, 1e-12)
	assert.Equal(t, 0.0, res.StartX)
	assert.Equal(t, 0.0, res.StartY)
}

func TestCalculate_Overrides(t *testing.T) {
	points := []models.Point{{X: 2, Y: 10}, {X: 10, Y: 50}}

	res, ok := Calculate(points, 26, 16, f64(-16), f64(0))
	require.True(t, ok)
	assert.Equal(t, -16.0, res.StartX)
	assert.Equal(t, 0.0, res.StartY)
	assert.InDelta(t, 1, res.XPerCm, 1e-12)
	assert.InDelta(t, 5, res.YPerCm, 1e-12)

	res, ok = Calculate(points, 26, 16, f64(math.NaN()), f64(math.Inf(-1)))
	require.True(t, ok, "non-finite overrides are ignored")
	assert.Equal(t, 2.0, res.StartX)
	assert.Equal(t, 10.0, res.StartY)
}

func TestCalculate_NoResult(t *testing.T) {
	tests := []struct {
		name   string
		points []models.Point
		startX *float64
		startY *float64
	}{
		{"no points", nil, nil, nil},
		{"single point", []models.Point{{X: 1, Y: 1}}, nil, nil},
		{"identical x", []models.Point{{X: 3, Y: 1}, {X: 3, Y: 9}}, nil, nil},
		{"identical y", []models.Point{{X: 1, Y: 4}, {X: 5, Y: 4}}, nil, nil},
		{"override above max x", []models.Point{{X: 1, Y: 1}, {X: 5, Y: 9}}, f64(6), nil},
		{"override equals max y", []models.Point{{X: 1, Y: 1}, {X: 5, Y: 9}}, nil, f64(9)},
		{"x range overflows", []models.Point{{X: -1e308, Y: 0}, {X: 1e308, Y: 1}}, nil, nil},
		{"y range overflows", []models.Point{{X: 0, Y: 1e308}, {X: 1, Y: -1e308}}, nil, nil},
		{"override overflows range", []models.Point{{X: 1, Y: 1}, {X: 1e308, Y: 9}}, f64(-1e308), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Calculate(tt.points, 26, 16, tt.startX, tt.startY)
			assert.False(t, ok)
		})
	}
}

func TestCompute_Orientations(t *testing.T) {
	points := []models.Point{{X: 0, Y: 0}, {X: 10, Y: 50}}

	report := Compute(points, Options{Paper: A4})
	require.NotNil(t, report.Landscape)
	require.NotNil(t, report.Portrait)

	assert.InDelta(t, 0.5, report.Landscape.XPerCm, 1e-12)
	assert.InDelta(t, 5, report.Landscape.YPerCm, 1e-12)
	assert.InDelta(t, 1, report.Portrait.XPerCm, 1e-12)
	assert.InDelta(t, 2, report.Portrait.YPerCm, 1e-12)
	assert.False(t, report.Custom.Active)
}

func TestCompute_DefaultsToA4(t *testing.T) {
	points := []models.Point{{X: 0, Y: 0}, {X: 10, Y: 50}}
	assert.Equal(t, Compute(points, Options{Paper: A4}), Compute(points, Options{}))
}

func TestCompute_Degenerate(t *testing.T) {
	report := Compute([]models.Point{{X: 1, Y: 1}, {X: 1, Y: 2}}, Options{})
	assert.Nil(t, report.Landscape)
	assert.Nil(t, report.Portrait)
}

func TestCustom(t *testing.T) {
	land := &models.ScaleResult{XPerCm: 1, YPerCm: 2, StartX: 3, StartY: 4}

	tests := []struct {
		name   string
		x, y   *float64
		sx, sy *float64
		land   *models.ScaleResult
		want   models.CustomScale
	}{
		{
			name: "inactive without both values",
			x:    f64(2),
			land: land,
			want: models.CustomScale{},
		},
		{
			name: "inactive for non-positive value",
			x:    f64(2), y: f64(0),
			want: models.CustomScale{},
		},
		{
			name: "origin from landscape",
			x:    f64(2), y: f64(5),
			land: land,
			want: models.CustomScale{Active: true, XPerCm: 2, YPerCm: 5, StartX: 3, StartY: 4},
		},
		{
			name: "origin from overrides",
			x:    f64(2), y: f64(5),
			sx: f64(-1), sy: f64(-2),
			land: land,
			want: models.CustomScale{Active: true, XPerCm: 2, YPerCm: 5, StartX: -1, StartY: -2},
		},
		{
			name: "origin zero without landscape",
			x:    f64(0.25), y: f64(10),
			want: models.CustomScale{Active: true, XPerCm: 0.25, YPerCm: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Custom(tt.x, tt.y, tt.sx, tt.sy, tt.land))
		})
	}
}

func TestPaper(t *testing.T) {
	w, h := A4.Landscape()
	assert.Equal(t, 26.0, w)
	assert.Equal(t, 16.0, h)

	w, h = A4.Portrait()
	assert.Equal(t, 16.0, w)
	assert.Equal(t, 26.0, h)
}
