package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDataset_CopiesPoints(t *testing.T) {
	src := []Point{{X: 1, Y: 2}, {X: 3, Y: 4}}
	ds := NewDataset("copy", src...)
	src[0].X = 99

	assert.Equal(t, 1.0, ds.Points[0].X)
	assert.Equal(t, 2, ds.Len())
}

func TestDataset_Add(t *testing.T) {
	ds := NewDataset("grow", Point{X: 1, Y: 1})
	grown := ds.Add(Point{X: 2, Y: 4})

	assert.Equal(t, 1, ds.Len())
	require.Equal(t, 2, grown.Len())
	assert.Equal(t, Point{X: 2, Y: 4}, grown.Points[1])
	assert.Equal(t, "grow", grown.Name)
}

func TestDataset_Remove(t *testing.T) {
	ds := NewDataset("shrink", Point{X: 1, Y: 1}, Point{X: 2, Y: 2}, Point{X: 3, Y: 3})

	tests := []struct {
		name    string
		index   int
		want    []Point
		wantErr bool
	}{
		{name: "first", index: 0, want: []Point{{X: 2, Y: 2}, {X: 3, Y: 3}}},
		{name: "middle", index: 1, want: []Point{{X: 1, Y: 1}, {X: 3, Y: 3}}},
		{name: "last", index: 2, want: []Point{{X: 1, Y: 1}, {X: 2, Y: 2}}},
		{name: "negative", index: -1, wantErr: true},
		{name: "past end", index: 3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ds.Remove(tt.index)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrIndexOutOfRange)
				assert.Equal(t, ds, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Points)
		})
	}

	assert.Equal(t, 3, ds.Len(), "receiver must be unchanged")
}

func TestDataset_Coordinates(t *testing.T) {
	ds := NewDataset("", Point{X: 1, Y: 10}, Point{X: 2, Y: 20})
	assert.Equal(t, []float64{1, 2}, ds.XS())
	assert.Equal(t, []float64{10, 20}, ds.YS())
}

func TestDataset_Fingerprint(t *testing.T) {
	a := NewDataset("a", Point{X: 1, Y: 2}, Point{X: 3, Y: 4})
	b := NewDataset("b", Point{X: 1, Y: 2}, Point{X: 3, Y: 4})
	c := NewDataset("a", Point{X: 3, Y: 4}, Point{X: 1, Y: 2})

	assert.Len(t, a.Fingerprint(), 16)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint(), "name does not contribute")
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint(), "order contributes")
	assert.NotEqual(t, a.Fingerprint(), a.Add(Point{}).Fingerprint())
}

func TestPoint_Finite(t *testing.T) {
	assert.True(t, Point{X: 1, Y: -1}.Finite())
	assert.False(t, Point{X: nan(), Y: 1}.Finite())
	assert.False(t, Point{X: 1, Y: inf()}.Finite())
}
