package models

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
)

// ErrIndexOutOfRange is returned when removing a point that does not exist.
var ErrIndexOutOfRange = errors.New("point index out of range")

// Point is a single (x, y) observation.
type Point struct {
	X float64 `json:"x" yaml:"x" toon:"x"`
	Y float64 `json:"y" yaml:"y" toon:"y"`
}

// Finite reports whether both coordinates are finite.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Dataset is an ordered sequence of points. Order is kept for display
// only; every fitter is order independent.
//
// Datasets are values: Add and Remove return a new Dataset and never
// modify the receiver's backing array.
type Dataset struct {
	Name   string  `json:"name,omitempty" yaml:"name,omitempty" toon:"name"`
	Points []Point `json:"points" yaml:"points" toon:"points"`
}

// NewDataset creates a dataset holding a copy of points.
func NewDataset(name string, points ...Point) Dataset {
	cp := make([]Point, len(points))
	copy(cp, points)
	return Dataset{Name: name, Points: cp}
}

// Len returns the number of points.
func (d Dataset) Len() int {
	return len(d.Points)
}

// Add returns a new dataset with p appended.
func (d Dataset) Add(p Point) Dataset {
	points := make([]Point, len(d.Points), len(d.Points)+1)
	copy(points, d.Points)
	return Dataset{Name: d.Name, Points: append(points, p)}
}

// Remove returns a new dataset without the point at index i.
func (d Dataset) Remove(i int) (Dataset, error) {
	if i < 0 || i >= len(d.Points) {
		return d, fmt.Errorf("remove %d of %d: %w", i, len(d.Points), ErrIndexOutOfRange)
	}
	points := make([]Point, 0, len(d.Points)-1)
	points = append(points, d.Points[:i]...)
	points = append(points, d.Points[i+1:]...)
	return Dataset{Name: d.Name, Points: points}, nil
}

// XS returns the x coordinates in dataset order.
func (d Dataset) XS() []float64 {
	xs := make([]float64, len(d.Points))
	for i, p := range d.Points {
		xs[i] = p.X
	}
	return xs
}

// YS returns the y coordinates in dataset order.
func (d Dataset) YS() []float64 {
	ys := make([]float64, len(d.Points))
	for i, p := range d.Points {
		ys[i] = p.Y
	}
	return ys
}

// Fingerprint returns a stable 64-bit hash of the point coordinates.
// The name does not contribute, so renamed copies share a fingerprint.
func (d Dataset) Fingerprint() string {
	h := xxhash.New()
	var buf [16]byte
	for _, p := range d.Points {
		binary.LittleEndian.PutUint64(buf[:8], math.Float64bits(p.X))
		binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(p.Y))
		_, _ = h.Write(buf[:])
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
