// Package testutil holds helpers for writing dataset fixtures in tests.
package testutil

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/panbanda/fitpaper/pkg/models"
)

// WriteFile writes content to a file in the real filesystem.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll(%s) error: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", path, err)
	}
}

// ReadFile reads content from a file.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error: %v", path, err)
	}
	return string(data)
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CreateFileTree creates multiple files from a map of path -> content.
func CreateFileTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		WriteFile(t, filepath.Join(root, name), content)
	}
}

// CSV formats points as a headed two-column CSV document.
func CSV(points ...models.Point) string {
	var b strings.Builder
	b.WriteString("x,y\n")
	for _, p := range points {
		b.WriteString(strconv.FormatFloat(p.X, 'g', -1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(p.Y, 'g', -1, 64))
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteCSV writes points to path as CSV and returns path.
func WriteCSV(t *testing.T, path string, points ...models.Point) string {
	t.Helper()
	WriteFile(t, path, CSV(points...))
	return path
}

// WriteGzip writes content gzip-compressed to path.
func WriteGzip(t *testing.T, path, content string) {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(content)); err != nil {
		t.Fatalf("gzip write error: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close error: %v", err)
	}
	WriteFile(t, path, buf.String())
}

// Line returns n points on y = slope*x + intercept for x = 0..n-1.
func Line(n int, slope, intercept float64) []models.Point {
	points := make([]models.Point, n)
	for i := range points {
		x := float64(i)
		points[i] = models.Point{X: x, Y: slope*x + intercept}
	}
	return points
}

// Exponential returns n points on y = a*e^(b*x) for x = 0..n-1.
func Exponential(n int, a, b float64) []models.Point {
	points := make([]models.Point, n)
	for i := range points {
		x := float64(i)
		points[i] = models.Point{X: x, Y: a * math.Exp(b*x)}
	}
	return points
}
