package dataset

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Format is the encoding of a dataset file.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Compression is the container wrapped around a dataset file.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

var compressionSuffixes = map[string]Compression{
	".gz":   CompressionGzip,
	".gzip": CompressionGzip,
	".zst":  CompressionZstd,
	".zstd": CompressionZstd,
	".lz4":  CompressionLZ4,
}

var formatSuffixes = map[string]Format{
	".csv":  FormatCSV,
	".txt":  FormatCSV,
	".json": FormatJSON,
	".yaml": FormatYAML,
	".yml":  FormatYAML,
}

// Detect infers the format and compression of path from its suffixes,
// e.g. "runs.csv.zst" is zstd-compressed CSV.
func Detect(path string) (Format, Compression, error) {
	name := strings.ToLower(filepath.Base(path))

	comp := CompressionNone
	if c, ok := compressionSuffixes[filepath.Ext(name)]; ok {
		comp = c
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}

	format, ok := formatSuffixes[filepath.Ext(name)]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return format, comp, nil
}

// IsDatasetFile reports whether path has a recognised dataset suffix.
func IsDatasetFile(path string) bool {
	_, _, err := Detect(path)
	return err == nil
}

// baseName strips every recognised suffix from path.
func baseName(path string) string {
	name := filepath.Base(path)
	for {
		ext := strings.ToLower(filepath.Ext(name))
		_, isComp := compressionSuffixes[ext]
		_, isFmt := formatSuffixes[ext]
		if ext == "" || (!isComp && !isFmt) {
			return name
		}
		name = name[:len(name)-len(ext)]
	}
}

// decompress wraps r in a reader for comp. The returned closer releases
// decoder resources but does not close r.
func decompress(r io.Reader, comp Compression) (io.ReadCloser, error) {
	switch comp {
	case CompressionNone:
		return io.NopCloser(r), nil
	case CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		return zr, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("open zstd stream: %w", err)
		}
		return dec.IOReadCloser(), nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("%w: compression %q", ErrUnsupportedFormat, comp)
	}
}
