// Package dataset loads point sets from CSV, JSON and YAML files,
// optionally compressed with gzip, zstd or lz4.
package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/panbanda/fitpaper/pkg/models"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

var (
	// ErrEmptyDataset is returned when a file holds no points.
	ErrEmptyDataset = errors.New("dataset has no points")

	// ErrUnsupportedFormat is returned for unrecognised file suffixes.
	ErrUnsupportedFormat = errors.New("unsupported dataset format")

	// ErrInvalidPoint is returned for NaN, infinite or unparsable values.
	ErrInvalidPoint = errors.New("invalid point")
)

// Load reads the dataset at path. The dataset name defaults to the file
// name without its format and compression suffixes.
func Load(path string) (models.Dataset, error) {
	format, comp, err := Detect(path)
	if err != nil {
		return models.Dataset{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return models.Dataset{}, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	rc, err := decompress(f, comp)
	if err != nil {
		return models.Dataset{}, fmt.Errorf("%s: %w", path, err)
	}
	defer rc.Close()

	ds, err := Read(rc, format)
	if err != nil {
		return models.Dataset{}, fmt.Errorf("%s: %w", path, err)
	}
	if ds.Name == "" {
		ds.Name = baseName(path)
	}
	return ds, nil
}

// Read decodes an uncompressed dataset in the given format.
func Read(r io.Reader, format Format) (models.Dataset, error) {
	var (
		ds  models.Dataset
		err error
	)
	switch format {
	case FormatCSV:
		ds, err = readCSV(r)
	case FormatJSON:
		ds, err = readJSON(r)
	case FormatYAML:
		ds, err = readYAML(r)
	default:
		return models.Dataset{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return models.Dataset{}, err
	}

	for i, p := range ds.Points {
		if !p.Finite() {
			return models.Dataset{}, fmt.Errorf("%w: point %d (%v, %v) is not finite", ErrInvalidPoint, i, p.X, p.Y)
		}
	}
	if ds.Len() == 0 {
		return models.Dataset{}, ErrEmptyDataset
	}
	return ds, nil
}

// readCSV accepts two numeric columns. A first row that does not parse
// is treated as a header; lines starting with '#' are comments.
func readCSV(r io.Reader) (models.Dataset, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var points []models.Point
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return models.Dataset{}, fmt.Errorf("read csv: %w", err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) < 2 {
			return models.Dataset{}, fmt.Errorf("%w: row %d has %d columns, want 2", ErrInvalidPoint, row, len(rec))
		}

		x, errX := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if errX != nil || errY != nil {
			if row == 1 {
				continue
			}
			return models.Dataset{}, fmt.Errorf("%w: row %d: %q, %q", ErrInvalidPoint, row, rec[0], rec[1])
		}
		points = append(points, models.Point{X: x, Y: y})
	}
	return models.Dataset{Points: points}, nil
}

const schemaURL = "https://fitpaper.dev/schema/dataset.json"

const datasetSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$defs": {
    "pair": {
      "type": "array",
      "prefixItems": [{"type": "number"}, {"type": "number"}],
      "minItems": 2,
      "maxItems": 2
    },
    "point": {
      "type": "object",
      "properties": {"x": {"type": "number"}, "y": {"type": "number"}},
      "required": ["x", "y"]
    }
  },
  "oneOf": [
    {"type": "array", "items": {"$ref": "#/$defs/pair"}},
    {
      "type": "object",
      "properties": {
        "name": {"type": "string"},
        "points": {
          "type": "array",
          "items": {"oneOf": [{"$ref": "#/$defs/point"}, {"$ref": "#/$defs/pair"}]}
        }
      },
      "required": ["points"]
    }
  ]
}`

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(datasetSchema))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, err
	}
	return c.Compile(schemaURL)
})

// pointValue decodes either {"x": 1, "y": 2} or [1, 2].
type pointValue models.Point

func (p *pointValue) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err == nil {
		*p = pointValue{X: pair[0], Y: pair[1]}
		return nil
	}
	var pt models.Point
	if err := json.Unmarshal(data, &pt); err != nil {
		return err
	}
	*p = pointValue(pt)
	return nil
}

func (p *pointValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var pair []float64
		if err := node.Decode(&pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("%w: line %d: want [x, y], got %d values", ErrInvalidPoint, node.Line, len(pair))
		}
		*p = pointValue{X: pair[0], Y: pair[1]}
		return nil
	}
	var pt struct {
		X *float64 `yaml:"x"`
		Y *float64 `yaml:"y"`
	}
	if err := node.Decode(&pt); err != nil {
		return err
	}
	if pt.X == nil || pt.Y == nil {
		return fmt.Errorf("%w: line %d: point needs both x and y", ErrInvalidPoint, node.Line)
	}
	*p = pointValue{X: *pt.X, Y: *pt.Y}
	return nil
}

type document struct {
	Name   string       `json:"name" yaml:"name"`
	Points []pointValue `json:"points" yaml:"points"`
}

func (d document) dataset() models.Dataset {
	points := make([]models.Point, len(d.Points))
	for i, p := range d.Points {
		points[i] = models.Point(p)
	}
	return models.Dataset{Name: d.Name, Points: points}
}

func readJSON(r io.Reader) (models.Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return models.Dataset{}, fmt.Errorf("read json: %w", err)
	}

	schema, err := compileSchema()
	if err != nil {
		return models.Dataset{}, fmt.Errorf("compile dataset schema: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return models.Dataset{}, fmt.Errorf("parse json: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return models.Dataset{}, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}

	var doc document
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(data, &doc.Points)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return models.Dataset{}, fmt.Errorf("decode json: %w", err)
	}
	return doc.dataset(), nil
}

func readYAML(r io.Reader) (models.Dataset, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return models.Dataset{}, ErrEmptyDataset
		}
		return models.Dataset{}, fmt.Errorf("parse yaml: %w", err)
	}

	var doc document
	body := &root
	if body.Kind == yaml.DocumentNode && len(body.Content) > 0 {
		body = body.Content[0]
	}
	var err error
	if body.Kind == yaml.SequenceNode {
		err = body.Decode(&doc.Points)
	} else {
		err = body.Decode(&doc)
	}
	if err != nil {
		return models.Dataset{}, fmt.Errorf("decode yaml: %w", err)
	}
	return doc.dataset(), nil
}
