package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/couchcryptid/ndvi-forecast/internal/domain"
	"github.com/couchcryptid/ndvi-forecast/internal/observability"
)

const (
	kindLinear = "linear"
	kindForest = "forest"
)

// artifact is the on-disk JSON form of an exported regression model.
type artifact struct {
	Features     []string  `json:"features"`
	Kind         string    `json:"kind"`
	Intercept    float64   `json:"intercept,omitempty"`
	Coefficients []float64 `json:"coefficients,omitempty"`
	Trees        []tree    `json:"trees,omitempty"`
}

// tree is a flattened regression tree. Node 0 is the root; a node with
// Left < 0 is a leaf.
type tree struct {
	Nodes []node `json:"nodes"`
}

type node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// FileModel evaluates a regression artifact in process. It is immutable
// after loading and safe for concurrent use.
type FileModel struct {
	art     artifact
	metrics *observability.Metrics
}

// LoadFile reads and validates the artifact at path.
func LoadFile(path string, metrics *observability.Metrics) (*FileModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model artifact: %w", err)
	}
	defer f.Close()

	m, err := Load(f, metrics)
	if err != nil {
		return nil, fmt.Errorf("load model artifact %s: %w", path, err)
	}
	return m, nil
}

// Load decodes and validates an artifact from r.
func Load(r io.Reader, metrics *observability.Metrics) (*FileModel, error) {
	var art artifact
	if err := json.NewDecoder(r).Decode(&art); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if err := domain.CheckSchema(art.Features); err != nil {
		return nil, err
	}
	if err := art.validate(); err != nil {
		return nil, err
	}
	return &FileModel{art: art, metrics: metrics}, nil
}

// Predict evaluates the model for one row.
func (m *FileModel) Predict(_ context.Context, f domain.Features) (float64, error) {
	start := time.Now()
	defer func() {
		if m.metrics != nil {
			m.metrics.ModelDuration.WithLabelValues("file").Observe(time.Since(start).Seconds())
		}
	}()

	row := f.Row()
	switch m.art.Kind {
	case kindLinear:
		v := m.art.Intercept
		for i, c := range m.art.Coefficients {
			v += c * row[i]
		}
		return v, nil
	case kindForest:
		var sum float64
		for i := range m.art.Trees {
			sum += m.art.Trees[i].eval(row)
		}
		return sum / float64(len(m.art.Trees)), nil
	default:
		return 0, fmt.Errorf("unknown model kind %q", m.art.Kind)
	}
}

// Kind reports the artifact's model family.
func (m *FileModel) Kind() string { return m.art.Kind }

func (a *artifact) validate() error {
	n := len(domain.FeatureSchema)
	switch a.Kind {
	case kindLinear:
		if len(a.Coefficients) != n {
			return fmt.Errorf("linear model needs %d coefficients, got %d", n, len(a.Coefficients))
		}
	case kindForest:
		if len(a.Trees) == 0 {
			return errors.New("forest model has no trees")
		}
		for i := range a.Trees {
			if err := a.Trees[i].validate(n); err != nil {
				return fmt.Errorf("tree %d: %w", i, err)
			}
		}
	case "":
		return errors.New("model kind is required")
	default:
		return fmt.Errorf("unsupported model kind %q", a.Kind)
	}
	return nil
}

// validate checks feature indices and that every child index is greater than
// its parent, which guarantees evaluation terminates.
func (t *tree) validate(features int) error {
	if len(t.Nodes) == 0 {
		return errors.New("no nodes")
	}
	for i, nd := range t.Nodes {
		if nd.Left < 0 {
			continue
		}
		if nd.Feature < 0 || nd.Feature >= features {
			return fmt.Errorf("node %d: feature index %d out of range", i, nd.Feature)
		}
		if nd.Left <= i || nd.Left >= len(t.Nodes) || nd.Right <= i || nd.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d: invalid children %d/%d", i, nd.Left, nd.Right)
		}
	}
	return nil
}

func (t *tree) eval(row []float64) float64 {
	i := 0
	for {
		nd := t.Nodes[i]
		if nd.Left < 0 {
			return nd.Value
		}
		if row[nd.Feature] <= nd.Threshold {
			i = nd.Left
		} else {
			i = nd.Right
		}
	}
}
