package model

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/ndvi-forecast/internal/domain"
	"github.com/couchcryptid/ndvi-forecast/internal/observability"
)

// Options selects and configures the model backend.
type Options struct {
	Source    string // "file" or "http"
	Path      string
	URL       string
	Timeout   time.Duration
	CacheSize int // 0 disables the in-memory cache
}

// Open loads the configured model once and wraps it in the in-memory cache.
// Any error here is fatal to the caller.
func Open(ctx context.Context, opts Options, metrics *observability.Metrics, logger *slog.Logger) (domain.Model, error) {
	var m domain.Model
	switch opts.Source {
	case "file", "":
		fm, err := LoadFile(opts.Path, metrics)
		if err != nil {
			return nil, err
		}
		logger.Info("model loaded", "source", "file", "path", opts.Path, "kind", fm.Kind())
		m = fm
	case "http":
		c := NewClient(opts.URL, opts.Timeout, metrics, logger)
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
		m = c
	default:
		return nil, fmt.Errorf("unknown model source %q", opts.Source)
	}

	if opts.CacheSize > 0 {
		m = NewCachedModel(m, opts.CacheSize, metrics)
	}
	return m, nil
}
