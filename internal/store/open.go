package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/joescharf/prreview/internal/config"
)

// ErrUnsupportedURI is returned by Open for connection strings with an
// unknown scheme.
var ErrUnsupportedURI = errors.New("unsupported store uri")

// Open connects to the store named by cfg.URI and checks it is reachable.
// mongodb:// and mongodb+srv:// select MongoDB; sqlite://<path> selects an
// embedded SQLite file.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch {
	case strings.HasPrefix(cfg.URI, "mongodb://"), strings.HasPrefix(cfg.URI, "mongodb+srv://"):
		return NewMongoStore(ctx, cfg.URI, cfg.Database, cfg.Collection, cfg.Timeout)

	case strings.HasPrefix(cfg.URI, "sqlite://"):
		path := strings.TrimPrefix(cfg.URI, "sqlite://")
		if path == "" {
			return nil, fmt.Errorf("%w: missing sqlite path in %q", ErrUnsupportedURI, cfg.URI)
		}
		s, err := NewSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURI, cfg.URI)
	}
}
