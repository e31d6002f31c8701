package daemon

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/1broseidon/ginn/internal/wish"
)

// ErrNoWishSources means no wish source file could be read.
var ErrNoWishSources = errors.New("no wish sources found")

// SourceLoader produces the raw wish documents for one load.
type SourceLoader interface {
	Load() ([]wish.Source, error)
	// Paths lists the files the next Load would consider.
	Paths() []string
}

// FileSources reads wish files from disk. The file list is resolved again
// on every load so new drop-in files are picked up on reload.
type FileSources struct {
	resolve func() []string
	logger  *slog.Logger
}

func NewFileSources(resolve func() []string, logger *slog.Logger) *FileSources {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &FileSources{resolve: resolve, logger: logger}
}

func (f *FileSources) Paths() []string {
	return f.resolve()
}

// Load reads every listed file. Unreadable files are logged and skipped;
// if none can be read the result is ErrNoWishSources.
func (f *FileSources) Load() ([]wish.Source, error) {
	paths := f.resolve()
	sources := make([]wish.Source, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			f.logger.Warn("skipping unreadable wish source", "source", path, "error", err)
			continue
		}
		sources = append(sources, wish.Source{Name: path, Text: data})
	}
	if len(sources) == 0 {
		if len(paths) == 0 {
			return nil, ErrNoWishSources
		}
		return nil, fmt.Errorf("%w (tried %d files)", ErrNoWishSources, len(paths))
	}
	return sources, nil
}
