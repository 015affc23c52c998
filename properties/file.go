package properties

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// FileLoader reads a property bag from the local file system.
type FileLoader struct {
	path string
	log  *slog.Logger
}

// NewFileLoader creates a loader for the given file path.
func NewFileLoader(path string, log *slog.Logger) *FileLoader {
	return &FileLoader{path: path, log: log}
}

// Load reads and parses the property file.
func (l *FileLoader) Load(ctx context.Context) (Properties, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("could not open properties file: %w", err)
	}
	defer f.Close()

	props, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", l.path, err)
	}

	l.log.Debug("Loaded properties from file",
		slog.String("path", l.path),
		slog.Int("keys", len(props)))

	return props, nil
}

func (l *FileLoader) LocationURI() string {
	return fmt.Sprintf("file://%s", l.path)
}
