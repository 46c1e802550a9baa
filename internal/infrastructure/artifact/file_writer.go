// Package artifact persists per-operation output documents such as
// team_BOS_roster.json.
package artifact

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/riskibarqy/nhl-actions/internal/platform/jsonfile"
	"github.com/riskibarqy/nhl-actions/internal/platform/logging"
)

var artifactNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

type FileWriter struct {
	dir    string
	logger *logging.Logger
}

func NewFileWriter(dir string, logger *logging.Logger) *FileWriter {
	if logger == nil {
		logger = logging.Default()
	}
	return &FileWriter{dir: dir, logger: logger}
}

// Write stores payload as {dir}/{name}.json.
func (w *FileWriter) Write(ctx context.Context, name string, payload any) error {
	if !artifactNamePattern.MatchString(name) {
		return fmt.Errorf("invalid artifact name %q", name)
	}

	path := w.Path(name)
	if err := jsonfile.Write(path, payload); err != nil {
		return fmt.Errorf("write artifact %s: %w", name, err)
	}
	w.logger.DebugContext(ctx, "artifact written", "name", name, "path", path)
	return nil
}

func (w *FileWriter) Path(name string) string {
	return filepath.Join(w.dir, name+".json")
}

// DiscardWriter drops every artifact.
type DiscardWriter struct{}

func (DiscardWriter) Write(context.Context, string, any) error { return nil }
