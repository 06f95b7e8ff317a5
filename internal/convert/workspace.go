package convert

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// workspacePattern names run directories; MkdirTemp replaces the star.
const workspacePattern = ".pdf2img-*"

// Workspace is a temporary directory owned by a single conversion run. All
// page files live inside it and are removed with it.
type Workspace struct {
	dir    string
	logger *slog.Logger
}

// NewWorkspace creates a uniquely named directory under parent. An empty
// parent selects the system temp directory.
func NewWorkspace(parent string, logger *slog.Logger) (*Workspace, error) {
	if logger == nil {
		logger = discardLogger()
	}

	dir, err := os.MkdirTemp(parent, workspacePattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWorkspace, err)
	}
	logger.Debug("workspace created", "dir", dir)

	return &Workspace{dir: dir, logger: logger}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// PagePrefix returns the extension-less path for page's image file.
func (w *Workspace) PagePrefix(page int) string {
	return filepath.Join(w.dir, fmt.Sprintf("page-%04d", page))
}

// Close removes the workspace and everything in it. Failures are logged as
// warnings and otherwise ignored.
func (w *Workspace) Close() {
	if err := os.RemoveAll(w.dir); err != nil {
		w.logger.Warn("failed to clean up workspace", "dir", w.dir, "error", err)
		return
	}
	w.logger.Debug("workspace removed", "dir", w.dir)
}
