// Package scratch manages call-scoped temporary storage. Every extraction
// call gets its own namespace; concurrent calls and concurrent sub-tasks
// within a call never share paths. Cleanup runs on every exit path — a
// leaked file is a correctness bug, not a cosmetic one.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager creates namespaces under a base directory.
type Manager struct {
	baseDir string
	logger  *zap.Logger
}

// NewManager creates a Manager rooted at baseDir.
func NewManager(baseDir string, logger *zap.Logger) *Manager {
	return &Manager{baseDir: baseDir, logger: logger}
}

// NewNamespace creates an isolated directory for one extraction call.
// The name composes a timestamp and a random id so collisions across
// concurrent calls are impossible.
func (m *Manager) NewNamespace(label string) (*Namespace, error) {
	name := fmt.Sprintf("%s_%d_%s", label, time.Now().UnixNano(), uuid.New().String()[:8])
	dir := filepath.Join(m.baseDir, "tmp", name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scratch namespace %s: %w", dir, err)
	}
	return &Namespace{dir: dir, logger: m.logger}, nil
}

// Namespace is one isolated temporary directory. All intermediate files of
// a call (downloaded media, extracted audio, sampled frames) live inside it.
type Namespace struct {
	dir    string
	logger *zap.Logger
}

// Dir returns the namespace's directory.
func (n *Namespace) Dir() string { return n.dir }

// Path returns the path for a file inside the namespace.
func (n *Namespace) Path(name string) string {
	return filepath.Join(n.dir, name)
}

// Sub creates a child namespace for one stage or sub-task. The index keeps
// sibling sub-tasks apart even when they share a label.
func (n *Namespace) Sub(label string, index int) (*Namespace, error) {
	dir := filepath.Join(n.dir, fmt.Sprintf("%s_%d", label, index))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scratch subdirectory %s: %w", dir, err)
	}
	return &Namespace{dir: dir, logger: n.logger}, nil
}

// Cleanup removes the namespace and everything inside it. Failures are
// logged, never propagated: cleanup problems must not mask the call's
// actual outcome.
func (n *Namespace) Cleanup() {
	if err := os.RemoveAll(n.dir); err != nil {
		n.logger.Warn("scratch cleanup failed", zap.String("dir", n.dir), zap.Error(err))
	}
}
