// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions; adapters implement them.
package ports

import (
	"context"

	"github.com/0xcro3dile/permlab/internal/domain/entities"
)

// AnalysisService performs the Forchheimer/Klinkenberg regression remotely.
type AnalysisService interface {
	// Analyze submits a request and returns the computed series, equations and plots.
	// Failures are reported as *entities.RemoteComputationError.
	Analyze(ctx context.Context, req *entities.AnalysisRequest) (*entities.AnalysisResponse, error)
}

// HealthChecker is implemented by services that can be probed for liveness.
type HealthChecker interface {
	IsServiceHealthy(ctx context.Context) bool
}

// DraftFile is a measurement draft read from disk, with optional intercepts.
type DraftFile struct {
	ID          string
	Path        string
	Draft       entities.DraftFields
	Corrections entities.CorrectionInputs
}

// DraftLoader reads measurement drafts from files.
type DraftLoader interface {
	// Load reads a draft from the given path.
	Load(ctx context.Context, path string) (*DraftFile, error)

	// SupportedExtensions returns file extensions this loader handles.
	SupportedExtensions() []string
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)

func (op FileOperation) String() string {
	switch op {
	case FileCreated:
		return "created"
	case FileModified:
		return "modified"
	case FileDeleted:
		return "deleted"
	}
	return "unknown"
}
