package usecases

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/0xcro3dile/permlab/internal/domain/entities"
	"github.com/0xcro3dile/permlab/internal/domain/ports"
)

// IntakeResult is the outcome of analyzing one draft file.
type IntakeResult struct {
	File     *ports.DraftFile
	Snapshot Snapshot
	Skipped  bool // content already analyzed
}

// IntakeUseCase analyzes measurement drafts dropped into a watched directory.
// Each file gets its own session so results never leak between samples.
type IntakeUseCase struct {
	loader      ports.DraftLoader
	service     ports.AnalysisService
	sessionOpts []SessionOption

	mu   sync.Mutex
	seen map[string]string // path -> content ID last analyzed
}

// NewIntakeUseCase creates an IntakeUseCase with injected dependencies.
func NewIntakeUseCase(loader ports.DraftLoader, service ports.AnalysisService, opts ...SessionOption) *IntakeUseCase {
	return &IntakeUseCase{
		loader:      loader,
		service:     service,
		sessionOpts: opts,
		seen:        make(map[string]string),
	}
}

// Process loads a draft, submits it and applies its intercepts, if any.
// Unchanged content that was already analyzed is skipped.
func (uc *IntakeUseCase) Process(ctx context.Context, path string) (*IntakeResult, error) {
	file, err := uc.loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	uc.mu.Lock()
	already := uc.seen[path] == file.ID
	uc.mu.Unlock()
	if already {
		return &IntakeResult{File: file, Skipped: true}, nil
	}

	session := NewAnalysisSession(uc.service, uc.sessionOpts...)
	session.SetCorrectionInputs(file.Corrections)

	_, err = session.Submit(ctx, file.Draft)
	if err == nil && !file.Corrections.Empty() {
		_, err = session.ApplyCorrection(file.Corrections)
	}

	// A remote failure may be transient; retry on the next change event.
	var rce *entities.RemoteComputationError
	if !errors.As(err, &rce) {
		uc.mu.Lock()
		uc.seen[path] = file.ID
		uc.mu.Unlock()
	}

	return &IntakeResult{File: file, Snapshot: session.Snapshot()}, err
}

// Forget drops the record of a file so a re-created file is analyzed again.
func (uc *IntakeUseCase) Forget(path string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	delete(uc.seen, path)
}

// Run consumes watcher events until the channel closes or ctx is done,
// passing every result to handle.
func (uc *IntakeUseCase) Run(ctx context.Context, events <-chan ports.FileEvent, handle func(*IntakeResult, error)) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Operation {
			case ports.FileDeleted:
				uc.Forget(ev.Path)
			case ports.FileCreated, ports.FileModified:
				res, err := uc.Process(ctx, ev.Path)
				handle(res, err)
			}
		}
	}
}
