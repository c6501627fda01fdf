package usecases

import (
	"context"
	"sync"

	"github.com/apex/log"
	"github.com/apex/log/handlers/discard"

	"github.com/0xcro3dile/permlab/internal/domain/entities"
	"github.com/0xcro3dile/permlab/internal/domain/ports"
)

var quietLogger = &log.Logger{Handler: discard.Default, Level: log.DebugLevel}

// mockAnalysis implements ports.AnalysisService for testing
type mockAnalysis struct {
	mu        sync.Mutex
	requests  []entities.AnalysisRequest
	analyzeFn func(req *entities.AnalysisRequest) (*entities.AnalysisResponse, error)
}

func (m *mockAnalysis) Analyze(ctx context.Context, req *entities.AnalysisRequest) (*entities.AnalysisResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, *req)
	m.mu.Unlock()
	if m.analyzeFn != nil {
		return m.analyzeFn(req)
	}
	return fixedResponse(), nil
}

func (m *mockAnalysis) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// blockingAnalysis holds every call until release is closed.
type blockingAnalysis struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingAnalysis() *blockingAnalysis {
	return &blockingAnalysis{started: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingAnalysis) Analyze(ctx context.Context, req *entities.AnalysisRequest) (*entities.AnalysisResponse, error) {
	b.once.Do(func() { close(b.started) })
	select {
	case <-b.release:
		return fixedResponse(), nil
	case <-ctx.Done():
		return nil, &entities.RemoteComputationError{Op: "calling", Err: ctx.Err()}
	}
}

// mockLoader implements ports.DraftLoader for testing
type mockLoader struct {
	files map[string]*ports.DraftFile
}

func (m *mockLoader) Load(ctx context.Context, path string) (*ports.DraftFile, error) {
	f, ok := m.files[path]
	if !ok {
		return nil, context.DeadlineExceeded
	}
	c := *f
	return &c, nil
}

func (m *mockLoader) SupportedExtensions() []string { return []string{".yaml"} }

func fixedResponse() *entities.AnalysisResponse {
	return &entities.AnalysisResponse{
		DifferentialPressure:      entities.Series{180520, 168620},
		VolumetricGasFlowRate:     entities.Series{6.523333333333333e-06, 6.0251666666666665e-06},
		MeanCoreGasPressure:       entities.Series{191585, 185635},
		PmDeltaP:                  entities.Series{34584924200, 31301773700},
		ForchheimerLinearEquation: "y = 1.0000e+16x + 1.0000e+03",
		KlinkenbergLinearEquation: "y = 2.0000e-09x + 5.0000e+02",
		ForchheimerPlot:           "iVBORw0KGgo=",
		KlinkenbergPlot:           "iVBORw0KGgo=",
	}
}

func scenarioDraft() entities.DraftFields {
	return entities.DraftFields{
		Length:    "39.92",
		Diameter:  "19.85",
		FlowRates: "391.4, 361.51",
		Pressures: "1805.2, 1686.2",
	}
}
