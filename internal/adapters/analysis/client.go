// Package analysis provides the HTTP adapter for the remote
// Forchheimer/Klinkenberg regression service.
// It implements ports.AnalysisService; the domain layer never sees HTTP.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"

	"github.com/0xcro3dile/permlab/internal/domain/entities"
)

const (
	// DefaultBaseURL is where the regression service listens during development.
	DefaultBaseURL = "http://127.0.0.1:8000"

	// DefaultTimeout bounds a whole analysis round trip. Plot rendering is slow.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxBodyBytes caps the response size; two PNG plots fit easily.
	DefaultMaxBodyBytes = 16 << 20
)

// Adapter implements ports.AnalysisService over HTTP.
type Adapter struct {
	baseURL      string
	client       *http.Client
	logger       log.Interface
	maxBodyBytes int64
}

// NewAdapter creates a new analysis service adapter.
// Zero values select the defaults.
func NewAdapter(baseURL string, timeout time.Duration, logger log.Interface) *Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.Log
	}
	return &Adapter{
		baseURL:      baseURL,
		logger:       logger,
		maxBodyBytes: DefaultMaxBodyBytes,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetMaxBodyBytes overrides the response size cap.
func (a *Adapter) SetMaxBodyBytes(n int64) {
	if n > 0 {
		a.maxBodyBytes = n
	}
}

// BaseURL returns the service address in use.
func (a *Adapter) BaseURL() string { return a.baseURL }

// Analyze posts the request to /plot and decodes the result.
func (a *Adapter) Analyze(ctx context.Context, in *entities.AnalysisRequest) (*entities.AnalysisResponse, error) {
	requestID := uuid.NewString()
	logger := a.logger.WithFields(log.Fields{"request_id": requestID, "url": a.baseURL + "/plot"})

	body, err := json.Marshal(in)
	if err != nil {
		return nil, &entities.RemoteComputationError{Op: "encoding", Err: err}
	}
	logger.Debugf("raw request body: %s", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/plot", bytes.NewReader(body))
	if err != nil {
		return nil, &entities.RemoteComputationError{Op: "creating request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		logger.WithError(err).Warn("analysis call failed")
		return nil, &entities.RemoteComputationError{Op: "calling", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, a.maxBodyBytes+1))
	if err != nil {
		return nil, &entities.RemoteComputationError{Op: "reading", StatusCode: resp.StatusCode, Err: err}
	}
	logger.WithFields(log.Fields{
		"status":  resp.StatusCode,
		"bytes":   len(raw),
		"elapsed": time.Since(start).String(),
	}).Debug("analysis service responded")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &entities.RemoteComputationError{
			Op:         "status",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", bytes.TrimSpace(truncate(raw, 256))),
		}
	}
	if int64(len(raw)) > a.maxBodyBytes {
		return nil, &entities.RemoteComputationError{
			Op:         "reading",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("response exceeds %d bytes", a.maxBodyBytes),
		}
	}

	out, err := entities.DecodeAnalysisResponse(raw)
	if err != nil {
		return nil, &entities.RemoteComputationError{Op: "decoding", StatusCode: resp.StatusCode, Err: err}
	}

	logger.Infof("analysis ready: %d measurements", len(out.DifferentialPressure))
	return out, nil
}

// IsServiceHealthy checks whether the service answers at all. The
// regression service publishes its OpenAPI document, which is cheap to fetch.
func (a *Adapter) IsServiceHealthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/openapi.json", nil)
	if err != nil {
		return false
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	return resp.StatusCode == http.StatusOK
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
