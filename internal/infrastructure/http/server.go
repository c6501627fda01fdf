// Package http exposes an analysis session as a JSON API for a UI collaborator.
// Clean Architecture: Framework/driver layer - outermost circle.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/0xcro3dile/permlab/internal/domain/entities"
	"github.com/0xcro3dile/permlab/internal/domain/ports"
	"github.com/0xcro3dile/permlab/internal/domain/usecases"
)

// maxRequestBytes bounds draft and intercept bodies.
const maxRequestBytes = 1 << 20

// Server is the HTTP server for the session API.
type Server struct {
	session     *usecases.AnalysisSession
	health      ports.HealthChecker
	logger      log.Interface
	addr        string
	metricsAddr string
}

// NewServer creates a new HTTP server. health may be nil, in which case
// /api/health only reports on this process. An empty metricsAddr disables
// the metrics listener.
func NewServer(
	session *usecases.AnalysisSession,
	health ports.HealthChecker,
	logger log.Interface,
	addr, metricsAddr string,
) *Server {
	if logger == nil {
		logger = log.Log
	}
	return &Server{
		session:     session,
		health:      health,
		logger:      logger,
		addr:        addr,
		metricsAddr: metricsAddr,
	}
}

// Handler returns the API routes wrapped in middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/session", s.handleSession)
	mux.HandleFunc("/api/draft", s.handleDraft)
	mux.HandleFunc("/api/submit", s.handleSubmit)
	mux.HandleFunc("/api/reset", s.handleReset)
	mux.HandleFunc("/api/correct", s.handleCorrect)
	mux.HandleFunc("/api/dismiss", s.handleDismiss)
	mux.HandleFunc("/api/plots/", s.handlePlot)
	return corsMiddleware(s.loggingMiddleware(mux))
}

// Start runs the API server and, if configured, the metrics server until
// ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // submissions wait on plot rendering
	}

	var promSrv *http.Server
	if s.metricsAddr != "" {
		promMux := http.NewServeMux()
		promMux.Handle("/metrics", promhttp.Handler())
		promSrv = &http.Server{Addr: s.metricsAddr, Handler: promMux}
		go func() {
			if err := promSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.WithError(err).Warn("metrics server stopped")
			}
		}()
		s.logger.Infof("serving prometheus metrics at http://%s/metrics", s.metricsAddr)
	}

	s.logger.WithField("session", s.session.ID()).Infof("permlab server starting on %s", s.addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
		if promSrv != nil {
			promSrv.Shutdown(shutdownCtx)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleHealth reports on this process and on the analysis service.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	body := map[string]string{"status": "ok"}
	status := http.StatusOK
	if s.health != nil {
		if s.health.IsServiceHealthy(r.Context()) {
			body["analysis"] = "ok"
		} else {
			body["analysis"] = "unavailable"
			body["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, body)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

// handleDraft stores raw field text without submitting it.
func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	var draft entities.DraftFields
	if _, err := decodeOptional(r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.session.UpdateDraft(draft)
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

// handleSubmit submits the posted draft, or the stored one when the body is empty.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var draft entities.DraftFields
	present, err := decodeOptional(r, &draft)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !present {
		draft = s.session.Snapshot().Draft
	}

	start := time.Now()
	_, err = s.session.Submit(r.Context(), draft)
	metricAnalysisDurationSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if err := s.session.Reset(); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

// handleCorrect applies the posted intercepts, or the stored ones when the body is empty.
func (s *Server) handleCorrect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var in entities.CorrectionInputs
	present, err := decodeOptional(r, &in)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !present {
		in = s.session.Snapshot().CorrectionInputs
	}
	res, err := s.session.ApplyCorrection(in)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	s.session.Dismiss()
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

// handlePlot serves /api/plots/{forchheimer|klinkenberg}.png
func (s *Server) handlePlot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/api/plots/")
	kind := entities.PlotKind(strings.TrimSuffix(name, ".png"))
	if !strings.HasSuffix(name, ".png") || (kind != entities.PlotForchheimer && kind != entities.PlotKlinkenberg) {
		http.NotFound(w, r)
		return
	}

	resp := s.session.Response()
	if resp == nil {
		writeError(w, http.StatusConflict, entities.ErrNoResponseAvailable)
		return
	}
	if resp.Plot(kind) == "" {
		http.NotFound(w, r)
		return
	}
	png, err := resp.DecodePlot(kind)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		incomplete *entities.IncompleteInputError
		geometry   *entities.InvalidGeometryError
		malformed  *entities.MalformedMeasurementListError
		mismatch   *entities.SeriesLengthMismatchError
		remote     *entities.RemoteComputationError
	)
	switch {
	case errors.As(err, &incomplete), errors.As(err, &geometry),
		errors.As(err, &malformed), errors.As(err, &mismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, entities.ErrSubmissionInProgress), errors.Is(err, entities.ErrNoResponseAvailable):
		return http.StatusConflict
	case errors.As(err, &remote):
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := errorBody{Error: err.Error()}
	var incomplete *entities.IncompleteInputError
	if errors.As(err, &incomplete) {
		body.Fields = incomplete.Fields
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}

// decodeOptional decodes a JSON body into v. It reports false for an empty body.
func decodeOptional(r *http.Request, v interface{}) (bool, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		return false, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, err
	}
	return true, nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metricRequestsInflight.Inc()
		defer metricRequestsInflight.Dec()

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		metricRequestsCount.WithLabelValues(routeLabel(r.URL.Path), strconv.Itoa(rec.status)).Inc()
		s.logger.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Info("request")
	})
}

// routeLabel keeps metric cardinality bounded.
func routeLabel(path string) string {
	if strings.HasPrefix(path, "/api/plots/") {
		return "/api/plots"
	}
	switch path {
	case "/api/health", "/api/session", "/api/draft", "/api/submit",
		"/api/reset", "/api/correct", "/api/dismiss":
		return path
	}
	return "other"
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			return
		}
		next.ServeHTTP(w, r)
	})
}
