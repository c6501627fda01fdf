package usecases

import (
	"context"
	"errors"
	"sync"

	"github.com/apex/log"
	"github.com/google/uuid"

	"github.com/0xcro3dile/permlab/internal/domain/entities"
	"github.com/0xcro3dile/permlab/internal/domain/ports"
)

// State is the lifecycle state of an AnalysisSession.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// MarshalText renders the state name in JSON snapshots.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SessionOption configures an AnalysisSession.
type SessionOption func(*AnalysisSession)

// WithLogger sets the session logger. Defaults to the apex/log package logger.
func WithLogger(logger log.Interface) SessionOption {
	return func(s *AnalysisSession) { s.logger = logger }
}

// WithStrictParsing rejects malformed or unpaired measurement lists before submission.
func WithStrictParsing(strict bool) SessionOption {
	return func(s *AnalysisSession) { s.builder.Strict = strict }
}

// WithTransitionHook registers fn to observe every state change. fn runs
// with the session lock held and must not call back into the session.
func WithTransitionHook(fn func(from, to State)) SessionOption {
	return func(s *AnalysisSession) { s.onTransition = fn }
}

// AnalysisSession owns one operator's input, the current analysis result
// and the corrections derived from it. All methods are safe for
// concurrent use; at most one submission is in flight at a time.
type AnalysisSession struct {
	id           string
	service      ports.AnalysisService
	builder      RequestBuilder
	logger       log.Interface
	onTransition func(from, to State)

	mu          sync.Mutex
	state       State
	draft       entities.DraftFields
	pending     *entities.AnalysisRequest
	response    *entities.AnalysisResponse
	generation  uint64 // bumped on every stored response
	corrInputs  entities.CorrectionInputs
	corrResults *entities.CorrectionResults
	lastErr     error
}

// NewAnalysisSession creates an idle session backed by the given service.
func NewAnalysisSession(service ports.AnalysisService, opts ...SessionOption) *AnalysisSession {
	s := &AnalysisSession{
		id:      uuid.NewString(),
		service: service,
		logger:  log.Log,
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier.
func (s *AnalysisSession) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *AnalysisSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// UpdateDraft replaces the raw input fields without submitting them.
func (s *AnalysisSession) UpdateDraft(draft entities.DraftFields) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = draft
}

// SetCorrectionInputs records intercept text without computing anything.
func (s *AnalysisSession) SetCorrectionInputs(in entities.CorrectionInputs) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.corrInputs = in
}

// Submit stores the draft, builds a request from it and sends it to the
// analysis service. On success the returned response replaces any prior
// one. Validation errors leave the session untouched; a service failure
// moves it to StateFailed.
func (s *AnalysisSession) Submit(ctx context.Context, draft entities.DraftFields) (*entities.AnalysisResponse, error) {
	s.mu.Lock()
	if s.state == StateSubmitting {
		s.mu.Unlock()
		return nil, entities.ErrSubmissionInProgress
	}
	s.draft = draft
	req, err := s.builder.Build(draft)
	if err != nil {
		s.mu.Unlock()
		s.logger.WithField("session", s.id).WithError(err).Debug("draft rejected")
		return nil, err
	}
	s.pending = req
	s.lastErr = nil
	s.transition(StateSubmitting)
	s.mu.Unlock()

	resp, err := s.service.Analyze(ctx, req)
	if err == nil && resp == nil {
		err = &entities.RemoteComputationError{Op: "decoding", Err: errors.New("empty response")}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil

	if err != nil {
		var rce *entities.RemoteComputationError
		if !errors.As(err, &rce) {
			err = &entities.RemoteComputationError{Op: "calling", Err: err}
		}
		s.lastErr = err
		s.transition(StateFailed)
		s.logger.WithField("session", s.id).WithError(err).Warn("analysis failed")
		return nil, err
	}

	s.response = resp.Clone()
	s.generation++
	s.transition(StateReady)
	return resp, nil
}

// Reset clears the result and the four input fields and returns to
// StateIdle. Correction intercepts are kept. It is refused when there is
// nothing to clear.
func (s *AnalysisSession) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateSubmitting {
		return entities.ErrSubmissionInProgress
	}
	if s.draft.Blank() {
		return &entities.IncompleteInputError{Fields: s.draft.MissingFields()}
	}

	s.response = nil
	s.draft = entities.DraftFields{}
	s.lastErr = nil
	s.transition(StateIdle)
	return nil
}

// ApplyCorrection computes corrected permeabilities against the current
// response. It requires StateReady and both intercepts.
func (s *AnalysisSession) ApplyCorrection(in entities.CorrectionInputs) (entities.CorrectionResults, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.corrInputs = in
	if s.state != StateReady || s.response == nil {
		return entities.CorrectionResults{}, entities.ErrNoResponseAvailable
	}
	if missing := in.MissingFields(); len(missing) > 0 {
		return entities.CorrectionResults{}, &entities.IncompleteInputError{Fields: missing}
	}

	res := Correct(in)
	res.Generation = s.generation
	s.corrResults = &res
	s.logger.WithFields(log.Fields{
		"session":     s.id,
		"generation":  res.Generation,
		"forchheimer": res.ForchheimerDisplay,
		"klinkenberg": res.KlinkenbergDisplay,
	}).Info("permeability corrected")
	return res, nil
}

// Dismiss acknowledges a failed submission and returns to StateReady if a
// previous response survives, StateIdle otherwise. Other states are left alone.
func (s *AnalysisSession) Dismiss() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateFailed {
		return s.state
	}
	s.lastErr = nil
	if s.response != nil {
		s.transition(StateReady)
	} else {
		s.transition(StateIdle)
	}
	return s.state
}

// Response returns a copy of the current response, or nil.
func (s *AnalysisSession) Response() *entities.AnalysisResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.response.Clone()
}

// Corrections returns the correction results if they were computed
// against the current response.
func (s *AnalysisSession) Corrections() (entities.CorrectionResults, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.currentCorrections()
	if res == nil {
		return entities.CorrectionResults{}, false
	}
	return *res, true
}

// PendingRequest returns the request currently in flight, or nil.
func (s *AnalysisSession) PendingRequest() *entities.AnalysisRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	req := *s.pending
	return &req
}

// Snapshot is a read-only view of a session for presentation layers.
type Snapshot struct {
	ID         string                     `json:"id"`
	State      State                      `json:"state"`
	Draft      entities.DraftFields       `json:"draft"`
	Pending    *entities.AnalysisRequest  `json:"pending,omitempty"`
	Response   *entities.AnalysisResponse `json:"response,omitempty"`
	Generation uint64                     `json:"generation"`

	CorrectionInputs entities.CorrectionInputs   `json:"correction_inputs"`
	Corrections      *entities.CorrectionResults `json:"corrections,omitempty"`

	Err   error  `json:"-"`
	Error string `json:"error,omitempty"`

	// Action availability, mirroring which controls are enabled.
	CanSubmit  bool `json:"can_submit"`
	CanReset   bool `json:"can_reset"`
	CanCorrect bool `json:"can_correct"`
}

// Snapshot copies the whole session state.
func (s *AnalysisSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:               s.id,
		State:            s.state,
		Draft:            s.draft,
		Response:         s.response.Clone(),
		Generation:       s.generation,
		CorrectionInputs: s.corrInputs,
		Err:              s.lastErr,
		CanSubmit:        s.state != StateSubmitting && s.draft.Complete(),
		CanReset:         s.state != StateSubmitting && !s.draft.Blank(),
		CanCorrect:       s.state == StateReady && s.response != nil,
	}
	if s.pending != nil {
		req := *s.pending
		snap.Pending = &req
	}
	if res := s.currentCorrections(); res != nil {
		c := *res
		snap.Corrections = &c
	}
	if s.lastErr != nil {
		snap.Error = s.lastErr.Error()
	}
	return snap
}

// currentCorrections hides results computed against an older response.
func (s *AnalysisSession) currentCorrections() *entities.CorrectionResults {
	if s.corrResults == nil || s.response == nil || s.corrResults.Generation != s.generation {
		return nil
	}
	return s.corrResults
}

func (s *AnalysisSession) transition(to State) {
	from := s.state
	s.state = to
	s.logger.WithFields(log.Fields{
		"session": s.id,
		"from":    from.String(),
		"to":      to.String(),
	}).Debug("session transition")
	if s.onTransition != nil {
		s.onTransition(from, to)
	}
}
