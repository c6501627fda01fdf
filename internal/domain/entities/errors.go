package entities

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoResponseAvailable is returned when a correction is requested
	// before any analysis response exists.
	ErrNoResponseAvailable = errors.New("no analysis response available")

	// ErrSubmissionInProgress is returned when a session is asked to do
	// something while a submission is still outstanding.
	ErrSubmissionInProgress = errors.New("submission already in progress")
)

// IncompleteInputError reports required fields left blank.
type IncompleteInputError struct {
	Fields []string
}

func (e *IncompleteInputError) Error() string {
	return "incomplete input: missing " + strings.Join(e.Fields, ", ")
}

// InvalidGeometryError reports a sample dimension that is not a positive finite number.
type InvalidGeometryError struct {
	Field string
	Value string
}

func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("invalid %s %q: want a positive number of millimetres", e.Field, e.Value)
}

// MalformedMeasurementListError identifies the first element of a
// measurement list that is not a finite number.
type MalformedMeasurementListError struct {
	Field    string // set by callers that know which list was parsed
	Token    string
	Position int // zero-based element index
}

func (e *MalformedMeasurementListError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("malformed %s: element %d (%q) is not a number", e.Field, e.Position, e.Token)
	}
	return fmt.Sprintf("malformed measurement list: element %d (%q) is not a number", e.Position, e.Token)
}

// SeriesLengthMismatchError reports flow-rate and pressure lists of different lengths.
type SeriesLengthMismatchError struct {
	FlowRates int
	Pressures int
}

func (e *SeriesLengthMismatchError) Error() string {
	return fmt.Sprintf("measurement lists differ in length: %d flow rates, %d pressures", e.FlowRates, e.Pressures)
}

// RemoteComputationError wraps any failure of the analysis service call.
type RemoteComputationError struct {
	Op         string // "calling", "status", "decoding"...
	StatusCode int    // zero unless the service answered
	Err        error
}

func (e *RemoteComputationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("analysis service %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("analysis service %s: %v", e.Op, e.Err)
}

func (e *RemoteComputationError) Unwrap() error { return e.Err }
