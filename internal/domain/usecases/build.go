package usecases

import (
	"math"
	"strings"

	"github.com/0xcro3dile/permlab/internal/domain/entities"
)

// RequestBuilder turns an operator draft into an AnalysisRequest.
// With Strict set, both measurement lists must parse cleanly and pair up
// before a request is produced; otherwise the lists are left for the
// analysis service to interpret.
type RequestBuilder struct {
	Strict bool
}

// BuildRequest builds a request with the permissive policy.
func BuildRequest(draft entities.DraftFields) (*entities.AnalysisRequest, error) {
	return RequestBuilder{}.Build(draft)
}

// Build validates the draft and returns the wire-shaped request.
func (b RequestBuilder) Build(draft entities.DraftFields) (*entities.AnalysisRequest, error) {
	if missing := draft.MissingFields(); len(missing) > 0 {
		return nil, &entities.IncompleteInputError{Fields: missing}
	}

	length, err := parseDimension(entities.FieldLength, draft.Length)
	if err != nil {
		return nil, err
	}
	diameter, err := parseDimension(entities.FieldDiameter, draft.Diameter)
	if err != nil {
		return nil, err
	}

	if b.Strict {
		if _, err := ParseMeasurements(draft, true); err != nil {
			return nil, err
		}
	}

	return &entities.AnalysisRequest{
		SampleLength:          length,
		SampleDiameter:        diameter,
		VolumetricGasFlowRate: draft.FlowRates,
		DifferentialPressures: draft.Pressures,
	}, nil
}

// parseDimension requires a positive, finite number of millimetres.
func parseDimension(field, raw string) (float64, error) {
	v, err := parseNumber(raw)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, &entities.InvalidGeometryError{Field: field, Value: strings.TrimSpace(raw)}
	}
	return v, nil
}
