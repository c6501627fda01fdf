// Package usecases contains application business rules: parsing operator
// input, building analysis requests, deriving corrected permeability and
// the AnalysisSession that orchestrates them. They depend on port
// interfaces only.
package usecases

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/0xcro3dile/permlab/internal/domain/entities"
)

// ParseSeries splits comma-delimited text into numbers.
// Elements that are not numbers come back as NaN, in place.
func ParseSeries(text string) []float64 {
	parts := strings.Split(text, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := parseNumber(p)
		if err != nil {
			v = math.NaN()
		}
		out[i] = v
	}
	return out
}

// ParseSeriesStrict is ParseSeries without the NaN fallback: the first
// element that is not a finite number fails the whole list.
func ParseSeriesStrict(text string) ([]float64, error) {
	parts := strings.Split(text, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := parseNumber(p)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &entities.MalformedMeasurementListError{
				Token:    strings.TrimSpace(p),
				Position: i,
			}
		}
		out[i] = v
	}
	return out, nil
}

// ParseMeasurements parses both raw lists of a draft. In strict mode the
// lists must also pair up one-to-one.
func ParseMeasurements(draft entities.DraftFields, strict bool) (entities.MeasurementSeries, error) {
	if !strict {
		return entities.MeasurementSeries{
			FlowRates:             ParseSeries(draft.FlowRates),
			DifferentialPressures: ParseSeries(draft.Pressures),
		}, nil
	}

	flows, err := ParseSeriesStrict(draft.FlowRates)
	if err != nil {
		err.(*entities.MalformedMeasurementListError).Field = entities.FieldFlowRates
		return entities.MeasurementSeries{}, err
	}
	pressures, err := ParseSeriesStrict(draft.Pressures)
	if err != nil {
		err.(*entities.MalformedMeasurementListError).Field = entities.FieldPressures
		return entities.MeasurementSeries{}, err
	}
	if len(flows) != len(pressures) {
		return entities.MeasurementSeries{}, &entities.SeriesLengthMismatchError{
			FlowRates: len(flows),
			Pressures: len(pressures),
		}
	}
	return entities.MeasurementSeries{FlowRates: flows, DifferentialPressures: pressures}, nil
}

// parseNumber parses one trimmed token. Out-of-range literals such as
// 1e400 yield ±Inf rather than an error.
func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil && errors.Is(err, strconv.ErrRange) {
		return v, nil
	}
	return v, err
}
