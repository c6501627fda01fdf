// Package entities contains core business entities.
// These are pure domain objects: sample geometry, the raw operator draft,
// the wire-shaped request/response of the analysis service and the
// derived permeability corrections.
package entities

import "strings"

// SampleGeometry is the measured core sample, in millimetres.
type SampleGeometry struct {
	LengthMM   float64
	DiameterMM float64
}

// MeasurementSeries holds the parsed measurement lists.
// FlowRates[i] and DifferentialPressures[i] belong to the same measurement.
type MeasurementSeries struct {
	FlowRates             []float64 // mL/min
	DifferentialPressures []float64 // mbar
}

// Len returns the number of complete measurement pairs.
func (m MeasurementSeries) Len() int {
	if len(m.FlowRates) < len(m.DifferentialPressures) {
		return len(m.FlowRates)
	}
	return len(m.DifferentialPressures)
}

// Draft field names, used when reporting which inputs are missing.
const (
	FieldLength    = "sample_length"
	FieldDiameter  = "sample_diameter"
	FieldFlowRates = "volumetric_gas_flow_rate"
	FieldPressures = "differential_pressures"

	FieldForchheimerIntercept = "forchheimer_intercept"
	FieldKlinkenbergIntercept = "klinkenberg_intercept"
)

// DraftFields is the raw text an operator typed into the input form.
// Nothing is parsed until the draft is submitted.
type DraftFields struct {
	Length    string `json:"sample_length" yaml:"sample_length"`
	Diameter  string `json:"sample_diameter" yaml:"sample_diameter"`
	FlowRates string `json:"volumetric_gas_flow_rate" yaml:"volumetric_gas_flow_rate"`
	Pressures string `json:"differential_pressures" yaml:"differential_pressures"`
}

// MissingFields returns the names of every blank field, in form order.
func (d DraftFields) MissingFields() []string {
	var missing []string
	for _, f := range [...]struct{ name, value string }{
		{FieldLength, d.Length},
		{FieldDiameter, d.Diameter},
		{FieldFlowRates, d.FlowRates},
		{FieldPressures, d.Pressures},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Complete reports whether all four fields are filled in.
func (d DraftFields) Complete() bool {
	return len(d.MissingFields()) == 0
}

// Blank reports whether all four fields are empty.
func (d DraftFields) Blank() bool {
	return len(d.MissingFields()) == 4
}

// ExampleDraft returns the sample measurement the lab form is pre-filled with.
func ExampleDraft() DraftFields {
	return DraftFields{
		Length:    "39.92",
		Diameter:  "19.85",
		FlowRates: "391.4, 361.51, 335.96, 296.35, 266.4, 230.67",
		Pressures: "1805.2, 1686.2, 1586.8, 1429.8, 1308.7, 1161.0",
	}
}

// AnalysisRequest is the body sent to the analysis service.
// The measurement lists travel as the operator's raw text; the service
// parses them again on its side.
type AnalysisRequest struct {
	SampleLength          float64 `json:"sample_length"`
	SampleDiameter        float64 `json:"sample_diameter"`
	VolumetricGasFlowRate string  `json:"volumetric_gas_flow_rate"`
	DifferentialPressures string  `json:"differential_pressures"`
}

// Geometry returns the sample geometry carried by the request.
func (r *AnalysisRequest) Geometry() SampleGeometry {
	return SampleGeometry{LengthMM: r.SampleLength, DiameterMM: r.SampleDiameter}
}

// CorrectionInputs are the intercepts the operator read off the fitted lines.
type CorrectionInputs struct {
	ForchheimerIntercept string `json:"forchheimer_intercept" yaml:"forchheimer_intercept"`
	KlinkenbergIntercept string `json:"klinkenberg_intercept" yaml:"klinkenberg_intercept"`
}

// MissingFields returns the names of the blank intercepts.
func (c CorrectionInputs) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(c.ForchheimerIntercept) == "" {
		missing = append(missing, FieldForchheimerIntercept)
	}
	if strings.TrimSpace(c.KlinkenbergIntercept) == "" {
		missing = append(missing, FieldKlinkenbergIntercept)
	}
	return missing
}

// Empty reports whether neither intercept was entered.
func (c CorrectionInputs) Empty() bool {
	return len(c.MissingFields()) == 2
}

// CorrectionResults are the corrected permeabilities derived from CorrectionInputs.
type CorrectionResults struct {
	ForchheimerPermeability float64 `json:"-"`
	KlinkenbergPermeability float64 `json:"-"`

	// Display strings, as shown next to the inputs.
	ForchheimerDisplay string `json:"forchheimer_permeability"`
	KlinkenbergDisplay string `json:"klinkenberg_permeability"`

	// Generation is the response generation the results were computed against.
	Generation uint64 `json:"generation"`
}
