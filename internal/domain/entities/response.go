package entities

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// SeriesName names one of the numeric series of an AnalysisResponse.
type SeriesName string

const (
	SeriesDifferentialPressure  SeriesName = "differential_pressure"
	SeriesVolumetricGasFlowRate SeriesName = "volumetric_gas_flow_rate"
	SeriesMeanCoreGasPressure   SeriesName = "mean_core_gas_pressure"
	SeriesPmDeltaP              SeriesName = "pm_delta_p"
)

// AllSeries lists the series in display order.
var AllSeries = []SeriesName{
	SeriesDifferentialPressure,
	SeriesVolumetricGasFlowRate,
	SeriesMeanCoreGasPressure,
	SeriesPmDeltaP,
}

// PlotKind names one of the two plots.
type PlotKind string

const (
	PlotForchheimer PlotKind = "forchheimer"
	PlotKlinkenberg PlotKind = "klinkenberg"
)

// Series is a numeric series as received from the analysis service.
// A JSON null entry decodes to NaN; non-finite values encode back to null.
type Series []float64

// UnmarshalJSON accepts an array of numbers or nulls. Anything else is an error.
func (s *Series) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = nil
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("series: want an array of numbers: %w", err)
	}
	out := make(Series, len(raw))
	for i, item := range raw {
		item = bytes.TrimSpace(item)
		if bytes.Equal(item, []byte("null")) {
			out[i] = math.NaN()
			continue
		}
		if err := json.Unmarshal(item, &out[i]); err != nil {
			return fmt.Errorf("series: element %d (%s) is not a number", i, item)
		}
	}
	*s = out
	return nil
}

// MarshalJSON renders NaN and infinities as null so the series stays valid JSON.
func (s Series) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			buf.WriteString("null")
			continue
		}
		buf.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// AnalysisResponse is the computation result returned by the analysis service.
type AnalysisResponse struct {
	DifferentialPressure  Series `json:"differential_pressure"`    // Pa
	VolumetricGasFlowRate Series `json:"volumetric_gas_flow_rate"` // m³/s
	MeanCoreGasPressure   Series `json:"mean_core_gas_pressure"`   // Pa
	PmDeltaP              Series `json:"pm_delta_p"`

	ForchheimerLinearEquation string `json:"forchheimer_linear_equation"`
	KlinkenbergLinearEquation string `json:"klinkenberg_linear_equation"`

	// Base64-encoded PNG images.
	ForchheimerPlot string `json:"forchheimer_plot"`
	KlinkenbergPlot string `json:"klinkenberg_plot"`
}

// DecodeAnalysisResponse maps a wire payload onto an AnalysisResponse.
// Equation and plot strings are kept verbatim.
func DecodeAnalysisResponse(payload []byte) (*AnalysisResponse, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("analysis response: want a JSON object")
	}
	var resp AnalysisResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, fmt.Errorf("analysis response: %w", err)
	}
	return &resp, nil
}

// Series returns the named series, or nil for an unknown name.
func (r *AnalysisResponse) Series(name SeriesName) Series {
	if r == nil {
		return nil
	}
	switch name {
	case SeriesDifferentialPressure:
		return r.DifferentialPressure
	case SeriesVolumetricGasFlowRate:
		return r.VolumetricGasFlowRate
	case SeriesMeanCoreGasPressure:
		return r.MeanCoreGasPressure
	case SeriesPmDeltaP:
		return r.PmDeltaP
	}
	return nil
}

// IsEmpty reports whether the named series has nothing to render.
func (r *AnalysisResponse) IsEmpty(name SeriesName) bool {
	return len(r.Series(name)) == 0
}

// Equation returns the fitted equation label for a plot kind.
func (r *AnalysisResponse) Equation(kind PlotKind) string {
	if r == nil {
		return ""
	}
	switch kind {
	case PlotForchheimer:
		return r.ForchheimerLinearEquation
	case PlotKlinkenberg:
		return r.KlinkenbergLinearEquation
	}
	return ""
}

// Plot returns the base64 image for a plot kind.
func (r *AnalysisResponse) Plot(kind PlotKind) string {
	if r == nil {
		return ""
	}
	switch kind {
	case PlotForchheimer:
		return r.ForchheimerPlot
	case PlotKlinkenberg:
		return r.KlinkenbergPlot
	}
	return ""
}

// PlotDataURI returns the plot as an inline image URI, or "" when absent.
func (r *AnalysisResponse) PlotDataURI(kind PlotKind) string {
	p := r.Plot(kind)
	if p == "" {
		return ""
	}
	return "data:image/png;base64," + p
}

// DecodePlot returns the raw PNG bytes of a plot.
func (r *AnalysisResponse) DecodePlot(kind PlotKind) ([]byte, error) {
	p := r.Plot(kind)
	if p == "" {
		return nil, fmt.Errorf("no %s plot", kind)
	}
	data, err := base64.StdEncoding.DecodeString(p)
	if err != nil {
		return nil, fmt.Errorf("decoding %s plot: %w", kind, err)
	}
	return data, nil
}

// Clone returns a deep copy so callers cannot mutate session-owned data.
func (r *AnalysisResponse) Clone() *AnalysisResponse {
	if r == nil {
		return nil
	}
	c := *r
	c.DifferentialPressure = cloneSeries(r.DifferentialPressure)
	c.VolumetricGasFlowRate = cloneSeries(r.VolumetricGasFlowRate)
	c.MeanCoreGasPressure = cloneSeries(r.MeanCoreGasPressure)
	c.PmDeltaP = cloneSeries(r.PmDeltaP)
	return &c
}

func cloneSeries(s Series) Series {
	if s == nil {
		return nil
	}
	return append(Series(nil), s...)
}
