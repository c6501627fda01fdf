package report

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/0xcro3dile/permlab/internal/domain/entities"
	"github.com/0xcro3dile/permlab/internal/domain/usecases"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		in   entities.Series
		want Summary
	}{
		{"plain", entities.Series{1, 2, 6}, Summary{Count: 3, Valid: 3, Min: 1, Max: 6, Mean: 3}},
		{"with NaN", entities.Series{4, math.NaN(), 2, math.Inf(1)}, Summary{Count: 4, Valid: 2, Min: 2, Max: 4, Mean: 3}},
		{"all invalid", entities.Series{math.NaN()}, Summary{Count: 1, Min: math.NaN(), Max: math.NaN(), Mean: math.NaN()}},
		{"empty", nil, Summary{Min: math.NaN(), Max: math.NaN(), Mean: math.NaN()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.in)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateNaNs()); diff != "" {
				t.Errorf("summary mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func readySnapshot() usecases.Snapshot {
	return usecases.Snapshot{
		ID:    "abc",
		State: usecases.StateReady,
		Draft: entities.DraftFields{Length: "39.92", Diameter: "19.85", FlowRates: "1, 2", Pressures: "3, 4"},
		Response: &entities.AnalysisResponse{
			DifferentialPressure:      entities.Series{180520, 168620},
			VolumetricGasFlowRate:     entities.Series{6.5e-06, math.NaN()},
			ForchheimerLinearEquation: "y = 1.0000e+16x + 1.0000e+03",
			ForchheimerPlot:           "iVBORw0KGgo=",
		},
		Corrections: &entities.CorrectionResults{ForchheimerDisplay: "1.0000e+3", KlinkenbergDisplay: "500"},
	}
}

func TestRenderer_Render(t *testing.T) {
	var out strings.Builder
	if err := (Renderer{}).Render(&out, readySnapshot()); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	text := out.String()

	for _, want := range []string{
		"session abc  state ready",
		"length 39.92 mm, diameter 19.85 mm",
		"differential_pressure      n=2  min=1.686e+05  max=1.805e+05",
		"volumetric_gas_flow_rate   n=2 (1 invalid)",
		"mean_core_gas_pressure     no data",
		"y = 1.0000e+16x + 1.0000e+03  (plot 8 bytes)",
		"klinkenberg  -  (no plot)",
		"forchheimer  1.0000e+3",
		"klinkenberg  500",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "\x1b[") {
		t.Error("plain renderer emitted escape codes")
	}
}

func TestRenderer_Failed(t *testing.T) {
	snap := usecases.Snapshot{ID: "x", State: usecases.StateFailed, Error: "analysis service calling: refused"}

	var out strings.Builder
	(Renderer{}).Render(&out, snap)
	text := out.String()
	if !strings.Contains(text, "Error: analysis service calling: refused") {
		t.Errorf("missing error line:\n%s", text)
	}
	if strings.Contains(text, "Series") {
		t.Errorf("failed report without response should not list series:\n%s", text)
	}
}

func TestRenderer_Color(t *testing.T) {
	var out strings.Builder
	(Renderer{Color: true}).Render(&out, readySnapshot())
	if !strings.Contains(out.String(), "\x1b[") {
		t.Error("color renderer emitted no escape codes")
	}
}
