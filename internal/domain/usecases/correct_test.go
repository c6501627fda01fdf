package usecases

import (
	"math"
	"testing"

	"github.com/0xcro3dile/permlab/internal/domain/entities"
)

func TestCorrect_ReciprocalAndPassThrough(t *testing.T) {
	res := Correct(entities.CorrectionInputs{ForchheimerIntercept: "0.001", KlinkenbergIntercept: "500"})

	if math.Abs(res.ForchheimerPermeability-1000) > 1e-9 {
		t.Errorf("expected ~1000, got %v", res.ForchheimerPermeability)
	}
	if res.ForchheimerDisplay != "1.0000e+3" {
		t.Errorf("unexpected Forchheimer display: %s", res.ForchheimerDisplay)
	}
	if res.KlinkenbergDisplay != "500" {
		t.Errorf("unexpected Klinkenberg display: %s", res.KlinkenbergDisplay)
	}
	if res.KlinkenbergPermeability != 500 {
		t.Errorf("unexpected Klinkenberg value: %v", res.KlinkenbergPermeability)
	}
}

func TestCorrect_ZeroInterceptIsInfinite(t *testing.T) {
	res := Correct(entities.CorrectionInputs{ForchheimerIntercept: "0", KlinkenbergIntercept: "1"})
	if !math.IsInf(res.ForchheimerPermeability, 1) {
		t.Errorf("expected +Inf, got %v", res.ForchheimerPermeability)
	}
	if res.ForchheimerDisplay != "Infinity" {
		t.Errorf("unexpected display: %s", res.ForchheimerDisplay)
	}

	neg := Correct(entities.CorrectionInputs{ForchheimerIntercept: "-0"})
	if neg.ForchheimerDisplay != "-Infinity" {
		t.Errorf("unexpected display for -0: %s", neg.ForchheimerDisplay)
	}
}

func TestCorrect_NonNumericIsNaN(t *testing.T) {
	res := Correct(entities.CorrectionInputs{ForchheimerIntercept: "abc", KlinkenbergIntercept: "k?"})
	if !math.IsNaN(res.ForchheimerPermeability) || res.ForchheimerDisplay != "NaN" {
		t.Errorf("expected NaN, got %v (%s)", res.ForchheimerPermeability, res.ForchheimerDisplay)
	}
	if !math.IsNaN(res.KlinkenbergPermeability) {
		t.Errorf("expected NaN Klinkenberg value, got %v", res.KlinkenbergPermeability)
	}
	if res.KlinkenbergDisplay != "k?" {
		t.Errorf("Klinkenberg display should be the raw input, got %s", res.KlinkenbergDisplay)
	}
}

func TestFormatExponential(t *testing.T) {
	cases := []struct {
		v    float64
		want string
	}{
		{1000, "1.0000e+3"},
		{123.456, "1.2346e+2"},
		{1, "1.0000e+0"},
		{0, "0.0000e+0"},
		{6.7890e+12, "6.7890e+12"},
		{1.5e-13, "1.5000e-13"},
		{-0.00025, "-2.5000e-4"},
		{1e100, "1.0000e+100"},
		{1.0 / 256, "3.9063e-3"},
		{-1.0 / 256, "-3.9063e-3"},
		{1.00005, "1.0001e+0"}, // exact value lies just above the tie
		{9.99995, "1.0000e+1"},
		{99999.5, "1.0000e+5"},
		{math.Copysign(0, -1), "0.0000e+0"},
		{5e-324, "4.9407e-324"},
		{math.NaN(), "NaN"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tc := range cases {
		if got := FormatExponential(tc.v, 4); got != tc.want {
			t.Errorf("FormatExponential(%v) = %s, want %s", tc.v, got, tc.want)
		}
	}
}

func TestFormatExponential_Digits(t *testing.T) {
	cases := []struct {
		v      float64
		digits int
		want   string
	}{
		{2.5, 0, "3e+0"},
		{0.125, 2, "1.25e-1"},
		{0.125, 1, "1.3e-1"},
		{1234.5, 8, "1.23450000e+3"},
	}
	for _, tc := range cases {
		if got := FormatExponential(tc.v, tc.digits); got != tc.want {
			t.Errorf("FormatExponential(%v, %d) = %s, want %s", tc.v, tc.digits, got, tc.want)
		}
	}
}

func TestCorrect_InterceptParsing(t *testing.T) {
	cases := []struct {
		intercept string
		want      string
	}{
		{"256", "3.9063e-3"},
		{" 0.001 ", "1.0000e+3"},
		{"1e400", "0.0000e+0"},
		{"-1e400", "0.0000e+0"},
		// trailing units are not stripped
		{"0.001 mD", "NaN"},
	}
	for _, tc := range cases {
		res := Correct(entities.CorrectionInputs{ForchheimerIntercept: tc.intercept, KlinkenbergIntercept: "1"})
		if res.ForchheimerDisplay != tc.want {
			t.Errorf("Correct(%q) display = %s, want %s", tc.intercept, res.ForchheimerDisplay, tc.want)
		}
	}
}
