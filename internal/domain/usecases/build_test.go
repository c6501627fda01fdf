package usecases

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/0xcro3dile/permlab/internal/domain/entities"
)

func TestBuildRequest_WireShape(t *testing.T) {
	req, err := BuildRequest(scenarioDraft())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	want := &entities.AnalysisRequest{
		SampleLength:          39.92,
		SampleDiameter:        19.85,
		VolumetricGasFlowRate: "391.4, 361.51",
		DifferentialPressures: "1805.2, 1686.2",
	}
	if diff := cmp.Diff(want, req); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildRequest_IncompleteIffAnyFieldEmpty(t *testing.T) {
	full := scenarioDraft()
	// every subset of blank fields, encoded as a 4-bit mask
	for mask := 0; mask < 16; mask++ {
		draft := full
		if mask&1 != 0 {
			draft.Length = ""
		}
		if mask&2 != 0 {
			draft.Diameter = ""
		}
		if mask&4 != 0 {
			draft.FlowRates = ""
		}
		if mask&8 != 0 {
			draft.Pressures = " "
		}

		_, err := BuildRequest(draft)
		var incomplete *entities.IncompleteInputError
		gotIncomplete := errors.As(err, &incomplete)

		if mask == 0 {
			if err != nil {
				t.Errorf("complete draft should build, got %v", err)
			}
			continue
		}
		if !gotIncomplete {
			t.Errorf("mask %04b: expected IncompleteInputError, got %v", mask, err)
			continue
		}
		if len(incomplete.Fields) != bitCount(mask) {
			t.Errorf("mask %04b: expected %d missing fields, got %v", mask, bitCount(mask), incomplete.Fields)
		}
	}
}

func TestBuildRequest_InvalidGeometry(t *testing.T) {
	for _, tc := range []struct{ length, diameter, field string }{
		{"abc", "19.85", entities.FieldLength},
		{"39.92", "-1", entities.FieldDiameter},
		{"0", "19.85", entities.FieldLength},
		{"Inf", "19.85", entities.FieldLength},
		{"39.92", "NaN", entities.FieldDiameter},
	} {
		draft := scenarioDraft()
		draft.Length, draft.Diameter = tc.length, tc.diameter

		_, err := BuildRequest(draft)
		var invalid *entities.InvalidGeometryError
		if !errors.As(err, &invalid) {
			t.Errorf("%s/%s: expected InvalidGeometryError, got %v", tc.length, tc.diameter, err)
			continue
		}
		if invalid.Field != tc.field {
			t.Errorf("expected field %s, got %s", tc.field, invalid.Field)
		}
	}
}

func TestBuildRequest_PermissiveKeepsMalformedLists(t *testing.T) {
	draft := scenarioDraft()
	draft.FlowRates = "391.4, oops"

	req, err := BuildRequest(draft)
	if err != nil {
		t.Fatalf("permissive build should pass the raw text through: %v", err)
	}
	if req.VolumetricGasFlowRate != "391.4, oops" {
		t.Errorf("raw text altered: %q", req.VolumetricGasFlowRate)
	}
}

func TestRequestBuilder_StrictRejectsMalformed(t *testing.T) {
	draft := scenarioDraft()
	draft.FlowRates = "391.4, oops"

	_, err := RequestBuilder{Strict: true}.Build(draft)
	var malformed *entities.MalformedMeasurementListError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedMeasurementListError, got %v", err)
	}
	if malformed.Token != "oops" || malformed.Field != entities.FieldFlowRates {
		t.Errorf("unexpected error detail: %+v", malformed)
	}
}

func TestRequestBuilder_StrictRejectsUnpaired(t *testing.T) {
	draft := scenarioDraft()
	draft.Pressures = "1805.2"

	_, err := RequestBuilder{Strict: true}.Build(draft)
	var mismatch *entities.SeriesLengthMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected SeriesLengthMismatchError, got %v", err)
	}
}

func bitCount(n int) int {
	c := 0
	for ; n > 0; n >>= 1 {
		c += n & 1
	}
	return c
}
