// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package validation

import (
	"strings"
	"testing"
)

type queryRequest struct {
	Query string `query:"q" validate:"required,notblank,max=20"`
	K     int    `query:"k" validate:"gte=0,lte=100"`
}

type promoteRequest struct {
	ModelPath  string `json:"model_path" validate:"omitempty,modelfile"`
	ReportPath string `json:"report_path" validate:"required_with=ModelPath,reportfile"`
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     interface{}
		wantField string
		wantTag   string
		wantMsg   string
	}{
		{name: "valid query", input: &queryRequest{Query: "Heat", K: 5}},
		{name: "zero k is valid", input: &queryRequest{Query: "Heat"}},
		{name: "missing query", input: &queryRequest{K: 5}, wantField: "q", wantTag: "required", wantMsg: "q is required"},
		{name: "blank query", input: &queryRequest{Query: "   "}, wantField: "q", wantTag: "notblank", wantMsg: "q must not be blank"},
		{name: "long query", input: &queryRequest{Query: strings.Repeat("x", 21)}, wantField: "q", wantTag: "max", wantMsg: "q must be at most 20 characters"},
		{name: "negative k", input: &queryRequest{Query: "Heat", K: -1}, wantField: "k", wantTag: "gte", wantMsg: "k must be greater than or equal to 0"},
		{name: "k too large", input: &queryRequest{Query: "Heat", K: 101}, wantField: "k", wantTag: "lte", wantMsg: "k must be less than or equal to 100"},
		{name: "empty promote", input: &promoteRequest{}},
		{name: "promote with both", input: &promoteRequest{ModelPath: "models/challengers/ranker_20260101_000000.gob.gz", ReportPath: "reports/ranker_20260101_000000.json"}},
		{name: "extension is case-insensitive", input: &promoteRequest{ModelPath: "m/RANKER_1.GOB.GZ", ReportPath: "r/ranker_1.JSON"}},
		{name: "pickle rejected", input: &promoteRequest{ModelPath: "m/model.pkl", ReportPath: "r.json"}, wantField: "model_path", wantTag: "modelfile", wantMsg: "model_path must be a .gob.gz model artifact"},
		{name: "plain gob rejected", input: &promoteRequest{ModelPath: "m/model.gob", ReportPath: "r.json"}, wantField: "model_path", wantTag: "modelfile", wantMsg: "model_path must be a .gob.gz model artifact"},
		{name: "bare extension rejected", input: &promoteRequest{ModelPath: ".gob.gz", ReportPath: "r.json"}, wantField: "model_path", wantTag: "modelfile", wantMsg: "model_path must be a .gob.gz model artifact"},
		{name: "report extension", input: &promoteRequest{ModelPath: "m/ranker_1.gob.gz", ReportPath: "r/ranker_1.yaml"}, wantField: "report_path", wantTag: "reportfile", wantMsg: "report_path must be a .json report"},
		{name: "report required", input: &promoteRequest{ModelPath: "m/ranker_1.gob.gz"}, wantField: "report_path", wantTag: "required_with", wantMsg: "report_path is required when model_path is set"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			verr := ValidateStruct(tt.input)
			if tt.wantField == "" {
				if verr != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			errs := verr.Errors()
			if len(errs) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(errs), verr)
			}
			if errs[0].Field != tt.wantField || errs[0].Tag != tt.wantTag {
				t.Errorf("error = %s/%s, want %s/%s", errs[0].Field, errs[0].Tag, tt.wantField, tt.wantTag)
			}
			if verr.Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", verr.Error(), tt.wantMsg)
			}
		})
	}
}

func TestRequestValidationError_Details(t *testing.T) {
	t.Parallel()

	single := ValidateStruct(&queryRequest{K: 1})
	if d := single.Details(); d["field"] != "q" {
		t.Errorf("single Details() = %v", d)
	}

	multi := ValidateStruct(&queryRequest{K: -1})
	fields, ok := multi.Details()["fields"].([]FieldError)
	if !ok || len(fields) != 2 {
		t.Fatalf("multi Details() = %v", multi.Details())
	}
	if !strings.Contains(multi.Error(), "; ") {
		t.Errorf("Error() = %q, want joined messages", multi.Error())
	}

	if (&RequestValidationError{}).Error() != "validation failed" {
		t.Error("empty error should read \"validation failed\"")
	}
}

func TestGetValidator_Singleton(t *testing.T) {
	t.Parallel()
	if GetValidator() != GetValidator() {
		t.Error("GetValidator should return the same instance")
	}
}
