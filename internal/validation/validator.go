// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

// Package validation validates decoded API requests with
// go-playground/validator.
//
// Request structs carry `validate` tags next to their `query` or `json` tags.
// Errors name fields by those wire names, so a client sending ?k=-1 sees
// "k must be greater than or equal to 0" rather than a Go field name.
//
// Custom tags:
//   - notblank: string contains at least one non-space character
//   - modelfile: empty, or a path ending in the ranker artifact extension
//     (storage.ArtifactExt, ".gob.gz")
//   - reportfile: empty, or a path ending in ".json"
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/Rktim/movie-recommender-mlops/internal/recommend/storage"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// reportExt is the extension of evaluation reports.
const reportExt = ".json"

// FieldError is one failed constraint.
type FieldError struct {
	Field   string      `json:"field"`
	Tag     string      `json:"tag"`
	Param   string      `json:"param,omitempty"`
	Value   interface{} `json:"value,omitempty"`
	Message string      `json:"message"`
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return e.Message
}

// RequestValidationError collects every failed constraint of one request.
type RequestValidationError struct {
	errors []FieldError
}

// Errors returns the individual field errors.
func (ve *RequestValidationError) Errors() []FieldError {
	return ve.errors
}

// Error implements the error interface.
func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	messages := make([]string, 0, len(ve.errors))
	for i := range ve.errors {
		messages = append(messages, ve.errors[i].Message)
	}
	return strings.Join(messages, "; ")
}

// Details returns the error in the shape used by API error responses.
func (ve *RequestValidationError) Details() map[string]interface{} {
	switch len(ve.errors) {
	case 0:
		return nil
	case 1:
		e := ve.errors[0]
		return map[string]interface{}{"field": e.Field, "tag": e.Tag, "value": e.Value}
	default:
		return map[string]interface{}{"fields": ve.errors}
	}
}

// GetValidator returns the shared validator, creating it on first use.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(wireName)
		// Registration only fails for empty tags or nil funcs.
		_ = validate.RegisterValidation("notblank", notBlank)
		_ = validate.RegisterValidation("modelfile", modelFile)
		_ = validate.RegisterValidation("reportfile", reportFile)
	})
	return validate
}

// ValidateStruct validates s and returns nil when every constraint holds.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &RequestValidationError{errors: []FieldError{{
			Field:   "unknown",
			Tag:     "unknown",
			Message: err.Error(),
		}}}
	}

	out := make([]FieldError, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Value:   fe.Value(),
			Message: translateError(fe),
		}
	}
	return &RequestValidationError{errors: out}
}

// wireName prefers the query tag, then the json tag, then the Go name.
func wireName(fld reflect.StructField) string {
	for _, key := range []string{"query", "json"} {
		name, _, _ := strings.Cut(fld.Tag.Get(key), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// modelFile checks the full suffix: filepath.Ext of ranker_x.gob.gz is .gz.
func modelFile(fl validator.FieldLevel) bool {
	return hasSuffixOrEmpty(fl.Field().String(), storage.ArtifactExt)
}

func reportFile(fl validator.FieldLevel) bool {
	return hasSuffixOrEmpty(fl.Field().String(), reportExt)
}

func hasSuffixOrEmpty(path, suffix string) bool {
	if path == "" {
		return true
	}
	name := strings.ToLower(path)
	return strings.HasSuffix(name, suffix) && len(name) > len(suffix)
}

var messageTemplates = map[string]string{
	"required":   "%s is required",
	"notblank":   "%s must not be blank",
	"modelfile":  "%s must be a " + storage.ArtifactExt + " model artifact",
	"reportfile": "%s must be a " + reportExt + " report",
}

var messageWithParam = map[string]string{
	"gte":           "%s must be greater than or equal to %s",
	"lte":           "%s must be less than or equal to %s",
	"oneof":         "%s must be one of: %s",
	"required_with": "%s is required when %s is set",
}

func translateError(fe validator.FieldError) string {
	field, tag, param := fe.Field(), fe.Tag(), fe.Param()

	if tmpl, ok := messageTemplates[tag]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	if tag == "required_with" {
		param = snakeCase(param)
	}
	if tmpl, ok := messageWithParam[tag]; ok {
		return fmt.Sprintf(tmpl, field, param)
	}

	isString := fe.Kind() == reflect.String
	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}

// snakeCase turns a Go field name such as ModelPath into model_path.
func snakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
