// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

// Package validation provides struct validation using go-playground/validator v10.
// It exposes a thread-safe singleton validator and translates field errors into
// the structured format the API layer returns to clients.
//
// Example:
//
//	type SubmitRatingRequest struct {
//	    UserID  int     `validate:"required,min=1"`
//	    MovieID int     `validate:"required,min=1"`
//	    Rating  float64 `validate:"required,min=0.5,max=5,halfstep"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    // verr.Fields() carries per-field details for the response body
//	}
package validation

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError describes a single field that failed validation.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e FieldError) Error() string {
	return e.Message
}

// StructError is the aggregate result of validating a request struct.
type StructError struct {
	fields []FieldError
}

// Fields returns the per-field validation errors.
func (se *StructError) Fields() []FieldError {
	return se.fields
}

// Error joins all field messages into one string.
func (se *StructError) Error() string {
	if len(se.fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(se.fields))
	for i, f := range se.fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// GetValidator returns the singleton validator instance.
// Struct metadata is cached internally, so sharing one instance is both
// safe and faster than constructing per call.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// The registration only fails for an empty tag name, so the
		// error is unreachable here.
		_ = validate.RegisterValidation("halfstep", validateHalfStep)
	})
	return validate
}

// validateHalfStep reports whether the float value falls on a half-point
// boundary (0.5, 1.0, 1.5, ...). Range checks belong to min/max tags.
func validateHalfStep(fl validator.FieldLevel) bool {
	v := fl.Field().Float()
	return math.Mod(v*2, 1) == 0
}

// ValidateStruct validates s against its `validate` tags.
// Returns nil when validation passes.
func ValidateStruct(s interface{}) *StructError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &StructError{fields: []FieldError{{
			Field:   "unknown",
			Tag:     "unknown",
			Message: err.Error(),
		}}}
	}

	fields := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: translate(fe),
		}
	}
	return &StructError{fields: fields}
}

var messageTemplates = map[string]string{
	"required": "%s is required",
	"halfstep": "%s must be in half-point steps",
	"oneof":    "%s must be one of: %s",
	"gte":      "%s must be greater than or equal to %s",
	"lte":      "%s must be less than or equal to %s",
	"gt":       "%s must be greater than %s",
	"lt":       "%s must be less than %s",
}

func translate(fe validator.FieldError) string {
	field := fe.Field()
	tag := fe.Tag()
	param := fe.Param()

	if tmpl, ok := messageTemplates[tag]; ok {
		if strings.Contains(tmpl, "%s must") && strings.Count(tmpl, "%s") == 2 {
			return fmt.Sprintf(tmpl, field, param)
		}
		return fmt.Sprintf(tmpl, field)
	}

	isString := fe.Kind().String() == "string"
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
