// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

// Request validation structs with go-playground/validator tags.
// Bodies are decoded with goccy/go-json, then validated before any
// store or cache access happens.

package api

import (
	"net/http"
	"strconv"

	"github.com/tomtom215/reelgraph/internal/validation"
)

// SubmitRatingRequest is the body for POST /api/v1/ratings.
// Ratings use the MovieLens half-star scale, 0.5 through 5.0.
// Submitting a rating for an already-rated movie overwrites it.
type SubmitRatingRequest struct {
	UserID  int     `json:"user_id" validate:"required,min=1"`
	MovieID int     `json:"movie_id" validate:"required,min=1"`
	Rating  float64 `json:"rating" validate:"required,min=0.5,max=5,halfstep"`
}

// CreateUserRequest is the body for POST /api/v1/users.
// Name is optional; creating an existing user updates the name only.
type CreateUserRequest struct {
	UserID int    `json:"user_id" validate:"required,min=1"`
	Name   string `json:"name" validate:"omitempty,max=200"`
}

// validateRequest validates a struct and converts failures to an APIError
// carrying the per-field details.
func validateRequest(v interface{}) *APIError {
	verr := validation.ValidateStruct(v)
	if verr == nil {
		return nil
	}

	return &APIError{
		Code:    ErrCodeValidationFailed,
		Message: verr.Error(),
		Details: verr.Fields(),
	}
}

// getIntParam extracts an integer query parameter with a default value.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}
