package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// ErrNotFound is returned by repositories when an entity does not exist
var ErrNotFound = goerr.New("not found")

// Validation errors
var (
	ErrInvalidRequest        = goerr.New("invalid recommendation request")
	ErrInvalidPipelineConfig = goerr.New("invalid pipeline configuration")
	ErrInvalidRecommendation = goerr.New("recommendation violates invariant")
)

// Context keys for error values
const (
	ComplaintIDKey      = "complaint_id"
	RecommendationIDKey = "recommendation_id"
	CaseIDKey           = "case_id"
)

// ValidationError lists the problems found per request field. It unwraps to
// ErrInvalidRequest.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], ", ")))
	}
	return "invalid recommendation request: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}
