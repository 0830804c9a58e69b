// Package helpers provides validation utilities.
package helpers

import (
	"fmt"
	"net/url"
	"strings"

	"evalgo.org/rmlconformance/internal/domain"
)

// ValidateServerURL checks that a configured server URL is absolute http(s).
func ValidateServerURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return domain.NewValidationError(field, err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return domain.NewValidationError(field, fmt.Sprintf("unsupported scheme %q", u.Scheme))
	}
	if u.Host == "" {
		return domain.NewValidationError(field, "missing host")
	}
	return nil
}

// ValidateDatasetName checks that a triplestore dataset name is usable as a
// single URL path segment.
func ValidateDatasetName(name string) error {
	if strings.TrimSpace(name) == "" {
		return domain.NewValidationError("dataset", "name is empty")
	}
	if strings.ContainsAny(name, "/?#$ ") {
		return domain.NewValidationError("dataset", fmt.Sprintf("invalid character in %q", name))
	}
	return nil
}
