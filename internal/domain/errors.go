// Package domain defines error types for conformance runs.
package domain

import "fmt"

// OperationError is a custom error type for operation failures
type OperationError struct {
	Operation string // The operation that failed (e.g., "provision")
	Message   string // Human-readable error message
	Cause     error  // Underlying error
}

func (e *OperationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s failed: %s (%v)", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// CatalogError indicates the metadata catalog could not be read. It aborts the
// whole run.
type CatalogError struct {
	Path  string
	Cause error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("catalog %s: %v", e.Path, e.Cause)
}

func (e *CatalogError) Unwrap() error {
	return e.Cause
}

// FixtureError indicates a fixture file of a test case is missing or cannot be
// parsed. It fails the affected test case.
type FixtureError struct {
	TestCase string
	File     string
	Cause    error
}

func (e *FixtureError) Error() string {
	return fmt.Sprintf("fixture %s of %s: %v", e.File, e.TestCase, e.Cause)
}

func (e *FixtureError) Unwrap() error {
	return e.Cause
}

// ProvisionError indicates an external service (triplestore or database)
// rejected a provisioning step.
type ProvisionError struct {
	TestCase string
	Step     string
	Cause    error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("provision %s (%s): %v", e.TestCase, e.Step, e.Cause)
}

func (e *ProvisionError) Unwrap() error {
	return e.Cause
}

// ConversionError indicates the mapping engine failed on a test case.
type ConversionError struct {
	Mapping string
	Stderr  string
	Cause   error
}

func (e *ConversionError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("conversion of %s failed: %v: %s", e.Mapping, e.Cause, e.Stderr)
	}
	return fmt.Sprintf("conversion of %s failed: %v", e.Mapping, e.Cause)
}

func (e *ConversionError) Unwrap() error {
	return e.Cause
}

// NotFoundError indicates a dataset, database or file was not found
type NotFoundError struct {
	Type       string // "dataset", "database" or "file"
	Identifier string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Type, e.Identifier)
}

// ValidationError indicates input validation failed
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// ConflictError indicates a resource already exists
type ConflictError struct {
	Type       string
	Identifier string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Type, e.Identifier)
}

// NewOperationError creates a new OperationError
func NewOperationError(operation, message string, cause error) *OperationError {
	return &OperationError{
		Operation: operation,
		Message:   message,
		Cause:     cause,
	}
}

// NewCatalogError creates a new CatalogError
func NewCatalogError(path string, cause error) *CatalogError {
	return &CatalogError{Path: path, Cause: cause}
}

// NewFixtureError creates a new FixtureError
func NewFixtureError(testCase, file string, cause error) *FixtureError {
	return &FixtureError{TestCase: testCase, File: file, Cause: cause}
}

// NewProvisionError creates a new ProvisionError
func NewProvisionError(testCase, step string, cause error) *ProvisionError {
	return &ProvisionError{TestCase: testCase, Step: step, Cause: cause}
}

// NewConversionError creates a new ConversionError
func NewConversionError(mapping, stderr string, cause error) *ConversionError {
	return &ConversionError{Mapping: mapping, Stderr: stderr, Cause: cause}
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(typ, identifier string) *NotFoundError {
	return &NotFoundError{
		Type:       typ,
		Identifier: identifier,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewConflictError creates a new ConflictError
func NewConflictError(typ, identifier string) *ConflictError {
	return &ConflictError{
		Type:       typ,
		Identifier: identifier,
	}
}
