package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arthur-debert/nanograph/nanograph/query"
	"github.com/arthur-debert/nanograph/nanograph/schema"
	"github.com/arthur-debert/nanograph/nanograph/storage"
	"github.com/arthur-debert/nanograph/nanograph/store"
)

// CLIError represents a user-friendly CLI error with context and suggestions
type CLIError struct {
	Operation   string   // The operation that failed (e.g., "load", "normalize")
	Cause       string   // The underlying cause (e.g., "record not found")
	Details     string   // Additional technical details
	Suggestions []string // Helpful suggestions for the user
	Underlying  error    // Original error for debugging
}

// Error implements the error interface
func (e *CLIError) Error() string {
	var msg strings.Builder

	if e.Operation != "" {
		msg.WriteString(fmt.Sprintf("Failed to %s", e.Operation))
	} else {
		msg.WriteString("Operation failed")
	}

	if e.Cause != "" {
		msg.WriteString(fmt.Sprintf(": %s", e.Cause))
	}

	if e.Details != "" {
		msg.WriteString(fmt.Sprintf(" (%s)", e.Details))
	}

	if len(e.Suggestions) > 0 {
		msg.WriteString("\n\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			msg.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return msg.String()
}

// Unwrap returns the underlying error for error chain compatibility
func (e *CLIError) Unwrap() error {
	return e.Underlying
}

// NewValidationError creates an error for invalid flag values
func NewValidationError(operation, field, value string, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("invalid %s: %q", field, value),
		Suggestions: suggestions,
	}
}

// NewNotFoundError creates an error for missing records
func NewNotFoundError(operation, entity, id string, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("%s with ID %q not found", entity, id),
		Suggestions: suggestions,
	}
}

// NewConfigError creates an error for configuration issues
func NewConfigError(operation, issue string, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("configuration error: %s", issue),
		Suggestions: suggestions,
	}
}

// WrapError wraps an existing error with CLI-friendly context. Known error
// types of the library get a specific cause and suggestions.
func WrapError(operation string, err error, suggestions ...string) error {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		if cliErr.Operation == "" {
			cliErr.Operation = operation
		}
		return cliErr
	}

	wrapped := &CLIError{
		Operation:   operation,
		Cause:       "operation failed",
		Details:     err.Error(),
		Suggestions: suggestions,
		Underlying:  err,
	}

	var (
		resErr    *schema.ResolutionError
		partErr   *storage.PartitionError
		clauseErr *query.ClauseError
		relErr    *store.RelationError
	)
	switch {
	case errors.As(err, &resErr):
		wrapped.Cause = fmt.Sprintf("unknown model %q", resErr.Identifier)
		wrapped.Suggestions = append(wrapped.Suggestions, CommonSuggestions.RunModels)
	case errors.As(err, &partErr):
		wrapped.Cause = fmt.Sprintf("unknown partition %q", partErr.Entity)
		wrapped.Suggestions = append(wrapped.Suggestions, CommonSuggestions.RunModels)
	case errors.As(err, &clauseErr):
		wrapped.Cause = "invalid where clause"
		wrapped.Suggestions = append(wrapped.Suggestions, CommonSuggestions.CheckWhere)
	case errors.As(err, &relErr):
		wrapped.Cause = fmt.Sprintf("unknown relation %q on %s", relErr.Relation, relErr.Entity)
		wrapped.Suggestions = append(wrapped.Suggestions, CommonSuggestions.RunModels)
	}
	return wrapped
}

// Common error messages and suggestions
var (
	CommonSuggestions = struct {
		CheckSchema string
		CheckSeed   string
		CheckConfig string
		CheckWhere  string
		RunModels   string
		RunHelp     string
	}{
		CheckSchema: "Verify --schema points to a valid schema file",
		CheckSeed:   "Verify --seed points to a readable YAML or JSON file",
		CheckConfig: "Check your configuration file or NANOGRAPH_* environment variables",
		CheckWhere:  "Use conditions like \"name = 'admin' AND id > 10\"",
		RunModels:   "Run 'nanograph models' to see entities, fields and relations",
		RunHelp:     "Run command with --help for usage information",
	}
)
