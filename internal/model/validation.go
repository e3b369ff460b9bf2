package model

import "strings"

// ValidationErrors collects field-level validation messages. It is returned
// to clients as a structured errors object with success=false, not as an
// HTTP error status.
type ValidationErrors map[string][]string

// Add appends a message for a field.
func (v ValidationErrors) Add(field, message string) {
	v[field] = append(v[field], message)
}

// Any reports whether any field failed validation.
func (v ValidationErrors) Any() bool {
	return len(v) > 0
}

// Error implements the error interface so services can return the set
// directly and handlers can pick it back out with errors.As.
func (v ValidationErrors) Error() string {
	var parts []string
	for field, msgs := range v {
		parts = append(parts, field+": "+strings.Join(msgs, "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
