// Package validation implements the argument validation shared by all
// prdflow tool handlers.
//
// Validation never panics and never returns Go errors for bad input;
// outcomes are expressed as a ValidationResult so handlers can convert
// failures into structured protocol errors exactly once, at the dispatch
// boundary.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxStringLength is the maximum accepted length, in Unicode characters,
// of a caller-supplied string after trimming surrounding whitespace.
const MaxStringLength = 10000

// ValidationResult is the outcome of validating a single tool argument.
// Exactly one of Cleaned (Valid == true) or Message (Valid == false)
// is meaningful.
type ValidationResult struct {
	Valid   bool
	Cleaned string // trimmed value, set when Valid
	Message string // human-readable failure, set when !Valid

	// Accounting for error payloads and response metadata.
	OriginalLength int
	InputType      string
}

// denylist holds patterns associated with script/markup injection.
// This is a coarse, best-effort content filter, not a security boundary:
// case variants are covered, but split or encoded payloads are not.
var denylist = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)</script`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)vbscript:`),
	regexp.MustCompile(`(?i)data:text/html`),
	regexp.MustCompile(`(?i)\bon(click|error|load|mouseover|focus|blur)\s*=`),
}

// typeName reports the JSON-level type of a decoded argument value,
// for use in "expected string" failure messages.
func typeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", value)
	}
}

// StringArg validates a caller-supplied string argument.
//
// The rules, in order:
//  1. the value must be present (not nil)
//  2. the value must be a string
//  3. after trimming surrounding whitespace it must be non-empty
//  4. the trimmed length must not exceed MaxStringLength
//  5. the trimmed value must not match any denylist pattern
//
// A value of exactly MaxStringLength characters is accepted.
func StringArg(field string, value any) ValidationResult {
	if value == nil {
		return ValidationResult{
			Valid:     false,
			Message:   fmt.Sprintf("%s is required", field),
			InputType: "null",
		}
	}

	s, ok := value.(string)
	if !ok {
		return ValidationResult{
			Valid:     false,
			Message:   fmt.Sprintf("%s must be a string, got %s", field, typeName(value)),
			InputType: typeName(value),
		}
	}

	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return ValidationResult{
			Valid:          false,
			Message:        fmt.Sprintf("%s cannot be empty or whitespace-only", field),
			OriginalLength: len(s),
			InputType:      "string",
		}
	}

	if runes := utf8.RuneCountInString(cleaned); runes > MaxStringLength {
		return ValidationResult{
			Valid: false,
			Message: fmt.Sprintf("%s exceeds maximum length of %d characters (got %d)",
				field, MaxStringLength, runes),
			OriginalLength: len(s),
			InputType:      "string",
		}
	}

	for _, pattern := range denylist {
		if pattern.MatchString(cleaned) {
			return ValidationResult{
				Valid:          false,
				Message:        fmt.Sprintf("%s contains potentially unsafe content", field),
				OriginalLength: len(s),
				InputType:      "string",
			}
		}
	}

	return ValidationResult{
		Valid:          true,
		Cleaned:        cleaned,
		OriginalLength: len(s),
		InputType:      "string",
	}
}
