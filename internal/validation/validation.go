// Package validation applies rule tokens ("required", "min_length=8", ...) to
// submitted form fields and returns field-keyed error messages.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Result carries the outcome of validating one submission. It is an explicit
// value threaded through the call chain, never shared state.
type Result struct {
	Errors map[string][]string
}

// NewResult returns an empty (passing) result.
func NewResult() Result {
	return Result{Errors: map[string][]string{}}
}

// Valid reports whether no field accumulated an error.
func (r Result) Valid() bool { return len(r.Errors) == 0 }

// Add records an error message for a field.
func (r Result) Add(field, message string) {
	r.Errors[field] = append(r.Errors[field], message)
}

// FieldErrors returns the messages for one field.
func (r Result) FieldErrors(field string) []string { return r.Errors[field] }

// Validate checks each field's value against its rule tokens. A field that is
// empty and not required skips its remaining rules. All rules for a field are
// evaluated so the user sees every problem at once.
func Validate(rules map[string][]string, values map[string]string) Result {
	res := NewResult()
	for field, tokens := range rules {
		value := values[field]
		required := false
		for _, tok := range tokens {
			if tok == "required" {
				required = true
			}
		}
		if value == "" {
			if required {
				res.Add(field, fmt.Sprintf("%s is required", label(field)))
			}
			continue
		}
		for _, tok := range tokens {
			applyRule(res, field, value, values, tok)
		}
	}
	return res
}

func applyRule(res Result, field, value string, values map[string]string, token string) {
	name, arg := token, ""
	if i := strings.Index(token, "="); i >= 0 {
		name, arg = token[:i], token[i+1:]
	}

	switch name {
	case "required":
		// handled up front
	case "min_length":
		if n := argInt(arg, 0); len(value) < n {
			res.Add(field, fmt.Sprintf("%s must be at least %d characters", label(field), n))
		}
	case "max_length":
		if n := argInt(arg, 0); n > 0 && len(value) > n {
			res.Add(field, fmt.Sprintf("%s must be at most %d characters", label(field), n))
		}
	case "uppercase":
		if n := argInt(arg, 1); countFunc(value, unicode.IsUpper) < n {
			res.Add(field, fmt.Sprintf("%s must contain at least %d uppercase character(s)", label(field), n))
		}
	case "lowercase":
		if n := argInt(arg, 1); countFunc(value, unicode.IsLower) < n {
			res.Add(field, fmt.Sprintf("%s must contain at least %d lowercase character(s)", label(field), n))
		}
	case "number":
		if n := argInt(arg, 1); countFunc(value, unicode.IsDigit) < n {
			res.Add(field, fmt.Sprintf("%s must contain at least %d number(s)", label(field), n))
		}
	case "symbol":
		isSymbol := func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r)
		}
		if n := argInt(arg, 1); countFunc(value, isSymbol) < n {
			res.Add(field, fmt.Sprintf("%s must contain at least %d symbol(s)", label(field), n))
		}
	case "email":
		if !emailRe.MatchString(value) {
			res.Add(field, fmt.Sprintf("%s must be a valid email address", label(field)))
		}
	case "numeric":
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			res.Add(field, fmt.Sprintf("%s must be a number", label(field)))
		}
	case "match":
		if value != values[arg] {
			res.Add(field, fmt.Sprintf("%s must match %s", label(field), label(arg)))
		}
	}
}

func argInt(arg string, fallback int) int {
	if arg == "" {
		return fallback
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return fallback
	}
	return n
}

func countFunc(s string, pred func(rune) bool) int {
	n := 0
	for _, r := range s {
		if pred(r) {
			n++
		}
	}
	return n
}

// label turns a column name into a human-readable field label
// ("created_at" → "Created at").
func label(field string) string {
	field = strings.ReplaceAll(field, "_", " ")
	if field == "" {
		return field
	}
	return strings.ToUpper(field[:1]) + field[1:]
}
