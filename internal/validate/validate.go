// Package validate collects field-level input errors.
package validate

import (
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// Message is the summary returned alongside field errors.
const Message = "The given data was invalid."

// Errors maps a field name to its messages. A nil or empty Errors means valid input.
type Errors map[string][]string

// Add records a message for field.
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Has reports whether field has any message.
func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

// Merge copies other's messages into e.
func (e Errors) Merge(other Errors) {
	for field, msgs := range other {
		e[field] = append(e[field], msgs...)
	}
}

// Err returns e as an error, or nil when there is nothing to report.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e[f], " ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Required adds the standard message when value is blank.
func (e Errors) Required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		e.Add(field, fmt.Sprintf("The %s field is required.", label(field)))
		return false
	}
	return true
}

// MaxLen adds a message when value exceeds max characters.
func (e Errors) MaxLen(field, value string, max int) {
	if utf8.RuneCountInString(value) > max {
		e.Add(field, fmt.Sprintf("The %s may not be greater than %d characters.", label(field), max))
	}
}

// MinLen adds a message when value is shorter than min characters.
func (e Errors) MinLen(field, value string, min int) {
	if utf8.RuneCountInString(value) < min {
		e.Add(field, fmt.Sprintf("The %s must be at least %d characters.", label(field), min))
	}
}

// Email adds a message when value is not a bare email address.
func (e Errors) Email(field, value string) {
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value || addr.Name != "" {
		e.Add(field, fmt.Sprintf("The %s must be a valid email address.", label(field)))
	}
}

// Date adds a message when value is set but not a YYYY-MM-DD calendar date.
func (e Errors) Date(field, value string) {
	if value == "" {
		return
	}
	if _, err := time.Parse(time.DateOnly, value); err != nil {
		e.Add(field, fmt.Sprintf("The %s is not a valid date.", label(field)))
	}
}

// PositiveInt adds a message when id is not a positive integer.
func (e Errors) PositiveInt(field string, id int64) bool {
	if id <= 0 {
		e.Add(field, fmt.Sprintf("The %s must be a positive integer.", label(field)))
		return false
	}
	return true
}

// label turns camelCase or snake_case field names into message words.
func label(field string) string {
	var b strings.Builder
	for i, r := range field {
		switch {
		case r == '_':
			b.WriteByte(' ')
		case r >= 'A' && r <= 'Z' && i > 0:
			b.WriteByte(' ')
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
