// Package validate checks and normalizes user input before it reaches the store.
//
// Field rules live in `validate` struct tags on the request types; Struct runs
// them and reports the first failure as an *Error naming the JSON field.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Limits enforced by the max tags on request types.
const (
	MaxDescription = 500
	MaxPost        = 2000
	MaxComment     = 1000
)

var (
	namePattern    = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	submoltPattern = regexp.MustCompile(`^m/[a-z0-9_]{2,24}$`)

	checker = newChecker()
)

// Error is a client-facing validation failure.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func newChecker() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return strings.ToLower(f.Name)
		}
		return name
	})
	_ = v.RegisterValidation("agentname", func(fl validator.FieldLevel) bool {
		return namePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("submolt", func(fl validator.FieldLevel) bool {
		return submoltPattern.MatchString(fl.Field().String())
	})
	return v
}

// Struct validates s against its `validate` tags.
func Struct(s any) error {
	err := checker.Struct(s)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		return fieldError(fields[0])
	}
	return err
}

func fieldError(fe validator.FieldError) *Error {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return &Error{Field: field, Message: "is required"}
	case "agentname":
		return &Error{Field: field, Message: "may only contain letters, digits, '_' or '-'"}
	case "submolt":
		return &Error{Field: field, Message: "must look like m/<name> with 2-24 lowercase letters, digits or '_'"}
	case "min", "gte":
		if fe.Kind() == reflect.String {
			return &Error{Field: field, Message: fmt.Sprintf("must be at least %s characters", fe.Param())}
		}
		return &Error{Field: field, Message: "must be at least " + fe.Param()}
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return &Error{Field: field, Message: fmt.Sprintf("must be at most %s characters", fe.Param())}
		}
		return &Error{Field: field, Message: "must be at most " + fe.Param()}
	}
	return &Error{Field: field, Message: "failed the " + fe.Tag() + " check"}
}

// NormalizeSubmolt maps "general", "m/general" and "/m/General" to "m/general".
// The result still needs the submolt check.
func NormalizeSubmolt(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "/")
	if !strings.HasPrefix(name, "m/") {
		name = "m/" + name
	}
	return name
}

// Submolt normalizes name and reports an *Error if it is not a valid submolt.
func Submolt(name string) (string, error) {
	name = NormalizeSubmolt(name)
	if err := checker.Var(name, "submolt"); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			e := fieldError(fields[0])
			e.Field = "submolt"
			return "", e
		}
		return "", err
	}
	return name, nil
}

// Sanitize trims s, normalizes line endings and drops control characters other than newline and tab.
func Sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || r == utf8.RuneError {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
