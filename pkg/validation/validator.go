// Package validation holds the shared validator instance and the custom tags
// used for short link input.
package validation

import (
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ShortenInput is the allocator's input before it touches the store.
type ShortenInput struct {
	OriginalURL string `validate:"required,absurl"`
	CustomCode  string `validate:"omitempty,shortcode"`
}

// FieldError describes one failed rule.
type FieldError struct {
	Field string
	Tag   string
}

type RequestValidationError struct {
	Fields []FieldError
}

func (e *RequestValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " failed " + f.Tag
	}
	return strings.Join(parts, "; ")
}

// Has reports whether field failed any rule.
func (e *RequestValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("shortcode", func(fl validator.FieldLevel) bool {
			return IsShortCode(fl.Field().String())
		})
		_ = validate.RegisterValidation("absurl", func(fl validator.FieldLevel) bool {
			return IsAbsoluteURL(fl.Field().String())
		})
	})
	return validate
}

// ValidateStruct returns nil when s passes every rule.
func ValidateStruct(s any) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &RequestValidationError{Fields: []FieldError{{Field: "unknown", Tag: err.Error()}}}
	}

	out := &RequestValidationError{Fields: make([]FieldError, len(verrs))}
	for i, fe := range verrs {
		out.Fields[i] = FieldError{Field: fe.Field(), Tag: fe.Tag()}
	}
	return out
}

// ValidateShorten maps rule failures onto the allocator's error taxonomy.
func ValidateShorten(in ShortenInput) error {
	verr := ValidateStruct(in)
	switch {
	case verr == nil:
		return nil
	case verr.Has("OriginalURL"):
		return domain.ErrInvalidURL
	case verr.Has("CustomCode"):
		return domain.ErrInvalidCodeFormat
	default:
		return verr
	}
}

func IsShortCode(s string) bool {
	return domain.ShortCodePattern.MatchString(s)
}

// IsAbsoluteURL requires a scheme and a host, e.g. "https://example.com/a".
func IsAbsoluteURL(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
