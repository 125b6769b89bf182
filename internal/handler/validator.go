package handler

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxUsernameLength bounds the username column and the path segment.
const MaxUsernameLength = 255

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._@+-]+$`)

// RequestValidator checks decoded request bodies against their `validate`
// struct tags and reports failures keyed by JSON field name.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator returns a validator with the "username" tag
// registered: 1-255 characters from letters, digits and . _ @ + -.
func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their json name so messages match the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return ValidUsername(fl.Field().String())
	}); err != nil {
		// Registration only fails for an empty tag or nil func.
		panic(err)
	}

	return &RequestValidator{validate: v}
}

// ValidUsername reports whether s is an acceptable username.
func ValidUsername(s string) bool {
	return len(s) > 0 && len(s) <= MaxUsernameLength && usernamePattern.MatchString(s)
}

// Validate returns nil when data passes, otherwise field → message.
func (v *RequestValidator) Validate(data any) map[string]string {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_error": "invalid payload"}
	}

	fields := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		fields[e.Field()] = messageFor(e)
	}
	return fields
}

var messages = map[string]func(validator.FieldError) string{
	"required": func(e validator.FieldError) string {
		return fmt.Sprintf("%s is required", e.Field())
	},
	"max": func(e validator.FieldError) string {
		return fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
	},
	"username": func(e validator.FieldError) string {
		return fmt.Sprintf("%s must be 1-%d characters of letters, digits or . _ @ + -", e.Field(), MaxUsernameLength)
	},
}

func messageFor(e validator.FieldError) string {
	if msg, ok := messages[e.Tag()]; ok {
		return msg(e)
	}
	return fmt.Sprintf("%s is invalid", e.Field())
}
