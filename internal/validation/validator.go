// Package validation decides whether uploaded bytes may be stored and checks
// the shape of the values that become storage paths.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dukerupert/mediaguard"
	"github.com/go-playground/validator/v10"
)

var (
	// folderPattern allows one or more slash-separated segments of
	// letters, digits, '-' and '_'. No segment may be "." or "..".
	folderPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+(/[A-Za-z0-9_-]+)*$`)

	// safeNamePattern matches a generated name: token plus one extension.
	safeNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+\.[a-z0-9]+$`)
)

// Validator provides struct validation using go-playground/validator.
// It implements echo.Validator.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator with the "folder" and "safename" tags
// registered.
func NewValidator() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("folder", func(fl validator.FieldLevel) bool {
		return IsSafeFolder(fl.Field().String())
	})
	_ = v.RegisterValidation("safename", func(fl validator.FieldLevel) bool {
		return IsSafeName(fl.Field().String())
	})
	return &Validator{validate: v}
}

// Validate validates a struct using its validation tags. Failures are
// returned as a *mediaguard.Error with code EINVALID and per-field messages.
func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return mediaguard.ErrorWithFields(FormatValidationErrors(validationErrors))
		}
		return err
	}
	return nil
}

// IsSafeFolder reports whether folder can be used as a storage path prefix.
func IsSafeFolder(folder string) bool {
	return folderPattern.MatchString(folder)
}

// IsSafeName reports whether name is a single path element with an extension.
func IsSafeName(name string) bool {
	return safeNamePattern.MatchString(name) && !strings.Contains(name, "..")
}

// FormatValidationErrors converts validator errors to user-friendly messages,
// keyed by lowercased field name.
func FormatValidationErrors(err error) map[string]string {
	errs := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errs["_error"] = err.Error()
		return errs
	}

	for _, fieldErr := range validationErrors {
		fieldName := strings.ToLower(fieldErr.Field())

		switch fieldErr.Tag() {
		case "required":
			errs[fieldName] = "is required"
		case "min":
			errs[fieldName] = fmt.Sprintf("must be at least %s", fieldErr.Param())
		case "max":
			errs[fieldName] = fmt.Sprintf("must be no more than %s", fieldErr.Param())
		case "oneof":
			errs[fieldName] = fmt.Sprintf("must be one of: %s", fieldErr.Param())
		case "folder":
			errs[fieldName] = "must be slash-separated segments of letters, digits, '-' or '_'"
		case "safename":
			errs[fieldName] = "must be a generated file name"
		default:
			errs[fieldName] = fmt.Sprintf("failed validation: %s", fieldErr.Tag())
		}
	}

	return errs
}
