package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"organ/internal/composer"
	applog "organ/internal/log"
	"organ/internal/recipe"
)

// Validator wraps the validator instance
type Validator struct {
	validate *validator.Validate
}

var requestValidator = newValidator()

func newValidator() *Validator {
	v := validator.New()

	// Report json field names instead of Go field names.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "notetype", validateNoteType)
	mustRegister(v, "currency", validateCurrency)

	return &Validator{validate: v}
}

// mustRegister installs a custom tag. It fails only on a malformed tag or a
// nil func, so it panics like the other setup helpers.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("handlers: register %q validation: %v", tag, err))
	}
}

// ValidateStruct validates a struct using tags
func (v *Validator) ValidateStruct(s any) error {
	return v.validate.Struct(s)
}

// ValidationErrorResponse defines the response structure for validation errors
type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// FormatValidationError formats validation errors into a field to message map.
func FormatValidationError(err error) map[string]string {
	if err == nil {
		return nil
	}

	errs := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errs["error"] = "Invalid request format"
		return errs
	}

	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required":
			errs[field] = "This field is required"
		case "notetype":
			errs[field] = "Must be one of top, middle or base"
		case "currency":
			errs[field] = "Unsupported currency"
		case "oneof":
			errs[field] = fmt.Sprintf("Must be one of %s", e.Param())
		case "max":
			errs[field] = fmt.Sprintf("Must be at most %s", e.Param())
		case "min":
			errs[field] = fmt.Sprintf("Must be at least %s", e.Param())
		case "gte":
			errs[field] = fmt.Sprintf("Must be %s or more", e.Param())
		case "lte":
			errs[field] = fmt.Sprintf("Must be %s or less", e.Param())
		default:
			errs[field] = "Invalid value"
		}
	}

	return errs
}

// decodeAndValidate decodes a JSON body into req and validates it. When it
// returns false the response has already been written.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req any, action string) bool {
	if err := decodeJSON(w, r, req); err != nil {
		applog.Debug(r.Context(), "invalid "+action+" payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	if err := requestValidator.ValidateStruct(req); err != nil {
		applog.Debug(r.Context(), action+" failed validation", "error", err)
		writeJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: FormatValidationError(err),
		})
		return false
	}
	return true
}

func validateNoteType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, ok := composer.ParseNoteType(value)
	return ok
}

func validateCurrency(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return recipe.KnownCurrency(value)
}
