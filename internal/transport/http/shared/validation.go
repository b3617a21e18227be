package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"hrsaas/internal/transport/http/api"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Fields collects field-keyed validation messages. The first message per
// field is kept.
type Fields map[string]string

func (f Fields) Add(field, message string) {
	if _, exists := f[field]; exists || strings.TrimSpace(message) == "" {
		return
	}
	f[field] = message
}

func (f Fields) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		f.Add(field, "This field is required")
	}
}

func (f Fields) Any() bool { return len(f) > 0 }

// Reject writes a 422 with the collected fields and reports whether it did.
func (f Fields) Reject(w http.ResponseWriter, requestID string) bool {
	if !f.Any() {
		return false
	}
	FailValidation(w, requestID, f)
	return true
}

// Struct validates payload against its `validate` tags.
func Struct(payload any) Fields {
	fields := Fields{}
	err := engine().Struct(payload)
	if err == nil {
		return fields
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields.Add("_", err.Error())
		return fields
	}
	for _, fe := range verrs {
		fields.Add(fe.Field(), message(fe))
	}
	return fields
}

// Decode reads a JSON body into payload and validates it. On failure the
// response is already written and false is returned.
func Decode(w http.ResponseWriter, r *http.Request, requestID string, payload any) (Fields, bool) {
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return nil, false
	}
	return Struct(payload), true
}

func FailValidation(w http.ResponseWriter, requestID string, fields Fields) {
	api.FailWithFields(w, http.StatusUnprocessableEntity, "validation_error", "The given data was invalid.", fields, requestID)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if", "required_with":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if fe.Kind() == reflect.String {
			return "Must be at least " + fe.Param() + " characters"
		}
		return "Must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "Must be at most " + fe.Param() + " characters"
		}
		return "Must be at most " + fe.Param()
	case "oneof":
		return "Must be one of: " + fe.Param()
	case "gte":
		return "Must be greater than or equal to " + fe.Param()
	case "lte":
		return "Must be less than or equal to " + fe.Param()
	case "gt":
		return "Must be greater than " + fe.Param()
	case "uuid", "uuid4":
		return "Invalid identifier"
	case "datetime":
		return "Must be a date in " + fe.Param() + " format"
	case "len":
		return "Must be exactly " + fe.Param() + " characters"
	case "gtefield":
		return "Must be on or after " + fe.Param()
	default:
		return "Invalid value"
	}
}
