package validator

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// Validator - Validator type.
type Validator struct {
	validate *validator.Validate
}

var (
	once              sync.Once
	validatorInstance *Validator
)

// NewValidator - returns the shared Validator, validator.Validate caches struct metadata.
func NewValidator() *Validator {
	once.Do(func() {
		validatorInstance = &Validator{validate: validator.New()}
	})

	return validatorInstance
}

// ValidationErrorResponse - one failed field.
type ValidationErrorResponse struct {
	FailedField string `json:"failedField"`
	Tag         string `json:"tag"`
	Value       string `json:"value,omitempty"`
}

// ValidationError - Errors for tags validation.
type ValidationError struct {
	Errors []*ValidationErrorResponse `json:"errors"`
}

func (v *ValidationError) Error() string {
	data, err := json.Marshal(v)
	if err != nil {
		fields := make([]string, 0, len(v.Errors))
		for _, e := range v.Errors {
			fields = append(fields, e.FailedField)
		}
		return "validation failed: " + strings.Join(fields, ", ")
	}

	return string(data)
}

// ValidateStruct - apply validation, returning one entry per failed field.
func (v *Validator) ValidateStruct(str interface{}) []*ValidationErrorResponse {
	var valErrorsResResult []*ValidationErrorResponse

	err := v.validate.Struct(str)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			for _, err := range validationErrors {
				valErrorsResResult = append(valErrorsResResult, &ValidationErrorResponse{
					FailedField: err.StructNamespace(),
					Tag:         err.Tag(),
					Value:       err.Param(),
				})
			}
		}
	}

	return valErrorsResResult
}

// Validate - like ValidateStruct, as an error: nil, a *ValidationError, or the
// validator's own error when str cannot be validated at all (not a struct, nil pointer).
func (v *Validator) Validate(str interface{}) error {
	err := v.validate.Struct(str)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	return &ValidationError{Errors: v.ValidateStruct(str)}
}
