package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return v
}

// validateInput runs struct tag validation and folds failures into ErrValidation.
func validateInput(input interface{}) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		parts := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			parts = append(parts, fmt.Sprintf("%s failed on %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(parts, ", "))
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}
