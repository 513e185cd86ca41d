package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "cardshop/internal/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct runs the struct tags of v and reports the first failing
// field as a validation error.
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%w: %s failed on %s", apperrors.ErrValidation, strings.ToLower(fe.Field()), fe.Tag())
	}
	return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{apperrors.ErrValidation}, args...)...)
}
