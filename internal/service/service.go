// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/ticketpass/internal/model"
)

// validate checks request structs. Field names in errors are the JSON names.
var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// check runs struct validation on req and converts the first failure into a
// client-facing *model.ValidationError.
func check(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return model.Invalid(field, "Missing required field: %s", field)
	case "oneof":
		return model.Invalid(field, "Invalid %s. Must be one of: %s.", field, fe.Param())
	case "email":
		return model.Invalid(field, "Invalid %s format.", field)
	case "uuid":
		return model.Invalid(field, "Invalid %s format.", field)
	case "max":
		return model.Invalid(field, "%s must be at most %s characters.", field, fe.Param())
	case "min":
		return model.Invalid(field, "%s must be at least %s characters.", field, fe.Param())
	case "gte":
		return model.Invalid(field, "%s must be at least %s.", field, fe.Param())
	default:
		return model.Invalid(field, "Invalid %s.", field)
	}
}

// checkID rejects path identifiers that are not UUIDs.
func checkID(id, what string) error {
	if _, err := uuid.Parse(id); err != nil {
		return model.Invalid("id", "Invalid %s ID format.", what)
	}
	return nil
}
