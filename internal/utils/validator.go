// internal/utils/validator.go
package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report fields by their JSON name so violations line up with request payloads
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	validate.RegisterValidation("cpf", validateCPFTag)
	validate.RegisterValidation("cnpj", validateCNPJTag)
	validate.RegisterValidation("cep", validateCEPTag)
	validate.RegisterValidation("phone_br", validatePhoneTag)
	validate.RegisterValidation("uf", validateStateTag)
	validate.RegisterValidation("mailbox", validateMailboxTag)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateCPFTag(fl validator.FieldLevel) bool {
	return ValidateCPF(fl.Field().String())
}

func validateCNPJTag(fl validator.FieldLevel) bool {
	return ValidateCNPJ(fl.Field().String())
}

func validateCEPTag(fl validator.FieldLevel) bool {
	return ValidateCEP(fl.Field().String())
}

func validatePhoneTag(fl validator.FieldLevel) bool {
	return ValidatePhone(fl.Field().String())
}

func validateStateTag(fl validator.FieldLevel) bool {
	return ValidateStateCode(fl.Field().String())
}

func validateMailboxTag(fl validator.FieldLevel) bool {
	return ValidateMailbox(fl.Field().String())
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// GetValidationErrors flattens validator errors in struct field order.
// Field is the JSON path below the validated struct, e.g. "address.postalCode".
func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   fieldPath(e),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email", "mailbox":
		return "Invalid email format"
	case "min":
		return e.Field() + " must be at least " + e.Param() + " characters"
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	case "cpf":
		return "Invalid CPF"
	case "cnpj":
		return "Invalid CNPJ"
	case "cep":
		return "Postal code must have 8 digits"
	case "phone_br":
		return "Phone must have at least 10 digits"
	case "uf":
		return "State must be a two-letter code"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	default:
		return e.Field() + " is invalid"
	}
}
