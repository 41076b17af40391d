package shared

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validator checks form structs tagged with `validate` and reports fields by their `form` tag.
type Validator struct {
	v *validator.Validate
}

// NewValidator constructs a Validator.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("decimal", func(fl validator.FieldLevel) bool {
		return IsNumber(fl.Field().String())
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		raw := strings.TrimSpace(fl.Field().String())
		if raw == "" {
			return true
		}
		_, err := time.Parse("2006-01-02", raw)
		return err == nil
	})
	return &Validator{v: v}
}

// Struct validates s and returns a *ValidationError when any check fails.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "Campo obrigatório"
	case "max":
		return "Valor muito longo"
	case "datetime", "isodate":
		return "Data inválida"
	case "number", "numeric", "decimal":
		return "Informe um número"
	default:
		return "Valor inválido"
	}
}
