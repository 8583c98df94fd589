// Package validation binds request bodies and turns validator failures into
// field errors the client can act on.
package validation

import (
	"reflect"
	"slices"
	"strings"

	"github.com/deppfellow/contentfilter/internal/filter"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("filterkind", func(fl validator.FieldLevel) bool {
		return slices.Contains(filter.Kinds, filter.Kind(fl.Field().String()))
	})

	return v
}

// Struct validates s against its `validate` tags.
func Struct(s any) error {
	return validate.Struct(s)
}
