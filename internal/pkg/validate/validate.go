package validate

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// v is the package-level singleton validator. Field names are reported by
// their json tag so messages match the request payload.
var v = func() *validator.Validate {
	val := validator.New()
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return val
}()

// FieldError lists the payload fields that failed validation.
type FieldError struct {
	Fields []string
	msgs   []string
}

func (e *FieldError) Error() string { return strings.Join(e.msgs, "; ") }

// Struct validates the given struct using its validate tags.
// Returns a *FieldError for tag failures, any other validator error as is, or nil.
func Struct(s interface{}) error {
	if err := v.Struct(s); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		fe := &FieldError{}
		for _, e := range ve {
			fe.Fields = append(fe.Fields, e.Field())
			fe.msgs = append(fe.msgs, fmt.Sprintf("field '%s' failed '%s'", e.Field(), e.Tag()))
		}
		return fe
	}
	return nil
}
