// Package validate turns struct tag checks and hand-written rules into a single
// validation error that lists every offending field.
package validate

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	pkgerrors "github.com/angelmondragon/codcrm-backend/pkg/errors"
	"github.com/go-playground/validator/v10"
)

var engine = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	v.RegisterCustomTypeFunc(decimalValue, decimalTypes()...)
	return v
}

// Violations accumulates field -> problem pairs.
type Violations map[string]string

func New() Violations {
	return Violations{}
}

// Add records a problem for field; the first problem per field wins.
func (v Violations) Add(field, problem string) {
	if _, exists := v[field]; exists {
		return
	}
	v[field] = problem
}

// Addf is Add with formatting.
func (v Violations) Addf(field, format string, args ...any) {
	v.Add(field, fmt.Sprintf(format, args...))
}

// Check records problem when ok is false.
func (v Violations) Check(ok bool, field, problem string) {
	if !ok {
		v.Add(field, problem)
	}
}

// Struct runs the tag-based rules on s and merges every failure.
func (v Violations) Struct(s any) {
	err := engine.Struct(s)
	if err == nil {
		return
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		v.Add("_", err.Error())
		return
	}
	for _, fieldErr := range errs {
		v.Add(fieldPath(fieldErr), message(fieldErr))
	}
}

// Fields returns the offending field names in stable order.
func (v Violations) Fields() []string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Err returns nil when empty, otherwise a validation error carrying every violation.
func (v Violations) Err() error {
	return v.ErrWithCode(pkgerrors.CodeValidation, "validation failed")
}

// ErrWithCode lets callers surface cross-entity rule breaches as invalid data.
func (v Violations) ErrWithCode(code pkgerrors.Code, message string) error {
	if len(v) == 0 {
		return nil
	}
	details := make(map[string]string, len(v))
	for k, p := range v {
		details[k] = p
	}
	return pkgerrors.New(code, message).WithDetails(details)
}

// Struct validates s on its own.
func Struct(s any) error {
	v := New()
	v.Struct(s)
	return v.Err()
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "uuid", "uuid4":
		return "must be a valid uuid"
	case "enum":
		return "is not an allowed value"
	}
	return "is invalid"
}
