// Package validation checks request bodies with go-playground/validator and
// turns every failed rule into a readable field message.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"
)

// fieldLabels names JSON fields in messages. Unlisted fields are humanized.
var fieldLabels = map[string]string{
	"id":               "ID",
	"product":          "Product ID",
	"user":             "User ID",
	"userId":           "User ID",
	"category":         "Category ID",
	"orderItem":        "order item",
	"shippingAddress1": "Shipping Address 1",
	"shippingAddress2": "Shipping Address 2",
	"phone":            "Phone number",
	"countInStock":     "Count in stock",
	"numReviews":       "Number of reviews",
	"richDescription":  "Rich description",
	"isFeatured":       "Featured flag",
}

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	// decimals are checked as numbers so money fields take gte/lte tags
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return &Validator{v: v}
}

// Struct validates s and returns a *domain.ValidationError listing every
// failed field, or nil.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate request: %w", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg := message(fe)
		if parent := parentPath(fe.Namespace()); parent != "" {
			msg = parent + ": " + msg
		}
		msgs = append(msgs, msg)
	}
	return domain.NewValidationError(msgs...)
}

// ID checks that value is a 24 character hex object id.
func (v *Validator) ID(field, value string) error {
	err := v.v.Var(value, "required,len=24,hexadecimal")
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate %s: %w", field, err)
	}
	return domain.NewValidationError(describe(label(field), fieldErrs[0].Tag(), fieldErrs[0].Param(), fieldErrs[0].Kind()))
}

func message(fe validator.FieldError) string {
	return describe(label(fe.Field()), fe.Tag(), fe.Param(), fe.Kind())
}

func describe(name, tag, param string, kind reflect.Kind) string {
	switch tag {
	case "required":
		return name + " is required"
	case "len":
		if kind == reflect.String {
			return fmt.Sprintf("%s must be %s characters", name, param)
		}
		return fmt.Sprintf("%s must have %s entries", name, param)
	case "hexadecimal":
		return name + " must be a valid hexadecimal"
	case "min":
		switch kind {
		case reflect.String:
			if param == "1" {
				return name + " must not be empty"
			}
			return fmt.Sprintf("%s must be at least %s characters", name, param)
		case reflect.Slice, reflect.Array, reflect.Map:
			if param == "1" {
				return "At least one " + name + " is required"
			}
			return fmt.Sprintf("At least %s %s entries are required", param, name)
		default:
			return fmt.Sprintf("%s must be at least %s", name, param)
		}
	case "max":
		return fmt.Sprintf("%s must be at most %s", name, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", name, param)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", name, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", name, joinChoices(strings.Fields(param)))
	case "notblank":
		return name + " must not be empty"
	case "email":
		return "Invalid email address"
	case "url":
		return name + " must be a valid URL"
	case "hexcolor":
		return name + " must be a hex color"
	case "datetime":
		return name + " must be a date"
	default:
		return name + " is invalid"
	}
}

func label(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	return humanize(field)
}

// humanize turns "dateOrdered" into "Date ordered".
func humanize(field string) string {
	var b strings.Builder
	for i, r := range field {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func joinChoices(choices []string) string {
	switch len(choices) {
	case 0:
		return ""
	case 1:
		return choices[0]
	}
	return strings.Join(choices[:len(choices)-1], ", ") + " or " + choices[len(choices)-1]
}

// parentPath returns the location of a nested field, "orderItem[1]" for
// "createOrderRequest.orderItem[1].quantity", and "" for top level fields.
func parentPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) <= 2 {
		return ""
	}
	return strings.Join(parts[1:len(parts)-1], ".")
}
