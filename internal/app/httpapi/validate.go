package httpapi

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fastfood-labs/order_service/internal/app/domain/order"
	"github.com/fastfood-labs/order_service/internal/app/domain/product"
	"github.com/fastfood-labs/order_service/internal/errors"
)

// newValidator returns a validator aware of the menu category and order
// status enums, reporting fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("product_category", func(fl validator.FieldLevel) bool {
		return product.Category(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("order_status", func(fl validator.FieldLevel) bool {
		return order.Status(fl.Field().String()).Valid()
	})
	return v
}

// validationError converts validator output into a 422 service error.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.Validation(err.Error())
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.Validation(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s: field required", fe.Field())
	case "product_category":
		return fmt.Sprintf("%s: must be one of %s", fe.Field(), joinCategories())
	case "order_status":
		return fmt.Sprintf("%s: must be one of %s", fe.Field(), joinStatuses())
	default:
		return fmt.Sprintf("%s: failed %s validation", fe.Field(), fe.Tag())
	}
}

func joinCategories() string {
	out := make([]string, 0, 4)
	for _, c := range product.Categories() {
		out = append(out, string(c))
	}
	return strings.Join(out, ", ")
}

func joinStatuses() string {
	out := make([]string, 0, 4)
	for _, s := range order.Statuses() {
		out = append(out, string(s))
	}
	return strings.Join(out, ", ")
}
