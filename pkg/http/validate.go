package http

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Errors name the query/json parameter, not the Go field.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			if name, _, _ := strings.Cut(f.Tag.Get(tag), ","); name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	// gt/lt accept +Inf; finite rejects it along with NaN.
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		switch f := fl.Field(); f.Kind() {
		case reflect.Float32, reflect.Float64:
			return !math.IsInf(f.Float(), 0) && !math.IsNaN(f.Float())
		}
		return true
	})
	return v
}

// BindQuery binds the request into req, then defaults and validates it.
func BindQuery(c echo.Context, req interface{}) []*AppError {
	if err := c.Bind(req); err != nil {
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg = fmt.Sprint(he.Message)
		}
		return []*AppError{BadRequestError("ERR_BIND", msg).WithError(err)}
	}
	return Validate(c.Request().Context(), req)
}

// Validate fills `default` tags and checks `validate` tags on a decoded request.
func Validate(ctx context.Context, req interface{}) []*AppError {
	if err := defaults.Set(req); err != nil {
		return []*AppError{InternalError("request defaults failed").WithError(err)}
	}
	err := validate.StructCtx(ctx, req)
	if err == nil {
		return nil
	}
	var fes validator.ValidationErrors
	if !errors.As(err, &fes) {
		return []*AppError{BadRequestError("ERR_INVALID", err.Error())}
	}
	out := make([]*AppError, 0, len(fes))
	for _, fe := range fes {
		out = append(out, BadRequestError("ERR_"+strings.ToUpper(fe.Tag()), describe(fe)).OnField(fe.Field()))
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "finite":
		return fe.Field() + " must be a finite number"
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
