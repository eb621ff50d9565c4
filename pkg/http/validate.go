package http

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate *validator.Validate

// symbolRe matches provider tickers and series names such as SPY, BTC-USD, ^GSPC or GC=F.
var symbolRe = regexp.MustCompile(`^[A-Za-z0-9^.=_-]{1,20}$`)

func init() {
	validate = validator.New()
	// report fields under the name clients send
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			if name := strings.Split(f.Tag.Get(tag), ",")[0]; name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	_ = validate.RegisterValidation("symbols", validateSymbols)
}

// RegisterValidation adds a custom tag to the request validator. Call it from init.
func RegisterValidation(tag string, fn validator.Func) error {
	return validate.RegisterValidation(tag, fn)
}

// validateSymbols accepts a comma separated list of tickers; blank items are ignored.
func validateSymbols(fl validator.FieldLevel) bool {
	n := 0
	for _, item := range strings.Split(fl.Field().String(), ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if !symbolRe.MatchString(item) {
			return false
		}
		n++
	}
	return n > 0
}

// ReadAndValidateRequest binds query and body into req, applies `default` tags and
// validates. It returns nil or a []ValidationError ready for BadRequestResponse.
func ReadAndValidateRequest(c echo.Context, req interface{}) interface{} {
	if err := c.Bind(req); err != nil {
		return toValidationErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return toValidationErrors(err)
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func toValidationErrors(err error) []ValidationError {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		out := make([]ValidationError, 0, len(ves))
		for _, fe := range ves {
			out = append(out, ValidationError{
				Code:    "ERR_" + strings.ToUpper(fe.Tag()),
				Field:   fe.Field(),
				Message: messageFor(fe),
				Params:  paramsFor(fe),
			})
		}
		return out
	}

	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg = fmt.Sprint(he.Message)
	}
	return []ValidationError{{Code: "ERR_BIND", Message: msg}}
}

// messages holds one format per tag; %[1]s is the field, %[2]s the tag parameter.
var messages = map[string]string{
	"required": "%[1]s is required",
	"datetime": "%[1]s must be a date formatted as %[2]s",
	"oneof":    "%[1]s must be one of: %[2]s",
	"symbols":  "%[1]s must be a comma separated list of tickers",
	"period":   "%[1]s must be one of: 1Y, 3Y, 5Y, 10Y, ALL",
	"gte":      "%[1]s must be at least %[2]s",
	"lte":      "%[1]s must be at most %[2]s",
}

func messageFor(fe validator.FieldError) string {
	format, ok := messages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("%s failed validation: %s", fe.Field(), fe.Tag())
	}
	param := fe.Param()
	if fe.Tag() == "oneof" {
		param = strings.ReplaceAll(param, " ", ", ")
	}
	if fe.Tag() == "datetime" {
		param = "YYYY-MM-DD"
	}
	return fmt.Sprintf(format, fe.Field(), param)
}

func paramsFor(fe validator.FieldError) map[string]interface{} {
	switch fe.Tag() {
	case "gte":
		return map[string]interface{}{"min": fe.Param()}
	case "lte":
		return map[string]interface{}{"max": fe.Param()}
	case "oneof":
		return map[string]interface{}{"options": strings.Fields(fe.Param())}
	case "datetime":
		return map[string]interface{}{"layout": fe.Param()}
	}
	return nil
}
