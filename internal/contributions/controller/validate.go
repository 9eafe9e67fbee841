package controller

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	e "github.com/gartstein/contributions/internal/contributions/errors"
	"github.com/gartstein/contributions/internal/contributions/models"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// amountColumn describes a NUMERIC column: digits before and after the
// decimal point.
type amountColumn struct {
	digits int32
	scale  int32
}

var amountColumns = map[string]amountColumn{
	"money": {digits: 8, scale: 2},
	"base":  {digits: 20, scale: 4},
}

var hundred = decimal.NewFromInt(100)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Decimals are validated through their canonical string form.
	v.RegisterCustomTypeFunc(func(f reflect.Value) interface{} {
		if d, ok := f.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	for tag, fn := range map[string]validator.Func{
		"amount":  isAmount,
		"percent": isPercent,
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s validation: %v", tag, err))
		}
	}
	return v
}

// isAmount accepts non-negative decimals that fit the column named by the
// tag parameter without rounding.
func isAmount(fl validator.FieldLevel) bool {
	col, ok := amountColumns[fl.Param()]
	if !ok {
		return false
	}
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return !d.IsNegative() &&
		d.LessThan(decimal.New(1, col.digits)) &&
		d.Equal(d.Truncate(col.scale))
}

func isPercent(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	return err == nil && !d.IsNegative() && d.LessThanOrEqual(hundred)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", e.ErrInvalidInput, fmt.Sprintf(format, args...))
}

// check validates s against its validate tags and reports the violations
// as ErrInvalidInput.
func check(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return invalid("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return invalid("%s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s longer than %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s %v above %s", fe.Field(), fe.Value(), fe.Param())
	case "min":
		return fmt.Sprintf("%s %v below %s", fe.Field(), fe.Value(), fe.Param())
	case "amount":
		col := amountColumns[fe.Param()]
		return fmt.Sprintf("%s %v must be non-negative with at most %d integer digits and %d decimal places",
			fe.Field(), fe.Value(), col.digits, col.scale)
	case "percent":
		return fmt.Sprintf("%s %v outside 0..100", fe.Field(), fe.Value())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}

func validateKey(workerID string, year int) error {
	return check(models.WorkerKey{WorkerID: workerID, Year: year})
}

func validateYear(year int) error {
	return validateConvenio(year, decimal.Zero)
}

func validateConvenio(year int, hours decimal.Decimal) error {
	return check(&models.Convenio{Year: year, AnnualConvenioHours: hours})
}

func validateTipo(tipo string) error {
	return validateCargaSocial(tipo, decimal.Zero)
}

func validateCargaSocial(tipo string, porcentaje decimal.Decimal) error {
	return check(&models.CargaSocial{Tipo: tipo, Porcentaje: porcentaje})
}
