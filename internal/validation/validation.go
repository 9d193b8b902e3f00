// Package validation holds the pure input checks run before any business
// logic. Decoding (JSON body, chat command arguments) happens at the entry
// points; everything here works on plain structs from the models package.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"

	"github.com/Kerhoff/GiftboT/internal/apperrors"
)

// Validator wraps go-playground/validator with the project's custom rules
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// New creates a validator using the wall clock
func New() *Validator {
	return NewWithClock(time.Now)
}

// NewWithClock creates a validator whose "notpast" rule uses now
func NewWithClock(now func() time.Time) *Validator {
	v := &Validator{validate: validator.New(validator.WithRequiredStructEnabled()), now: now}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Dates are compared by calendar day so "today" stays valid all day long.
	mustRegister(v.validate, "notpast", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		return !t.UTC().Before(StartOfDay(v.now()))
	})

	return v
}

// mustRegister adds a custom rule and panics if validator rejects it
func mustRegister(validate *validator.Validate, tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

// Now returns the validator's notion of the current time
func (v *Validator) Now() time.Time {
	return v.now()
}

// Struct trims string fields in place and validates s. The returned error is
// an *apperrors.Error of kind validation with one message per failed field.
func (v *Validator) Struct(s any) error {
	trimStrings(reflect.ValueOf(s))

	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Infrastructure("failed to validate input", err)
	}

	var merr *multierror.Error
	for _, fe := range verrs {
		merr = multierror.Append(merr, &apperrors.FieldError{
			Field:   fe.Field(),
			Message: message(fe),
		})
	}
	return apperrors.FromFieldErrors(merr)
}

// StartOfDay truncates t to midnight UTC
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NormalizeFriendCode upper-cases and trims a code typed by a user
func NormalizeFriendCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "gte":
		if fe.Param() == "0" {
			return "must not be negative"
		}
		return "must be at least " + fe.Param()
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "notpast":
		return "must not be in the past"
	case "alphanum":
		return "must contain only letters and digits"
	case "uppercase":
		return "must be upper case"
	default:
		return "is invalid"
	}
}

func trimStrings(v reflect.Value) {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if !f.CanSet() {
			continue
		}
		switch {
		case f.Kind() == reflect.String:
			f.SetString(strings.TrimSpace(f.String()))
		case f.Kind() == reflect.Ptr && !f.IsNil() && f.Elem().Kind() == reflect.String:
			f.Elem().SetString(strings.TrimSpace(f.Elem().String()))
		}
	}
}
