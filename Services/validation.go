package Services

import (
	"errors"
	"reflect"
	"strings"

	"TaskLedger/Models"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shopspring/decimal"
)

var (
	validate   *validator.Validate
	translator ut.Translator
	maxHours   = decimal.NewFromInt(1000)
)

func init() {
	english := en.New()
	translator, _ = ut.New(english, english).GetTranslator("en")

	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		panic(err)
	}

	registerEnum("platform", "{0} must be one of Outlier AI, Handshake, Other", func(v string) bool {
		return Models.Platform(v).Valid()
	})
	registerEnum("browser", "{0} must be one of IX Browser, GoLogin, MoreLogin, Other", func(v string) bool {
		return Models.BrowserType(v).Valid()
	})
}

func registerEnum(tag, message string, ok func(string) bool) {
	if err := validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return ok(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	if err := validate.RegisterTranslation(tag, translator,
		func(t ut.Translator) error { return t.Add(tag, message, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(tag, fe.Field())
			return msg
		},
	); err != nil {
		panic(err)
	}
}

// validateInput runs struct tags and reports the first failing field.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{Field: fe.Field(), Message: fe.Translate(translator)}
	}
	return &ValidationError{Message: err.Error()}
}

// validateHours enforces the decimal(5,2) column: 0 <= hours < 1000, two places.
func validateHours(hours decimal.Decimal) error {
	switch {
	case hours.IsNegative():
		return &ValidationError{Field: "time_spent_hours", Message: "time_spent_hours must be zero or more"}
	case !hours.Equal(hours.Round(2)):
		return &ValidationError{Field: "time_spent_hours", Message: "time_spent_hours allows at most 2 decimal places"}
	case hours.GreaterThanOrEqual(maxHours):
		return &ValidationError{Field: "time_spent_hours", Message: "time_spent_hours must be less than 1000"}
	}
	return nil
}
