package core

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

var (
	// custom validation tags & texts
	// grades & terms make up fee keys ("{grade}_{term}_{year}"): no underscores
	feeKeyTag   = "feekey"
	feeKeyText  = "only letters, digits, spaces and dashes are allowed"
	feeKeyRegex = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} -]*$`)

	studentNumberTag   = "studentnum"
	studentNumberText  = "only letters and digits, optionally separated by '-', '/' or '.', are allowed"
	studentNumberRegex = regexp.MustCompile(`^[\p{L}\p{N}]+([-/.][\p{L}\p{N}]+)*$`)

	yearTag   = "year"
	yearText  = "must be a 4-digit year"
	yearRegex = regexp.MustCompile(`^\d{4}$`)

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// NewTranslator returns the english translator used for validation messages.
func NewTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// validate money & nullable strings by their underlying values
	validate.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	validate.RegisterCustomTypeFunc(nullStringValue, null.String{})

	// register custom validators
	_ = validate.RegisterValidation(feeKeyTag, feeKeyValidation)
	RegisterCustomTranslation(validate, translator, feeKeyTag, feeKeyText)

	_ = validate.RegisterValidation(studentNumberTag, studentNumberValidation)
	RegisterCustomTranslation(validate, translator, studentNumberTag, studentNumberText)

	_ = validate.RegisterValidation(yearTag, yearValidation)
	RegisterCustomTranslation(validate, translator, yearTag, yearText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

func nullStringValue(field reflect.Value) interface{} {
	if s, ok := field.Interface().(null.String); ok && s.Valid {
		return s.String
	}
	return nil
}

// Custom Global Validators

// feeKeyValidation only allows letters, digits, spaces and dashes, starting with a letter or digit.
func feeKeyValidation(fl validator.FieldLevel) bool {
	return feeKeyRegex.MatchString(fl.Field().String())
}

func studentNumberValidation(fl validator.FieldLevel) bool {
	return studentNumberRegex.MatchString(fl.Field().String())
}

// yearValidation only allows 4-digit years.
func yearValidation(fl validator.FieldLevel) bool {
	return yearRegex.MatchString(fl.Field().String())
}
