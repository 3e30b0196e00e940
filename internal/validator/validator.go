package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Validator checks payload structs before they ever reach the network,
// producing the same field-to-message shape the backend's validation
// responses carry.
type Validator struct {
	validate *govalidator.Validate
	trans    ut.Translator
}

// New builds a validator with English translations. Field names in
// error messages use the JSON wire tag, matching what the backend
// reports.
func New() *Validator {
	v := govalidator.New(govalidator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	return &Validator{validate: v, trans: trans}
}

// Struct validates dst. Returns nil on success or a map of field name
// to human-readable error message on failure.
func (v *Validator) Struct(dst any) map[string]string {
	err := v.validate.Struct(dst)
	if err == nil {
		return nil
	}

	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Translate(v.trans)
		}
		return fields
	}

	// Not a field-level error (e.g. a nil payload).
	fields["detail"] = err.Error()
	return fields
}
