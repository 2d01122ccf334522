package xrequest

import (
	"errors"
	"reflect"
	"strings"
	"unicode/utf8"

	enLocal "github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTrans "github.com/go-playground/validator/v10/translations/en"
	"gomod.pri/spellkit/xerror"
)

// Validate checks v's struct tags and returns the first failure, translated,
// as a CodeInvalidParams error.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return xerror.New(xerror.CodeInvalidParams, errors.New(verrs[0].Translate(trans)), true)
	}
	return xerror.New(xerror.CodeInvalidParams, err)
}

var (
	validate *validator.Validate
	trans    ut.Translator
)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		if label := field.Tag.Get("label"); label != "" {
			return label
		}
		return field.Name
	})

	local := enLocal.New()
	trans, _ = ut.New(local).GetTranslator(local.Locale())
	_ = enTrans.RegisterDefaultTranslations(validate, trans)

	initCustomValidator(validate, trans)
}

func initCustomValidator(validate *validator.Validate, trans ut.Translator) {
	_ = validate.RegisterValidation("dictword", isDictWord)
	_ = validate.RegisterTranslation("dictword", trans,
		func(ut ut.Translator) error {
			return ut.Add("dictword", "{0} must be a single line of valid text", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T("dictword", fe.Field())
			return t
		},
	)
}

// isDictWord accepts valid UTF-8 without NUL and without line breaks, except
// for a single trailing "\r\n" or "\n".
func isDictWord(fl validator.FieldLevel) bool {
	return IsDictWord(fl.Field().String())
}

func IsDictWord(s string) bool {
	if !utf8.ValidString(s) || strings.IndexByte(s, 0) >= 0 {
		return false
	}
	body := strings.TrimSuffix(s, "\n")
	body = strings.TrimSuffix(body, "\r")
	return !strings.ContainsAny(body, "\r\n")
}
