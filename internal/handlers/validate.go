package handlers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/studynotion/apiserver/internal/services"
	"github.com/studynotion/apiserver/types"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	// custom validation tags
	notBlankTag    = "notblank"
	accountTypeTag = "account_type"
	otpTag         = "otp"
)

func init() {
	validate = validator.New()

	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report JSON field names instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlank)
	_ = validate.RegisterValidation(accountTypeTag, validAccountType)
	_ = validate.RegisterValidation(otpTag, validOTP)

	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, accountTypeTag, otpTag} {
		_ = validate.RegisterTranslation(tag, translator, registerFn, translateCustom)
	}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case accountTypeTag:
		return "accountType must be Student, Instructor or Admin"
	case otpTag:
		return fe.Field() + " must be a 6 digit code"
	default:
		return fe.Error()
	}
}

func notBlank(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

func validAccountType(fl validator.FieldLevel) bool {
	return types.AccountType(fl.Field().String()).Valid()
}

func validOTP(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// invalidRequest is a malformed or incomplete request body.
type invalidRequest struct {
	message string
	fields  map[string]string
}

func (e *invalidRequest) Error() string {
	return e.message
}

func badRequest(message string) error {
	return &invalidRequest{message: message}
}

// validateStruct runs the struct tags of v. Missing required fields are
// reported the same way the services report them.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return badRequest("Invalid request")
	}

	fields := make(map[string]string, len(verrs))
	missing := false
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Translate(translator)
		if fe.Tag() == "required" || fe.Tag() == notBlankTag {
			missing = true
		}
	}
	if missing {
		return &invalidRequest{message: services.ErrMissingFields.Message, fields: fields}
	}
	return &invalidRequest{message: "Validation failed", fields: fields}
}
