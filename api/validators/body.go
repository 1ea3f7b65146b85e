package validators

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/naebak/naebak-auth-service/pkg/errors"
	"github.com/naebak/naebak-auth-service/pkg/security"
)

const (
	tagNationalID     = "national_id"
	tagStrongPassword = "strong_password"

	maxBodyBytes = 1 << 20
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	_ = v.RegisterValidation(tagNationalID, func(fl validator.FieldLevel) bool {
		return security.IsValidNationalID(fl.Field().String())
	})
	// strong_password applies the default policy; the configured policy is
	// re-checked by the auth service.
	_ = v.RegisterValidation(tagStrongPassword, func(fl validator.FieldLevel) bool {
		return len(security.PasswordProblems(fl.Field().String(), defaultPasswordPolicy)) == 0
	})
	return v
}

// DecodeJSONBody reads a JSON body into dest and runs struct validation.
func DecodeJSONBody(r *http.Request, dest any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "البيانات المرسلة غير صالحة").WithDetails(map[string]any{"body": err.Error()})
	}
	return ValidateStruct(dest)
}

// ValidateStruct runs the shared validator against v.
func ValidateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

// formatValidationErrors picks the most specific code: any generic failure
// wins, then a weak password, then a malformed national id.
func formatValidationErrors(err error) *pkgerrors.Error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "بيانات غير صالحة")
	}

	details := map[string]any{}
	var generic, weak, nationalID bool
	for _, fieldErr := range errs {
		details[fieldErr.Field()] = validationMessage(fieldErr)
		switch fieldErr.Tag() {
		case tagStrongPassword:
			weak = true
		case tagNationalID:
			nationalID = true
		default:
			generic = true
		}
	}

	switch {
	case generic:
		return pkgerrors.New(pkgerrors.CodeValidation, "بيانات غير صالحة").WithDetails(details)
	case weak:
		return pkgerrors.New(pkgerrors.CodeWeakPassword, "كلمة المرور ضعيفة").WithDetails(details)
	case nationalID:
		return pkgerrors.New(pkgerrors.CodeInvalidNationalID, "الرقم القومي يجب أن يتكون من 14 رقماً").WithDetails(details)
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "بيانات غير صالحة").WithDetails(details)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "هذا الحقل مطلوب"
	case "min":
		return fmt.Sprintf("يجب ألا يقل عن %s", fe.Param())
	case "max":
		return fmt.Sprintf("يجب ألا يزيد عن %s", fe.Param())
	case "email":
		return "يجب إدخال بريد إلكتروني صالح"
	case "eqfield":
		return "القيمتان غير متطابقتين"
	case "oneof":
		return fmt.Sprintf("يجب أن تكون إحدى القيم: %s", fe.Param())
	case tagNationalID:
		return "الرقم القومي يجب أن يتكون من 14 رقماً"
	case tagStrongPassword:
		return strings.Join(security.PasswordProblems(fmt.Sprint(fe.Value()), defaultPasswordPolicy), "، ")
	}
	return "قيمة غير صالحة"
}
