package utils

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	auMobile = regexp.MustCompile(`^(?:\+?61|0)4\d{8}$`)
	auStates = map[string]bool{"NSW": true, "VIC": true, "QLD": true, "WA": true, "SA": true, "TAS": true, "ACT": true, "NT": true}
)

// Validate is the shared schema validator with the shop's custom rules.
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("aumobile", func(fl validator.FieldLevel) bool {
		return auMobile.MatchString(NormalizeMobile(fl.Field().String()))
	})
	_ = v.RegisterValidation("austate", func(fl validator.FieldLevel) bool {
		return auStates[strings.ToUpper(strings.TrimSpace(fl.Field().String()))]
	})
	v.RegisterTagNameFunc(jsonFieldName)
	return v
}

// NormalizeMobile strips spaces, dashes and brackets from a phone number.
func NormalizeMobile(s string) string {
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(s)
}

// ValidateStruct runs the validator and converts failures into an AppError.
func ValidateStruct(v interface{}) error {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return ValidationFromErrors(verrs)
	}
	return BadRequest("invalid input")
}

// ValidationFromErrors maps validator errors to {field namespace: rule}.
func ValidationFromErrors(verrs validator.ValidationErrors) *AppError {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		ns := fe.Namespace()
		// drop the root struct name
		if i := strings.Index(ns, "."); i >= 0 {
			ns = ns[i+1:]
		}
		fields[ns] = fe.Tag()
	}
	return Validation(fields)
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	}
	return name
}
