package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct runs the `validate` tags of s.
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// IsEmail reports whether s is a syntactically valid address.
func IsEmail(s string) bool {
	return s != "" && validate.Var(s, "required,email") == nil
}

// Messages turns a validator error into form messages, in field order.
// table maps "Field.tag" to the text shown to the user; unmapped failures
// get a generic sentence naming the field.  Errors that are not
// validation errors produce a single generic message.
func Messages(err error, table map[string]string) []string {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{"Invalid input."}
	}
	out := make([]string, 0, len(verrs))
	seen := make(map[string]bool, len(verrs))
	for _, fe := range verrs {
		msg, ok := table[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = fallbackMessage(fe)
		}
		if !seen[msg] {
			seen[msg] = true
			out = append(out, msg)
		}
	}
	return out
}

// Failing returns the fields of err that failed any of tags.
func Failing(err error, tags ...string) map[string]bool {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := map[string]bool{}
	for _, fe := range verrs {
		for _, tag := range tags {
			if fe.Tag() == tag {
				out[fe.Field()] = true
			}
		}
	}
	return out
}

func fallbackMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", field)
	case "email":
		return "Invalid email format."
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid.", field)
}
