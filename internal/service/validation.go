package service

import (
	"errors"
	"regexp"

	"github.com/Dan9191/quotation-service/internal/errs"
	"github.com/go-playground/validator/v10"
)

const (
	// MinPasswordLength is the shortest accepted password, in characters.
	MinPasswordLength = 6
	// MaxPasswordBytes is the longest password bcrypt accepts.
	MaxPasswordBytes = 72
)

var (
	validate     *validator.Validate
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

func init() {
	validate = validator.New()

	validate.RegisterValidation("email_shape", validateEmailShape)
	validate.RegisterValidation("bcrypt_max", validateBcryptLength)
}

// validateEmailShape accepts anything shaped like local@domain.tld.
func validateEmailShape(fl validator.FieldLevel) bool {
	return emailPattern.MatchString(fl.Field().String())
}

// validateBcryptLength rejects values bcrypt would refuse to hash.
func validateBcryptLength(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxPasswordBytes
}

// rule maps a failed validation tag to the message returned to clients.
type rule struct {
	tag string
	msg string
}

var registerRules = []rule{
	{"required", "Username, email, and password are required"},
	{"email_shape", "Invalid email format"},
	{"min", "Password must be at least 6 characters long"},
	{"bcrypt_max", "Password must be at most 72 bytes long"},
}

var loginRules = []rule{
	{"required", "Email and password are required"},
}

// validateInput runs the struct tags on in. When several fields fail, the
// message of the earliest matching rule wins.
func validateInput(in any, rules []rule) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errs.Internal("Validation failed", err)
	}

	failed := make(map[string]bool, len(fieldErrs))
	for _, fe := range fieldErrs {
		failed[fe.Tag()] = true
	}
	for _, r := range rules {
		if failed[r.tag] {
			return errs.Validation(r.msg)
		}
	}
	return errs.Validation("Invalid " + fieldErrs[0].Field())
}
