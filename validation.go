package session

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
)

// defaultPhoneRegion is used when a phone number carries no country prefix.
const defaultPhoneRegion = "US"

var (
	hasUpper = regexp.MustCompile(`[A-Z]`)
	hasLower = regexp.MustCompile(`[a-z]`)
	hasDigit = regexp.MustCompile(`[0-9]`)
)

// passwordRules mirrors the backend's password policy so inline form errors
// match what the server would reject.
var passwordRules = []validation.Rule{
	validation.Required.Error("password is required"),
	validation.Length(8, 0).Error("password too weak"),
	validation.Match(hasUpper).Error("password too weak"),
	validation.Match(hasLower).Error("password too weak"),
	validation.Match(hasDigit).Error("password too weak"),
}

// Validate checks the login payload before it reaches the backend.
func (c Credentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email,
			validation.Required.Error("email is required"),
			is.Email.Error("invalid email format"),
		),
		validation.Field(&c.Password,
			validation.Required.Error("password is required"),
		),
	)
}

// Validate checks the signup payload, including the backend's password
// policy and the allowed roles.
func (r Registration) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("email is required"),
			is.Email.Error("invalid email format"),
		),
		validation.Field(&r.Password, passwordRules...),
		validation.Field(&r.Role,
			validation.In(RoleClient, RoleTherapist).Error("invalid role"),
		),
	)
}

// ValidatePhone checks a profile contact number. Numbers without an
// international prefix are interpreted in the default region.
func ValidatePhone(phone string) error {
	if phone == "" {
		return goerrors.New("phone is required", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	num, err := phonenumbers.Parse(phone, defaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return goerrors.New("invalid phone format", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	return nil
}

// PhoneRule adapts ValidatePhone for use with validation.By in struct
// validation.
func PhoneRule(value any) error {
	phone, _ := value.(string)
	return ValidatePhone(phone)
}
