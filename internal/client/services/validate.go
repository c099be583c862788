package services

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/cramodoro/internal/client/localauth"
	"github.com/dmitrijs2005/cramodoro/internal/common"
)

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && strings.Contains(s[at+1:], ".")
}

func validateLogin(identifier, password string) error {
	if identifier == "" {
		return fmt.Errorf("%w: email or username is required", common.ErrorValidation)
	}
	if strings.Contains(identifier, "@") && !validEmail(identifier) {
		return fmt.Errorf("%w: invalid email address", common.ErrorValidation)
	}
	if password == "" {
		return fmt.Errorf("%w: password is required", common.ErrorValidation)
	}
	if utf8.RuneCountInString(password) < localauth.MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, localauth.MinPasswordLength)
	}
	return nil
}

func validateSignup(email, password, confirmPassword string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", common.ErrorValidation)
	}
	if !validEmail(email) {
		return fmt.Errorf("%w: invalid email address", common.ErrorValidation)
	}
	if utf8.RuneCountInString(password) < localauth.MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, localauth.MinPasswordLength)
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return fmt.Errorf("%w: password must contain uppercase, lowercase and a number", common.ErrorValidation)
	}
	if password != confirmPassword {
		return fmt.Errorf("%w: passwords do not match", common.ErrorValidation)
	}
	return nil
}
