package auth

import (
	"errors"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/nyaruka/phonenumbers"
)

const MinPasswordLength = 8

// passwordRule enforces the account password policy: at least 8 characters
// with a lowercase, an uppercase, a digit, and a symbol.
func passwordRule() validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if len(s) < MinPasswordLength {
			return errors.New("must be at least 8 characters")
		}

		var lower, upper, digit, symbol bool
		for _, r := range s {
			switch {
			case unicode.IsLower(r):
				lower = true
			case unicode.IsUpper(r):
				upper = true
			case unicode.IsDigit(r):
				digit = true
			default:
				symbol = true
			}
		}

		if !lower || !upper || !digit || !symbol {
			return errors.New("must contain lowercase, uppercase, digit, and symbol characters")
		}

		return nil
	})
}

// phoneRule validates an optional phone number. Numbers without an
// international prefix are parsed against the PT region, where the app
// launched.
func phoneRule() validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}

		num, err := phonenumbers.Parse(s, "PT")
		if err != nil {
			return errors.New("must be a valid phone number")
		}

		if !phonenumbers.IsValidNumber(num) {
			return errors.New("must be a valid phone number")
		}

		return nil
	})
}
