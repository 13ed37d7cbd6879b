package userservice

import (
	"regexp"
	"strings"
	"time"

	"github.com/sushihentaime/quill/internal/common"
)

var (
	EmailRX     = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	UppercaseRX = regexp.MustCompile("[A-Z]")
	LowercaseRX = regexp.MustCompile("[a-z]")
	NumberRX    = regexp.MustCompile("[0-9]")
	SymbolRX    = regexp.MustCompile(`[#?!@$%^&*_\\-]`)

	Genders = []string{"male", "female", "other"}
)

const birthDateLayout = "2006-01-02"

func validateName(v *common.Validator, name string) {
	v.Check(strings.TrimSpace(name) != "", "name", "must be provided")
	v.Check(v.CheckStringLength(name, 1, 50), "name", "must be between 1 and 50 characters long")
}

func validateEmail(v *common.Validator, email string) {
	v.Check(email != "", "email", "must be provided")
	v.Check(EmailRX.MatchString(email), "email", "must be a valid email address")
}

func validatePassword(v *common.Validator, field, password string) {
	v.Check(password != "", field, "must be provided")

	value := v.CheckStringLength(password, 8, 72) && UppercaseRX.MatchString(password) && LowercaseRX.MatchString(password) && NumberRX.MatchString(password) && SymbolRX.MatchString(password)
	v.Check(value, field, "must be between 8 and 72 characters long and contain at least one uppercase letter, one lowercase letter, one number, and one symbol")
}

func validateGender(v *common.Validator, gender *string) {
	if gender == nil {
		return
	}

	ok := false
	for _, g := range Genders {
		if *gender == g {
			ok = true
		}
	}
	v.Check(ok, "gender", "must be one of male, female or other")
}

func validateBio(v *common.Validator, bio *string) {
	if bio == nil {
		return
	}
	v.Check(v.CheckStringLength(*bio, 0, 500), "bio", "must be at most 500 characters long")
}

// parseBirthDate validates an optional YYYY-MM-DD date that must lie in the past.
func parseBirthDate(v *common.Validator, date *string) *time.Time {
	if date == nil || *date == "" {
		return nil
	}

	t, err := time.Parse(birthDateLayout, *date)
	if err != nil {
		v.AddError("birthDate", "must be a date in the format YYYY-MM-DD")
		return nil
	}
	v.Check(t.Before(time.Now()), "birthDate", "must be in the past")

	return &t
}
