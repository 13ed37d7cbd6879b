package common

import (
	"sort"
	"strings"
	"unicode/utf8"
)

type Validator struct {
	Errors map[string]string
}

func NewValidator() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

func (v *Validator) AddError(field, message string) {
	if _, ok := v.Errors[field]; !ok {
		v.Errors[field] = message
	}
}

func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// CheckStringLength counts characters, not bytes.
func (v *Validator) CheckStringLength(s string, min, max int) bool {
	n := utf8.RuneCountInString(s)
	return n >= min && n <= max
}

// ValidationError joins the collected messages into a single BadRequest, ordered by field.
func (v *Validator) ValidationError() error {
	fields := make([]string, 0, len(v.Errors))
	for f := range v.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	messages := make([]string, 0, len(fields))
	for _, f := range fields {
		messages = append(messages, f+" "+v.Errors[f])
	}

	return &Error{Kind: KindBadRequest, Message: strings.Join(messages, " "), Fields: v.Errors}
}

func ValidateID(v *Validator, id int, name string) {
	v.Check(id > 0, name, "must be greater than zero")
}
