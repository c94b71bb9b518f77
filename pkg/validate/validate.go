package validate

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func Struct(s any) error {
	return validate.Struct(s)
}

// MemberID checks an id taken from the query string.
func MemberID(id string) error {
	return validate.Var(id, "required,uuid")
}
