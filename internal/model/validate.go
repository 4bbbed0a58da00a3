package model

import "github.com/go-playground/validator/v10"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tags of a decoded record (required IDs, room
// capacities, nested stays).  Business rules such as email format, date
// order and overlap are enforced by the repositories, not here.
func Validate(record any) error {
	return validate.Struct(record)
}
