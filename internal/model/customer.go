package model

import (
	"fmt"
	"regexp"
)

// Customer is a guest known to the hotel system.  Customers are owned by
// the customer registry and are identified by a caller-chosen ID.
//
// Fields:
//
//	CustomerID – unique identifier of the customer.
//	Name       – display name; never blank.
//	Email      – contact address in local@domain.tld form.
type Customer struct {
	CustomerID string `json:"customer_id" validate:"required"` // customers[].customer_id
	Name       string `json:"name" validate:"required"`        // customers[].name
	Email      string `json:"email" validate:"required"`       // customers[].email
}

// emailPattern accepts letters, digits and ._%+- in the local part, a
// dot-separated domain and a TLD of at least two letters.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether email matches the local@domain.tld pattern.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func (c Customer) String() string {
	return fmt.Sprintf("Customer ID: %s, Name: %s, Email: %s", c.CustomerID, c.Name, c.Email)
}
