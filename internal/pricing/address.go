package pricing

import (
	"fmt"
	"regexp"
	"strings"
)

// Address is the shipping destination supplied at checkout.
type Address struct {
	FullName   string `json:"full_name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every field violation found, so the caller can
// surface them all at once instead of one at a time.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

var (
	postalCodeRe = regexp.MustCompile(`^[0-9]{5}$`)
	mobileRe     = regexp.MustCompile(`^(\+62|62|0)8[0-9]{7,11}$`)
)

// ValidateAddress checks the destination before any pricing happens. Any
// violation blocks progression to payment; no partial submission is accepted.
func ValidateAddress(a Address) *ValidationError {
	var fields []FieldError

	if strings.TrimSpace(a.FullName) == "" {
		fields = append(fields, FieldError{Field: "full_name", Message: "full name is required"})
	}
	if len(strings.TrimSpace(a.Street)) < 10 {
		fields = append(fields, FieldError{Field: "street", Message: "street must be at least 10 characters"})
	}
	if len(strings.TrimSpace(a.City)) < 3 {
		fields = append(fields, FieldError{Field: "city", Message: "city must be at least 3 characters"})
	}
	if !postalCodeRe.MatchString(a.PostalCode) {
		fields = append(fields, FieldError{Field: "postal_code", Message: "postal code must be 5 digits"})
	}
	if !mobileRe.MatchString(a.Phone) {
		fields = append(fields, FieldError{Field: "phone", Message: "phone must be a valid mobile number"})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
