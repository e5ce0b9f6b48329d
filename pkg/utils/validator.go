package utils

import (
	"fmt"
	"regexp"
)

var phoneRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// ValidatePhone validates a tenant contact number
func ValidatePhone(phone string) error {
	if !phoneRegex.MatchString(phone) {
		return fmt.Errorf("invalid phone format: %s", phone)
	}
	return nil
}
