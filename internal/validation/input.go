package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Field limits.
const (
	MinUsernameLength     = 3
	MaxUsernameLength     = 30
	MinTitleLength        = 3
	MaxTitleLength        = 200
	MinDescriptionLength  = 10
	MaxDescriptionLength  = 5000
	MinOfferMessageLength = 1
	MaxOfferMessageLength = 5000
	MaxMaterialsLength    = 2000
	MaxScopeLength        = 2000
	MaxCancellationReason = 1000
	MinPrice              = 0.0
	MaxPrice              = 100000000.0
)

// Wire formats for negotiated date and time fields.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// ValidateLength checks a string's length in runes.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s must be at most %d characters", fieldName, max)
	}
	return nil
}

// ValidateEmail checks the email format.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}

	email = strings.TrimSpace(email)
	email = strings.ToLower(email)

	if !strings.Contains(email, "@") {
		return fmt.Errorf("email must contain @")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("malformed email")
	}

	localPart := parts[0]
	domainPart := parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("email local part must be 1 to 64 characters")
	}

	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("email domain must be 1 to 255 characters")
	}

	if !strings.Contains(domainPart, ".") {
		return fmt.Errorf("email domain must contain a dot")
	}

	localRegex := regexp.MustCompile(`^[a-z0-9._+-]+$`)
	if !localRegex.MatchString(localPart) {
		return fmt.Errorf("email local part contains invalid characters")
	}

	domainRegex := regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	if !domainRegex.MatchString(domainPart) {
		return fmt.Errorf("email domain is malformed")
	}

	return nil
}

// ValidateNonEmpty checks that a string is not blank.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s must not be empty", fieldName)
	}
	return nil
}

// ValidatePrice checks a negotiated or proposed price.
func ValidatePrice(price float64) error {
	if price <= MinPrice {
		return fmt.Errorf("price must be positive")
	}
	if price > MaxPrice {
		return fmt.Errorf("price must be at most %.0f", MaxPrice)
	}
	return nil
}

// ValidateDate checks a negotiated service date.
func ValidateDate(value string) error {
	if _, err := time.Parse(DateLayout, value); err != nil {
		return fmt.Errorf("date must be in YYYY-MM-DD format")
	}
	return nil
}

// ValidateTime checks a negotiated service time of day.
func ValidateTime(value string) error {
	if _, err := time.Parse(TimeLayout, value); err != nil {
		return fmt.Errorf("time must be in HH:MM format")
	}
	return nil
}

// ValidateMaterials checks the negotiated materials description.
func ValidateMaterials(value string) error {
	return ValidateLength("materials", value, 0, MaxMaterialsLength)
}

// ValidateScope checks the negotiated scope description.
func ValidateScope(value string) error {
	return ValidateLength("scope", value, 0, MaxScopeLength)
}
