package config

import (
	"fmt"
	"net/url"
)

// ValidateURL validates that a string is a valid absolute URL.
func ValidateURL(urlStr string, fieldName string) error {
	if urlStr == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", fieldName, err)
	}

	if parsed.Scheme == "" {
		return fmt.Errorf("%s must include a scheme (http/https)", fieldName)
	}

	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", fieldName)
	}

	return nil
}

// ValidateThreshold validates the dry-run confirmation threshold.
func ValidateThreshold(threshold int) error {
	if threshold < 0 {
		return fmt.Errorf("dry run threshold must be >= 0, got %d", threshold)
	}
	return nil
}

// ValidateMaxTestTries validates the test polling bound.
func ValidateMaxTestTries(tries int) error {
	if tries < 1 {
		return fmt.Errorf("max test tries must be at least 1, got %d", tries)
	}
	return nil
}

// ValidateToken validates that a token is not empty.
func ValidateToken(token string, fieldName string) error {
	if token == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	return nil
}
