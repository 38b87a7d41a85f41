package config

import (
	"fmt"
	"os"
	"strings"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("settings invalid: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// Validate checks Settings' required fields and cross-field constraints,
// aggregating every problem found instead of failing on the first one —
// spec §4.12: "absence [of credentials] is fatal".
func (s Settings) Validate() error {
	var errs ValidationErrors

	if s.AuthUsername == "" {
		errs.Add("AUTH_USERNAME", "is required")
	}
	if s.AuthPassword == "" {
		errs.Add("AUTH_PASSWORD", "is required")
	}
	if s.Port <= 0 || s.Port > 65535 {
		errs.Add("PORT", "must be between 1 and 65535", s.Port)
	}

	switch s.IPMode {
	case "off", "local-only", "allowlist", "":
	default:
		errs.Add("IP_MODE", "must be one of off, local-only, allowlist", s.IPMode)
	}
	if s.IPMode == "allowlist" && len(s.AllowedIPs) == 0 {
		errs.Add("ALLOWED_IPS", "must be non-empty when IP_MODE is allowlist")
	}

	if s.UseHTTPS {
		if s.TLSCertPath == "" {
			errs.Add("TLS_CERT_PATH", "is required when USE_HTTPS is enabled")
		} else if _, err := os.Stat(s.TLSCertPath); err != nil {
			errs.Add("TLS_CERT_PATH", "file is not readable: "+err.Error())
		}
		if s.TLSKeyPath == "" {
			errs.Add("TLS_KEY_PATH", "is required when USE_HTTPS is enabled")
		} else if _, err := os.Stat(s.TLSKeyPath); err != nil {
			errs.Add("TLS_KEY_PATH", "file is not readable: "+err.Error())
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
