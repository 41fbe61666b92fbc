// Package validation checks user-supplied request parameters at the API
// boundary before they reach the engine, the database, or object storage.
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// DonorIDLength is the length of the anonymous donor handle (the first
	// eight hex digits of a UUID).
	DonorIDLength = 8

	// MaxFileNameLength caps upload file names.
	MaxFileNameLength = 255

	// MaxExtraKeys caps the number of user-chosen additional redact keys.
	MaxExtraKeys = 500

	// MaxExtraKeyLength caps a single additional redact key.
	MaxExtraKeyLength = 512
)

// ValidateDonorID checks an anonymous donor handle: exactly eight lowercase
// hex characters.
func ValidateDonorID(id string) error {
	if id == "" {
		return fmt.Errorf("donor_id is required")
	}
	if len(id) != DonorIDLength {
		return fmt.Errorf("donor_id must be exactly %d characters", DonorIDLength)
	}
	for _, r := range id {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return fmt.Errorf("donor_id must be lowercase hexadecimal")
		}
	}
	return nil
}

// ValidateFileName checks an upload file name for length, UTF-8 validity,
// and path traversal.
func ValidateFileName(name string) error {
	if name == "" {
		return fmt.Errorf("file_name is required")
	}
	if len(name) > MaxFileNameLength {
		return fmt.Errorf("file_name must be at most %d characters", MaxFileNameLength)
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("file_name must be valid UTF-8")
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return fmt.Errorf("file_name must not contain path separators")
	}
	return nil
}

// ValidateExtraKeys checks the user-chosen additional redact keys.
func ValidateExtraKeys(keys []string) error {
	if len(keys) > MaxExtraKeys {
		return fmt.Errorf("at most %d extra keys allowed", MaxExtraKeys)
	}
	for _, k := range keys {
		if len(k) > MaxExtraKeyLength {
			return fmt.Errorf("extra key exceeds %d characters", MaxExtraKeyLength)
		}
		if !utf8.ValidString(k) {
			return fmt.Errorf("extra keys must be valid UTF-8")
		}
	}
	return nil
}
