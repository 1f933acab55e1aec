package environment

import (
	"fmt"
	"regexp"
)

// MaxNameLength is the maximum length of an environment name.
// The limit keeps names usable as hostnames and directory names.
const MaxNameLength = 63

// namePattern matches lowercase alphanumeric segments separated by single
// hyphens. Leading and trailing hyphens are rejected by construction.
var namePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Name is a validated environment identifier. A Name is unique per deployment
// target and immutable once created. Use NewName to construct one; the zero
// value is not a valid name.
type Name string

// NewName validates raw and returns it as a Name.
func NewName(raw string) (Name, error) {
	if raw == "" {
		return "", &InvalidNameError{Value: raw, Reason: "name is empty"}
	}
	if len(raw) > MaxNameLength {
		return "", &InvalidNameError{
			Value:  raw,
			Reason: fmt.Sprintf("name is %d characters, maximum is %d", len(raw), MaxNameLength),
		}
	}
	if !namePattern.MatchString(raw) {
		return "", &InvalidNameError{
			Value:  raw,
			Reason: "only lowercase letters, digits and interior hyphens are allowed",
		}
	}
	return Name(raw), nil
}

// String returns the name as a plain string.
func (n Name) String() string { return string(n) }

// InvalidNameError reports a malformed environment name.
type InvalidNameError struct {
	Value  string
	Reason string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid environment name %q: %s (valid examples: dev, staging, e2e-full)",
		e.Value, e.Reason)
}
