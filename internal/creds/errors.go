package creds

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is returned when an entry contains characters the file format
// cannot represent.
var ErrMalformed = errors.New("username or password contains illegal characters")

// MalformedError identifies the entry that failed validation
type MalformedError struct {
	Username string
	Reason   string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed credential for %q: %s", e.Username, e.Reason)
}

// Is reports whether target is ErrMalformed
func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

// ValidEntry checks that a username/password pair can be written to and read
// back from a credentials file unchanged.
func ValidEntry(username, password string) error {
	switch {
	case strings.Contains(username, ":"):
		return &MalformedError{Username: username, Reason: "username contains ':'"}
	case strings.Contains(username, "\n"):
		return &MalformedError{Username: username, Reason: "username contains a newline"}
	case strings.Contains(password, "\n"):
		return &MalformedError{Username: username, Reason: "password contains a newline"}
	}
	return nil
}

// Validate checks every entry without writing anything.
// It returns the first offending entry in insertion order.
func (s *Store) Validate() error {
	for _, e := range s.entries {
		if err := ValidEntry(e.username, e.password); err != nil {
			return err
		}
	}
	return nil
}
