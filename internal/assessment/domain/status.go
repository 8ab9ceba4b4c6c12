package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ManualTestStatus is the state a person assigns to a requirement.
type ManualTestStatus int

const (
	StatusUnknown ManualTestStatus = iota
	StatusPass
	StatusFail
)

// ErrInvalidStatus is returned when parsing an unrecognized status.
var ErrInvalidStatus = errors.New("assessment: invalid manual test status")

func (s ManualTestStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// ParseManualTestStatus parses UNKNOWN, PASS or FAIL, case-insensitively.
func ParseManualTestStatus(s string) (ManualTestStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "UNKNOWN":
		return StatusUnknown, nil
	case "PASS":
		return StatusPass, nil
	case "FAIL":
		return StatusFail, nil
	}
	return StatusUnknown, fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

func (s ManualTestStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ManualTestStatus) UnmarshalText(b []byte) error {
	v, err := ParseManualTestStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
