package billing

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSelection    = errors.New("price is not offered for the selected test")
	ErrIncompleteSelection = errors.New("please select a test and price")
	ErrIndexOutOfRange     = errors.New("test index out of range")
	ErrUnknownField        = errors.New("unknown patient field")
	ErrUnknownDoctor       = errors.New("doctor is not on the roster")
	ErrSessionNotFound     = errors.New("billing session not found")
	ErrValidation          = errors.New("billing record is incomplete")
)

// Check identifies one of the completeness rules enforced by Finalize.
type Check string

const (
	CheckIdentity Check = "identity"
	CheckDoctors  Check = "doctors"
	CheckTests    Check = "tests"
)

var checkMessages = map[Check]string{
	CheckIdentity: "Please fill all patient details",
	CheckDoctors:  "Please select at least one referring doctor",
	CheckTests:    "Please add at least one diagnostic test",
}

// ValidationError reports the first completeness rule a record failed.
type ValidationError struct {
	Check Check
}

func (e *ValidationError) Error() string {
	if msg, ok := checkMessages[e.Check]; ok {
		return msg
	}
	return fmt.Sprintf("validation failed: %s", e.Check)
}

// Is lets callers match any ValidationError with errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
