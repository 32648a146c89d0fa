package triage

import (
	"errors"
	"fmt"

	"github.com/triagekit/triage/pkg/queue"
)

var (
	// ErrInvalidName indicates an empty, overlong or multi-word patient name
	ErrInvalidName = errors.New("invalid patient name")

	// ErrSeverityOutOfRange indicates a severity outside the configured scale
	ErrSeverityOutOfRange = queue.ErrInvalidPriority
)

// PatientError records which operation failed for which patient
type PatientError struct {
	Op   string
	Name string
	Err  error
}

func (e *PatientError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Name, e.Err)
}

func (e *PatientError) Unwrap() error {
	return e.Err
}

// Describe turns a desk error into the message shown at the front desk
func (d *Desk) Describe(err error) string {
	if err == nil {
		return ""
	}

	name := ""
	var pe *PatientError
	if errors.As(err, &pe) {
		name = pe.Name
	}

	switch {
	case errors.Is(err, queue.ErrCapacityExceeded):
		return "The queue is full. No more patients can be admitted."
	case errors.Is(err, queue.ErrEmpty):
		return "No patients in the queue."
	case errors.Is(err, queue.ErrNotFound):
		return fmt.Sprintf("Patient %s not found.", name)
	case errors.Is(err, queue.ErrDuplicateID):
		return fmt.Sprintf("Patient %s is already waiting.", name)
	case errors.Is(err, ErrSeverityOutOfRange):
		b := d.Bounds()
		return fmt.Sprintf("Invalid severity. Please enter a severity between %d and %d.", b.MinSeverity, b.MaxSeverity)
	case errors.Is(err, ErrInvalidName):
		return fmt.Sprintf("Invalid patient name %q.", name)
	}
	return err.Error()
}
