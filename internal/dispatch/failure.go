package dispatch

import (
	"errors"

	"github.com/mark3labs/openapi-actions/internal/fault"
)

// Failure is the caller-facing shape of a dispatch error. Boundaries serialize
// it instead of letting faults escape as process crashes.
type Failure struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// FailureFrom converts any error into a structured Failure. Errors outside
// the fault taxonomy are reported as transport failures.
func FailureFrom(err error) Failure {
	var fe *fault.Error
	if errors.As(err, &fe) {
		return Failure{Type: string(fe.Kind), Message: fe.Message}
	}
	return Failure{Type: string(fault.Transport), Message: err.Error()}
}
