package layout

import (
	"errors"
	"fmt"
)

// ErrAllocationExhausted is returned when the address allocator cannot
// find a free endpoint within its bounded search window.
var ErrAllocationExhausted = errors.New("layout: address allocation exhausted")

// ErrHashCollision is returned when two distinct node ids hash to the
// same stable numeric id within one layout.
var ErrHashCollision = errors.New("layout: node id hash collision")

// ValidationError reports a configuration problem found while resolving
// a Layout: an unknown service_type, an unsatisfied required input, or a
// mismatched edge. The supervisor does not tell it apart from any other
// Resolve error: the layout stays pending and is resolved again on the
// next ServiceDiscovered or DeployRequested event, so a mismatched edge
// is retried the same way as a service_type not yet discovered.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "layout: " + e.Reason }

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
