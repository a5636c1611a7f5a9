package contracts

import "fmt"

// CallError represents a failure reported by the remote side of a call, as
// opposed to a local transport fault.
type CallError struct {
	Service string
	Method  string
	Message string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("remote call %s/%s failed: %s", e.Service, e.Method, e.Message)
}
