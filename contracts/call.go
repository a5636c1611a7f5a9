package contracts

import (
	"context"
	"reflect"
)

// CallRequest is the wire-agnostic envelope for a single forwarded call.
type CallRequest struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Data    []byte `json:"data,omitempty"`
}

// CallResponse carries the encoded result of a forwarded call.
type CallResponse struct {
	Data []byte `json:"data,omitempty"`
}

// Caller is the call-forwarding behavior of a remote-call proxy.
type Caller interface {
	// Call forwards a single request to the remote service and blocks until
	// the response arrives, the context is done, or the transport faults.
	Call(ctx context.Context, req *CallRequest) (*CallResponse, error)
}

// RemoteProxy marks a value as a genuine remote-call proxy. The interception
// core only ever asks whether a candidate satisfies this interface and
// whether it supports a given contract type; it performs no open-ended
// reflection on the proxy itself.
type RemoteProxy interface {
	Caller

	// ServiceName returns the remote service this proxy forwards to.
	ServiceName() string

	// SupportsContract reports whether the remote side backs the methods of
	// the given contract struct type.
	SupportsContract(contract reflect.Type) bool
}
