package contracts

// ChannelState describes the lifecycle state of the transport channel behind
// a remote-call proxy.
type ChannelState int

const (
	// ChannelOpen means the channel is usable.
	ChannelOpen ChannelState = iota
	// ChannelClosed means the channel completed an orderly shutdown.
	ChannelClosed
	// ChannelFaulted means the channel terminated abnormally.
	ChannelFaulted
)

// String returns a human-readable state name.
func (s ChannelState) String() string {
	switch s {
	case ChannelOpen:
		return "open"
	case ChannelClosed:
		return "closed"
	case ChannelFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// ChannelStater exposes the channel state of a remote-call proxy. The
// safe-release policy consults it before forwarding disposal.
type ChannelStater interface {
	ChannelState() ChannelState
}

// Releaser is the disposal surface of a remote-call proxy.
type Releaser interface {
	Close() error
}
