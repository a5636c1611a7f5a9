// Package contracts defines the shared contracts between the interception
// core and the remote-call layer.
//
// A remote-call proxy is a local stand-in that forwards method calls to a
// remote service. The interception core never talks to a transport directly;
// it only consumes the small set of capabilities defined here:
//   - Caller: the call-forwarding behavior of the proxy
//   - RemoteProxy: the capability marker identifying a genuine proxy and the
//     contracts its remote side backs
//   - ChannelStater: the per-instance channel state query used by the
//     safe-release policy
//   - Releaser: the disposal surface
//
// Service contracts themselves are pointers to structs whose exported fields
// are funcs taking a context.Context first and returning an error last. The
// interception core populates those fields with generated stubs.
package contracts
