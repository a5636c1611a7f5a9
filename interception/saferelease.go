package interception

import (
	"github.com/ferrule/intercede-go/contracts"
)

// Close disposes the underlying remote-call proxy. Disposal reaches the
// target exactly once, no matter how many bound contract views invoke it;
// later calls return the first outcome.
//
// With safe release enabled, disposal of a target whose channel is already
// closed or faulted is suppressed, so a secondary invalid-state fault cannot
// mask the original failure. Without it, disposal forwards unconditionally
// and any resulting fault propagates to the caller.
func (p *Proxy) Close() error {
	p.releaseOnce.Do(func() {
		p.releaseErr = p.release()
	})
	return p.releaseErr
}

func (p *Proxy) release() error {
	releaser, ok := p.target.(contracts.Releaser)
	if !ok {
		return nil
	}

	if p.safeRelease {
		if stater, ok := p.target.(contracts.ChannelStater); ok {
			if state := stater.ChannelState(); state == contracts.ChannelClosed || state == contracts.ChannelFaulted {
				p.logger.Debug("suppressing disposal of terminated channel",
					"service", p.target.ServiceName(),
					"state", state.String(),
				)
				return nil
			}
		}
	}
	return releaser.Close()
}
