package acmetool

import (
	"context"
	"time"

	"github.com/go-acme/lego/v4/challenge/dns01"

	"github.com/jlneder/acmetool/dns/dnspoll"
	"github.com/jlneder/acmetool/hook"
)

// Provider can solve ACME dns-01 challenges with any record backend,
// confirming propagation before the ACME client is allowed to proceed.
// Implements lego's challenge.Provider.
type Provider struct {
	hook *hook.Hook
}

func NewProvider(h *hook.Hook) *Provider {
	return &Provider{h}
}

func (p *Provider) Present(domain, token, keyAuth string) error {
	info := dns01.GetChallengeInfo(domain, keyAuth)
	return p.hook.Run(context.Background(), hook.EventChallengeDNSStart, domain, info.Value)
}

func (p *Provider) CleanUp(domain, token, keyAuth string) error {
	info := dns01.GetChallengeInfo(domain, keyAuth)
	return p.hook.Run(context.Background(), hook.EventChallengeDNSStop, domain, info.Value)
}

// Timeout tells lego how long to wait for propagation on its side.  The
// hook already confirms convergence itself, so this only needs to cover
// recursor caching between the authoritative servers and the CA.
func (p *Provider) Timeout() (timeout, interval time.Duration) {
	return dnspoll.DefaultTimeout, dnspoll.DefaultInterval
}
