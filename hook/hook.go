// Copyright (c) 2026 the acmetool-hook-dns authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hook dispatches ACME client challenge events to a DNS record
// backend, and hands control back only after the change is observable
// on the zone's authoritative nameservers (or provably not, in which
// case the change is rolled back).
//
// See the top-level package for general documentation.
package hook

import (
	"context"
	"fmt"
	"strings"

	"github.com/jlneder/acmetool/dns/dnsbackend"
)

// Events recognized by Run.  Anything else is an unknown event, which
// the hook protocol requires to be distinguishable from failure.
const (
	EventChallengeDNSStart = "challenge-dns-start"
	EventChallengeDNSStop  = "challenge-dns-stop"
)

const challengeNode = "_acme-challenge"

// Logger is a subset of log.Logger.
type Logger interface {
	Printf(fmt string, args ...interface{})
}

// Resolver discovers where a challenge record must be confirmed: the
// apex of the zone containing it and the zone's nameservers.
type Resolver interface {
	FindZone(ctx context.Context, fqdn string) (string, error)
	QueryNS(ctx context.Context, zone string) ([]string, error)
}

// Confirmer blocks until the nameservers' views of a record converge to
// the expected state, or a time budget runs out.  An empty value means
// absence is expected.
type Confirmer interface {
	Confirm(ctx context.Context, fqdn, value string, nameservers []string) error
}

// Hook ties a record backend, a resolver, and a propagation confirmer
// into the challenge lifecycle.  It assumes exclusive access to the
// backend for the duration of a Run: the ACME client serializes
// challenge invocations.
type Hook struct {
	Backend  dnsbackend.Backend
	Resolver Resolver
	Poller   Confirmer

	DebugLog Logger // Defaults to nothingness
}

// Run handles one challenge event.  An unrecognized event yields an
// UnknownEventError without touching the backend.
func (h *Hook) Run(ctx context.Context, event, hostname, value string) error {
	switch event {
	case EventChallengeDNSStart:
		return h.start(ctx, hostname, value)

	case EventChallengeDNSStop:
		return h.stop(ctx, hostname, value)

	default:
		return &UnknownEventError{Event: event}
	}
}

// ChallengeFQDN returns the name of the TXT record asserting a
// challenge for a hostname.
func ChallengeFQDN(hostname string) string {
	return challengeNode + "." + strings.TrimSuffix(hostname, ".") + "."
}

// start asserts the challenge record and confirms its presence.  If
// confirmation times out, the record is removed again before the
// failure is reported, so the backend doesn't accumulate stale
// records.
func (h *Hook) start(ctx context.Context, hostname, value string) error {
	fqdn := ChallengeFQDN(hostname)

	values, err := h.Backend.ReadTXT(ctx, fqdn)
	if err != nil {
		return fmt.Errorf("hook: reading %s: %w", fqdn, err)
	}

	for _, v := range values {
		if v == value {
			h.debugf("hook: %s already asserts the challenge value", fqdn)
			return nil
		}
	}

	if err := h.Backend.AddTXT(ctx, fqdn, value); err != nil {
		return fmt.Errorf("hook: adding %s: %w", fqdn, err)
	}
	if err := h.Backend.Commit(ctx); err != nil {
		return fmt.Errorf("hook: committing %s: %w", fqdn, err)
	}

	if err := h.confirm(ctx, fqdn, value); err != nil {
		return h.revert(ctx, fqdn, err, func(ctx context.Context) error {
			return h.Backend.RemoveTXT(ctx, fqdn, value)
		})
	}
	return nil
}

// stop retracts the challenge record and confirms its absence.  If
// confirmation times out, the record is put back: the caller could not
// observe the removal, so reporting success would leave the backend and
// the reported state inconsistent.
func (h *Hook) stop(ctx context.Context, hostname, value string) error {
	fqdn := ChallengeFQDN(hostname)

	if err := h.Backend.RemoveTXT(ctx, fqdn, value); err != nil {
		return fmt.Errorf("hook: removing %s: %w", fqdn, err)
	}
	if err := h.Backend.Commit(ctx); err != nil {
		return fmt.Errorf("hook: committing %s: %w", fqdn, err)
	}

	if err := h.confirm(ctx, fqdn, ""); err != nil {
		return h.revert(ctx, fqdn, err, func(ctx context.Context) error {
			return h.Backend.AddTXT(ctx, fqdn, value)
		})
	}
	return nil
}

// confirm resolves the zone and its nameservers, freshly per
// operation, and waits for convergence.  Servers are confirmed in the
// order the NS lookup returned them.
func (h *Hook) confirm(ctx context.Context, fqdn, value string) error {
	zone, err := h.Resolver.FindZone(ctx, fqdn)
	if err != nil {
		return fmt.Errorf("hook: resolving zone of %s: %w", fqdn, err)
	}

	servers, err := h.Resolver.QueryNS(ctx, zone)
	if err != nil {
		return fmt.Errorf("hook: resolving nameservers of %s: %w", zone, err)
	}

	h.debugf("hook: confirming %s on %d nameservers of %s", fqdn, len(servers), zone)
	return h.Poller.Confirm(ctx, fqdn, value, servers)
}

// revert applies a compensating mutation after a failed confirmation.
// Best effort: a failure of the compensation itself is reported
// alongside the original error, and not retried.
func (h *Hook) revert(ctx context.Context, fqdn string, cause error, undo func(context.Context) error) error {
	if err := undo(ctx); err != nil {
		return &RevertError{Cause: cause, Revert: fmt.Errorf("hook: reverting %s: %w", fqdn, err)}
	}
	if err := h.Backend.Commit(ctx); err != nil {
		return &RevertError{Cause: cause, Revert: fmt.Errorf("hook: recommitting %s: %w", fqdn, err)}
	}

	h.debugf("hook: reverted %s after failed confirmation", fqdn)
	return cause
}

func (h *Hook) debugf(format string, args ...interface{}) {
	if h.DebugLog != nil {
		h.DebugLog.Printf(format, args...)
	}
}
