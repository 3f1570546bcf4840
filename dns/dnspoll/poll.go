// Copyright (c) 2026 the acmetool-hook-dns authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dnspoll confirms that a record change has propagated to a
// zone's authoritative nameservers before control returns to the ACME
// client.
//
// See the top-level package for general documentation.
package dnspoll

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultTimeout  = 60 * time.Second
	DefaultInterval = 2 * time.Second
)

// Logger is a subset of log.Logger.
type Logger interface {
	Printf(fmt string, args ...interface{})
}

// Resolver can inspect a specific nameserver's view of a TXT record.
type Resolver interface {
	// QueryTXT returns the TXT values of a name as seen by the given
	// server.  A nonexistent name yields an empty slice, not an error.
	QueryTXT(ctx context.Context, fqdn, server string) ([]string, error)
}

// Poller polls nameservers at a fixed interval until each one's view of
// a record converges, or a shared wall-clock budget runs out.
type Poller struct {
	Resolver Resolver
	Timeout  time.Duration // budget shared across all servers, defaults to DefaultTimeout
	Interval time.Duration // fixed poll interval, defaults to DefaultInterval

	DebugLog Logger // Defaults to nothingness
}

// Confirm blocks until every listed nameserver reports the expected
// state of fqdn: the given TXT value present, or, if value is empty, no
// TXT values at all.  Servers are checked sequentially in the given
// order.  The time budget is shared, not per server, so a slow first
// server can starve confirmation of later ones; the total wall-clock
// cost stays bounded either way.
//
// An empty server list is confirmed trivially.  On budget exhaustion
// the returned error has a Timeout() method returning true, and no
// further servers are queried.
func (p *Poller) Confirm(ctx context.Context, fqdn, value string, nameservers []string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	for _, server := range nameservers {
		if err := ctx.Err(); err != nil {
			return newTimeoutError(fqdn, server, err)
		}

		if err := p.confirmServer(ctx, fqdn, value, server); err != nil {
			return newTimeoutError(fqdn, server, err)
		}

		if p.DebugLog != nil {
			p.DebugLog.Printf("dnspoll: %s converged on %s", fqdn, server)
		}
	}

	return nil
}

func (p *Poller) confirmServer(ctx context.Context, fqdn, value, server string) error {
	check := func() error {
		values, err := p.Resolver.QueryTXT(ctx, fqdn, server)
		if err != nil {
			// Transient resolver failures don't fail the
			// confirmation; the budget bounds them.
			return err
		}

		if value == "" {
			if len(values) == 0 {
				return nil
			}
			return fmt.Errorf("%d TXT values still present", len(values))
		}

		for _, v := range values {
			if v == value {
				return nil
			}
		}
		return fmt.Errorf("expected TXT value not observed (%d values present)", len(values))
	}

	bo := backoff.WithContext(backoff.NewConstantBackOff(p.interval()), ctx)
	return backoff.Retry(check, bo)
}

func (p *Poller) timeout() time.Duration {
	if p.Timeout != 0 {
		return p.Timeout
	}
	return DefaultTimeout
}

func (p *Poller) interval() time.Duration {
	if p.Interval != 0 {
		return p.Interval
	}
	return DefaultInterval
}
