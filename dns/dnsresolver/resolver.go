// Copyright (c) 2026 the acmetool-hook-dns authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dnsresolver queries TXT, NS, and SOA records, against either
// a default recursor or an explicitly named server.
//
// See the top-level package for general documentation.
package dnsresolver

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const (
	DefaultTimeout = 10 * time.Second

	resolvConf = "/etc/resolv.conf"
)

// Resolver resolves names with plain DNS queries.  The zero value uses
// the system recursor from /etc/resolv.conf.
type Resolver struct {
	Server  string        // default server as host or host:port; resolv.conf when empty
	Timeout time.Duration // per-query timeout, defaults to DefaultTimeout
}

// New creates a resolver.  If server is empty, the first nameserver
// from /etc/resolv.conf is used.
func New(server string) (*Resolver, error) {
	if server == "" {
		config, err := dns.ClientConfigFromFile(resolvConf)
		if err != nil {
			return nil, fmt.Errorf("dnsresolver: reading %s: %w", resolvConf, err)
		}
		if len(config.Servers) == 0 {
			return nil, fmt.Errorf("dnsresolver: no nameservers in %s", resolvConf)
		}
		server = net.JoinHostPort(config.Servers[0], config.Port)
	}

	return &Resolver{Server: server}, nil
}

// QueryTXT returns the TXT values of a name as seen by the given
// server, or by the default server if it is empty.  A nonexistent name
// yields an empty slice.
func (r *Resolver) QueryTXT(ctx context.Context, fqdn, server string) ([]string, error) {
	in, err := r.query(ctx, fqdn, dns.TypeTXT, server)
	if err != nil {
		return nil, err
	}

	var values []string
	for _, rr := range in.Answer {
		if txt, ok := rr.(*dns.TXT); ok {
			values = append(values, strings.Join(txt.Txt, ""))
		}
	}
	return values, nil
}

// QueryNS returns the authoritative nameserver names of a zone, in the
// order the default server lists them.
func (r *Resolver) QueryNS(ctx context.Context, zone string) ([]string, error) {
	in, err := r.query(ctx, zone, dns.TypeNS, "")
	if err != nil {
		return nil, err
	}

	var servers []string
	for _, rr := range in.Answer {
		if ns, ok := rr.(*dns.NS); ok {
			servers = append(servers, strings.TrimSuffix(ns.Ns, "."))
		}
	}
	return servers, nil
}

// FindZone walks up the label sequence of fqdn and returns the first
// suffix that answers with an SOA record and no CNAME, i.e. the apex of
// the zone containing the name.
func (r *Resolver) FindZone(ctx context.Context, fqdn string) (string, error) {
	labels := dns.SplitDomainName(dns.Fqdn(fqdn))

	for i := range labels {
		candidate := dns.Fqdn(strings.Join(labels[i:], "."))

		in, err := r.query(ctx, candidate, dns.TypeSOA, "")
		if err != nil {
			return "", err
		}

		// A CNAME at this suffix means it cannot be a zone apex.
		if hasType(in.Answer, dns.TypeCNAME) {
			continue
		}

		for _, rr := range in.Answer {
			if soa, ok := rr.(*dns.SOA); ok {
				return soa.Hdr.Name, nil
			}
		}
	}

	return "", newZoneError(dns.Fqdn(fqdn), r.Server)
}

func (r *Resolver) query(ctx context.Context, name string, qtype uint16, server string) (*dns.Msg, error) {
	if server == "" {
		server = r.Server
	}

	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), qtype)
	m.RecursionDesired = true

	timeout := r.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	c := &dns.Client{Timeout: timeout}

	addr := serverAddr(server)

	in, _, err := c.ExchangeContext(ctx, m, addr)
	if err != nil {
		return nil, fmt.Errorf("dnsresolver: %s %s @%s: %w", dns.TypeToString[qtype], name, addr, err)
	}
	if in.Truncated {
		c.Net = "tcp"
		in, _, err = c.ExchangeContext(ctx, m, addr)
		if err != nil {
			return nil, fmt.Errorf("dnsresolver: %s %s @%s: %w", dns.TypeToString[qtype], name, addr, err)
		}
	}

	switch in.Rcode {
	case dns.RcodeSuccess, dns.RcodeNameError:
		return in, nil
	default:
		return nil, fmt.Errorf("dnsresolver: %s %s @%s: %s", dns.TypeToString[qtype], name, addr, dns.RcodeToString[in.Rcode])
	}
}

func hasType(answers []dns.RR, qtype uint16) bool {
	for _, rr := range answers {
		if rr.Header().Rrtype == qtype {
			return true
		}
	}
	return false
}

func serverAddr(server string) string {
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	return net.JoinHostPort(server, "53")
}
