// Copyright (c) 2026 the acmetool-hook-dns authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rfc2136 mutates records on a primary nameserver with standard
// dynamic updates (RFC 2136), optionally authenticated with TSIG.
// Updates take effect on the primary as soon as the server acknowledges
// them, so Commit is a no-op; secondaries catch up via NOTIFY, which the
// propagation poller observes.
package rfc2136

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-acme/lego/v4/platform/config/env"
	"github.com/miekg/dns"

	"github.com/jlneder/acmetool/dns/dnsbackend"
)

// Environment variables consulted when the corresponding setting is
// absent.  The names follow lego's rfc2136 provider.
const (
	EnvNameserver    = "RFC2136_NAMESERVER"
	EnvZone          = "RFC2136_ZONE"
	EnvTSIGKey       = "RFC2136_TSIG_KEY"
	EnvTSIGSecret    = "RFC2136_TSIG_SECRET"
	EnvTSIGAlgorithm = "RFC2136_TSIG_ALGORITHM"
)

const (
	DefaultTTL     = 60
	DefaultTimeout = 10 * time.Second
)

func init() {
	dnsbackend.Register("rfc2136", func(settings map[string]string) (dnsbackend.Backend, error) {
		return New(settings)
	})
}

// Backend sends dynamic updates to a single primary nameserver.
type Backend struct {
	Nameserver    string // host or host:port of the primary
	Zone          string // zone to update; discovered per name when empty
	TSIGKey       string
	TSIGSecret    string
	TSIGAlgorithm string // defaults to hmac-sha256
	TTL           uint32
	Timeout       time.Duration

	// FindZone discovers the zone of a record name when Zone is empty.
	// Typically wired to dnsresolver.Resolver.FindZone.
	FindZone func(ctx context.Context, fqdn string) (string, error)
}

// New creates an rfc2136 backend from a settings map.  Recognized keys:
// nameserver, zone, tsig_key, tsig_secret, tsig_algorithm, ttl, timeout.
// Missing keys fall back to the RFC2136_* environment variables.
func New(settings map[string]string) (*Backend, error) {
	b := &Backend{
		Nameserver:    setting(settings, "nameserver", EnvNameserver),
		Zone:          setting(settings, "zone", EnvZone),
		TSIGKey:       setting(settings, "tsig_key", EnvTSIGKey),
		TSIGSecret:    setting(settings, "tsig_secret", EnvTSIGSecret),
		TSIGAlgorithm: setting(settings, "tsig_algorithm", EnvTSIGAlgorithm),
	}

	if b.Nameserver == "" {
		return nil, errors.New("rfc2136: nameserver not configured")
	}
	if (b.TSIGKey == "") != (b.TSIGSecret == "") {
		return nil, errors.New("rfc2136: tsig_key and tsig_secret must both be specified or empty")
	}
	if b.TSIGAlgorithm != "" {
		if _, err := tsigAlgorithm(b.TSIGAlgorithm); err != nil {
			return nil, err
		}
	}

	if v := settings["ttl"]; v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("rfc2136: invalid ttl %q: %w", v, err)
		}
		b.TTL = uint32(n)
	}

	if v := settings["timeout"]; v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("rfc2136: invalid timeout %q: %w", v, err)
		}
		b.Timeout = d
	}

	return b, nil
}

func setting(settings map[string]string, key, envKey string) string {
	if v := settings[key]; v != "" {
		return v
	}
	return env.GetOrDefaultString(envKey, "")
}

func tsigAlgorithm(name string) (string, error) {
	switch dns.Fqdn(strings.ToLower(name)) {
	case dns.HmacSHA1:
		return dns.HmacSHA1, nil
	case dns.HmacSHA224:
		return dns.HmacSHA224, nil
	case dns.HmacSHA256, ".":
		return dns.HmacSHA256, nil
	case dns.HmacSHA384:
		return dns.HmacSHA384, nil
	case dns.HmacSHA512:
		return dns.HmacSHA512, nil
	default:
		return "", fmt.Errorf("rfc2136: unsupported TSIG algorithm %q", name)
	}
}

func (b *Backend) AddTXT(ctx context.Context, fqdn, value string) error {
	zone, err := b.zone(ctx, fqdn)
	if err != nil {
		return err
	}

	m := new(dns.Msg)
	m.SetUpdate(zone)
	m.Insert([]dns.RR{b.txt(fqdn, value)})

	return b.exchange(ctx, m)
}

func (b *Backend) RemoveTXT(ctx context.Context, fqdn, value string) error {
	zone, err := b.zone(ctx, fqdn)
	if err != nil {
		return err
	}

	m := new(dns.Msg)
	m.SetUpdate(zone)
	m.Remove([]dns.RR{b.txt(fqdn, value)})

	return b.exchange(ctx, m)
}

// ReadTXT queries the primary directly, bypassing recursors, so it
// reflects committed state without propagation delay.
func (b *Backend) ReadTXT(ctx context.Context, fqdn string) ([]string, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(fqdn), dns.TypeTXT)

	in, _, err := b.client().ExchangeContext(ctx, m, b.addr())
	if err != nil {
		return nil, fmt.Errorf("rfc2136: query %s: %w", fqdn, err)
	}
	if in.Rcode != dns.RcodeSuccess && in.Rcode != dns.RcodeNameError {
		return nil, fmt.Errorf("rfc2136: query %s: %s", fqdn, dns.RcodeToString[in.Rcode])
	}

	var values []string
	for _, rr := range in.Answer {
		if txt, ok := rr.(*dns.TXT); ok {
			values = append(values, strings.Join(txt.Txt, ""))
		}
	}
	return values, nil
}

// Commit implements dnsbackend.Backend.  Dynamic updates publish
// immediately.
func (b *Backend) Commit(ctx context.Context) error {
	return nil
}

func (b *Backend) zone(ctx context.Context, fqdn string) (string, error) {
	if b.Zone != "" {
		return dns.Fqdn(b.Zone), nil
	}
	if b.FindZone == nil {
		return "", errors.New("rfc2136: zone not configured and no zone finder wired")
	}

	zone, err := b.FindZone(ctx, fqdn)
	if err != nil {
		return "", fmt.Errorf("rfc2136: discovering zone of %s: %w", fqdn, err)
	}
	return dns.Fqdn(zone), nil
}

func (b *Backend) txt(fqdn, value string) *dns.TXT {
	ttl := b.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}

	return &dns.TXT{
		Hdr: dns.RR_Header{
			Name:   dns.Fqdn(fqdn),
			Rrtype: dns.TypeTXT,
			Class:  dns.ClassINET,
			Ttl:    ttl,
		},
		Txt: []string{value},
	}
}

func (b *Backend) exchange(ctx context.Context, m *dns.Msg) error {
	c := b.client()

	if b.TSIGKey != "" {
		alg, err := tsigAlgorithm(b.TSIGAlgorithm)
		if err != nil {
			return err
		}
		m.SetTsig(dns.Fqdn(b.TSIGKey), alg, 300, time.Now().Unix())
		c.TsigSecret = map[string]string{dns.Fqdn(b.TSIGKey): b.TSIGSecret}
	}

	in, _, err := c.ExchangeContext(ctx, m, b.addr())
	if err != nil {
		return fmt.Errorf("rfc2136: update via %s: %w", b.Nameserver, err)
	}
	if in.Rcode != dns.RcodeSuccess {
		return fmt.Errorf("rfc2136: update via %s refused: %s", b.Nameserver, dns.RcodeToString[in.Rcode])
	}
	return nil
}

func (b *Backend) client() *dns.Client {
	timeout := b.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &dns.Client{Net: "tcp", Timeout: timeout}
}

func (b *Backend) addr() string {
	if _, _, err := net.SplitHostPort(b.Nameserver); err == nil {
		return b.Nameserver
	}
	return net.JoinHostPort(b.Nameserver, "53")
}
