// Copyright (c) 2026 the acmetool-hook-dns authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dnsresolver

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
)

// zoneHandler mimics a recursor's view of example.org: a zone apex
// with SOA and NS records, a TXT challenge record, and a CNAME at a
// name that must not be mistaken for an apex.
type zoneHandler struct{}

func (zoneHandler) ServeDNS(w dns.ResponseWriter, r *dns.Msg) {
	m := new(dns.Msg)
	m.SetReply(r)
	defer w.WriteMsg(m)

	if len(r.Question) != 1 {
		m.Rcode = dns.RcodeNotImplemented
		return
	}
	q := r.Question[0]

	header := func(rrtype uint16) dns.RR_Header {
		return dns.RR_Header{Name: q.Name, Rrtype: rrtype, Class: dns.ClassINET, Ttl: 60}
	}

	switch {
	case q.Qtype == dns.TypeSOA && q.Name == "example.org.":
		m.Answer = append(m.Answer, &dns.SOA{
			Hdr:    header(dns.TypeSOA),
			Ns:     "ns1.example.org.",
			Mbox:   "hostmaster.example.org.",
			Serial: 1,
		})

	case q.Name == "alias.example.org.":
		// Any query for the alias answers with the CNAME first.
		m.Answer = append(m.Answer, &dns.CNAME{
			Hdr:    header(dns.TypeCNAME),
			Target: "www.example.org.",
		})

	case q.Qtype == dns.TypeNS && q.Name == "example.org.":
		for _, ns := range []string{"ns1.example.org.", "ns2.example.org."} {
			m.Answer = append(m.Answer, &dns.NS{Hdr: header(dns.TypeNS), Ns: ns})
		}

	case q.Qtype == dns.TypeTXT && q.Name == "_acme-challenge.example.org.":
		m.Answer = append(m.Answer, &dns.TXT{
			Hdr: header(dns.TypeTXT),
			Txt: []string{"dead", "beef"},
		})

	default:
		m.Rcode = dns.RcodeNameError
	}
}

func startServer(t *testing.T) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	server := &dns.Server{PacketConn: pc, Handler: zoneHandler{}}
	go server.ActivateAndServe()
	t.Cleanup(func() { server.Shutdown() })

	return pc.LocalAddr().String()
}

func newTestResolver(t *testing.T) *Resolver {
	return &Resolver{Server: startServer(t), Timeout: 5 * time.Second}
}

func TestQueryTXT(t *testing.T) {
	ctx := context.Background()
	r := newTestResolver(t)

	// Character-string chunks of one TXT value concatenate.
	values, err := r.QueryTXT(ctx, "_acme-challenge.example.org.", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(values) != 1 || values[0] != "deadbeef" {
		t.Fatalf("values: %v", values)
	}

	values, err = r.QueryTXT(ctx, "_acme-challenge.example.net.", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(values) != 0 {
		t.Fatalf("values for nonexistent name: %v", values)
	}
}

func TestQueryTXTExplicitServer(t *testing.T) {
	ctx := context.Background()
	addr := startServer(t)

	// The default server is unusable; the explicitly given one wins.
	r := &Resolver{Server: "127.0.0.1:1", Timeout: 5 * time.Second}

	values, err := r.QueryTXT(ctx, "_acme-challenge.example.org.", addr)
	if err != nil {
		t.Fatal(err)
	}
	if len(values) != 1 {
		t.Fatalf("values: %v", values)
	}
}

func TestQueryNS(t *testing.T) {
	ctx := context.Background()
	r := newTestResolver(t)

	servers, err := r.QueryNS(ctx, "example.org.")
	if err != nil {
		t.Fatal(err)
	}
	if len(servers) != 2 || servers[0] != "ns1.example.org" || servers[1] != "ns2.example.org" {
		t.Fatalf("servers: %v", servers)
	}
}

func TestFindZone(t *testing.T) {
	ctx := context.Background()
	r := newTestResolver(t)

	zone, err := r.FindZone(ctx, "_acme-challenge.www.example.org.")
	if err != nil {
		t.Fatal(err)
	}
	if zone != "example.org." {
		t.Error(zone)
	}
}

func TestFindZoneSkipsCNAME(t *testing.T) {
	ctx := context.Background()
	r := newTestResolver(t)

	zone, err := r.FindZone(ctx, "alias.example.org.")
	if err != nil {
		t.Fatal(err)
	}
	if zone != "example.org." {
		t.Error(zone)
	}
}

func TestFindZoneNotFound(t *testing.T) {
	ctx := context.Background()
	r := newTestResolver(t)

	_, err := r.FindZone(ctx, "www.example.net.")
	if err == nil {
		t.Fatal("no error")
	}

	type notExist interface {
		NotExist() bool
	}
	if x, ok := err.(notExist); !ok || !x.NotExist() {
		t.Errorf("unexpected error: %v", err)
	}
}
