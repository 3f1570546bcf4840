// Copyright (c) 2026 the acmetool-hook-dns authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package standalone_test

import (
	"context"
	"testing"
	"time"

	dnsclient "github.com/miekg/dns"

	"github.com/jlneder/acmetool/dns/dnsbackend/standalone"
)

func startBackend(t *testing.T, addr string) *standalone.Backend {
	t.Helper()

	ready := make(chan struct{})
	b := standalone.New(&standalone.Config{
		Addr:  addr,
		NS:    "ns.example.net.",
		Mbox:  "hostmaster.example.net.",
		Ready: ready,
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	served := make(chan error, 1)
	go func() {
		served <- b.Serve(ctx)
	}()

	select {
	case <-ready:
	case err := <-served:
		t.Fatal(err)
	}

	return b
}

func query(t *testing.T, addr, name string, qtype uint16) *dnsclient.Msg {
	t.Helper()

	m := new(dnsclient.Msg)
	m.SetQuestion(name, qtype)

	c := &dnsclient.Client{Timeout: 5 * time.Second}
	in, _, err := c.Exchange(m, addr)
	if err != nil {
		t.Fatal(err)
	}
	return in
}

func TestServe(t *testing.T) {
	const addr = "127.0.0.1:54312"

	ctx := context.Background()
	b := startBackend(t, addr)

	if err := b.AddTXT(ctx, "_acme-challenge.example.org.", "deadbeef"); err != nil {
		t.Fatal(err)
	}
	if err := b.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	in := query(t, addr, "_acme-challenge.example.org.", dnsclient.TypeTXT)
	if in.Rcode != dnsclient.RcodeSuccess {
		t.Fatal(dnsclient.RcodeToString[in.Rcode])
	}
	if !in.Authoritative {
		t.Error("not authoritative")
	}
	if len(in.Answer) != 1 {
		t.Fatalf("answer: %v", in.Answer)
	}
	txt, ok := in.Answer[0].(*dnsclient.TXT)
	if !ok || len(txt.Txt) != 1 || txt.Txt[0] != "deadbeef" {
		t.Errorf("answer: %v", in.Answer[0])
	}

	// Case-insensitive lookup, absolute or not.
	values, err := b.ReadTXT(ctx, "_ACME-CHALLENGE.example.org")
	if err != nil {
		t.Fatal(err)
	}
	if len(values) != 1 {
		t.Errorf("values: %v", values)
	}

	if err := b.RemoveTXT(ctx, "_acme-challenge.example.org.", "deadbeef"); err != nil {
		t.Fatal(err)
	}

	in = query(t, addr, "_acme-challenge.example.org.", dnsclient.TypeTXT)
	if in.Rcode != dnsclient.RcodeNameError {
		t.Fatal(dnsclient.RcodeToString[in.Rcode])
	}
	if len(in.Ns) != 1 {
		t.Errorf("authority section: %v", in.Ns)
	}
	if _, ok := in.Ns[0].(*dnsclient.SOA); !ok {
		t.Errorf("authority section: %v", in.Ns)
	}
}

func TestServeNS(t *testing.T) {
	const addr = "127.0.0.1:54313"

	ctx := context.Background()
	b := startBackend(t, addr)

	if err := b.AddTXT(ctx, "_acme-challenge.example.org.", "deadbeef"); err != nil {
		t.Fatal(err)
	}

	in := query(t, addr, "_acme-challenge.example.org.", dnsclient.TypeNS)
	if in.Rcode != dnsclient.RcodeSuccess {
		t.Fatal(dnsclient.RcodeToString[in.Rcode])
	}
	if len(in.Answer) != 1 {
		t.Fatalf("answer: %v", in.Answer)
	}
	ns, ok := in.Answer[0].(*dnsclient.NS)
	if !ok || ns.Ns != "ns.example.net." {
		t.Errorf("answer: %v", in.Answer[0])
	}
}
