// Copyright (c) 2026 the acmetool-hook-dns authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dnspoll

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeResolver serves a fixed value per server once that server has
// been polled more than its threshold number of times.  Thresholds
// simulate slow propagation; a negative threshold means the server
// never converges.
type fakeResolver struct {
	mutex     sync.Mutex
	value     string
	threshold map[string]int
	calls     map[string]int
	sequence  []string
}

func (r *fakeResolver) QueryTXT(ctx context.Context, fqdn, server string) ([]string, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.calls == nil {
		r.calls = make(map[string]int)
	}
	r.calls[server]++
	r.sequence = append(r.sequence, server)

	n := r.threshold[server]
	if n < 0 || r.calls[server] <= n {
		return nil, nil
	}
	return []string{r.value}, nil
}

func (r *fakeResolver) count(server string) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.calls[server]
}

func TestConfirm(t *testing.T) {
	resolver := &fakeResolver{
		value: "deadbeef",
		threshold: map[string]int{
			"ns1.example.org": 0,
			"ns2.example.org": 2,
		},
	}
	p := &Poller{
		Resolver: resolver,
		Timeout:  time.Second,
		Interval: 10 * time.Millisecond,
	}

	err := p.Confirm(context.Background(), "_acme-challenge.example.org.", "deadbeef", []string{"ns1.example.org", "ns2.example.org"})
	if err != nil {
		t.Fatal(err)
	}

	if n := resolver.count("ns1.example.org"); n != 1 {
		t.Errorf("ns1 polled %d times", n)
	}
	if n := resolver.count("ns2.example.org"); n != 3 {
		t.Errorf("ns2 polled %d times", n)
	}
}

func TestConfirmSequential(t *testing.T) {
	resolver := &fakeResolver{
		value: "deadbeef",
		threshold: map[string]int{
			"ns1.example.org": 3,
			"ns2.example.org": 0,
		},
	}
	p := &Poller{
		Resolver: resolver,
		Timeout:  time.Second,
		Interval: 10 * time.Millisecond,
	}

	err := p.Confirm(context.Background(), "_acme-challenge.example.org.", "deadbeef", []string{"ns1.example.org", "ns2.example.org"})
	if err != nil {
		t.Fatal(err)
	}

	// All polls of the first server precede the single poll of the
	// second.
	if len(resolver.sequence) != 5 {
		t.Fatalf("sequence: %v", resolver.sequence)
	}
	for i, server := range resolver.sequence {
		want := "ns1.example.org"
		if i == len(resolver.sequence)-1 {
			want = "ns2.example.org"
		}
		if server != want {
			t.Errorf("poll %d hit %s", i, server)
		}
	}
}

func TestConfirmTimeout(t *testing.T) {
	resolver := &fakeResolver{
		value: "deadbeef",
		threshold: map[string]int{
			"ns1.example.org": -1,
			"ns2.example.org": 0,
		},
	}
	p := &Poller{
		Resolver: resolver,
		Timeout:  100 * time.Millisecond,
		Interval: 10 * time.Millisecond,
	}

	start := time.Now()
	err := p.Confirm(context.Background(), "_acme-challenge.example.org.", "deadbeef", []string{"ns1.example.org", "ns2.example.org"})
	if err == nil {
		t.Fatal("no error")
	}
	if !IsTimeout(err) {
		t.Errorf("not a timeout: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("gave up after %v", elapsed)
	}

	// The budget is shared: the converged second server must not have
	// been checked after the first one starved it.
	if n := resolver.count("ns2.example.org"); n != 0 {
		t.Errorf("ns2 polled %d times after timeout", n)
	}
}

func TestConfirmAbsence(t *testing.T) {
	// Inverted thresholds: the record lingers for a few polls before
	// the deletion propagates.
	resolver := &lingeringResolver{remaining: 2}
	p := &Poller{
		Resolver: resolver,
		Timeout:  time.Second,
		Interval: 10 * time.Millisecond,
	}

	err := p.Confirm(context.Background(), "_acme-challenge.example.org.", "", []string{"ns1.example.org"})
	if err != nil {
		t.Fatal(err)
	}
	if resolver.calls != 3 {
		t.Errorf("polled %d times", resolver.calls)
	}
}

type lingeringResolver struct {
	mutex     sync.Mutex
	remaining int
	calls     int
}

func (r *lingeringResolver) QueryTXT(ctx context.Context, fqdn, server string) ([]string, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.calls++
	if r.remaining > 0 {
		r.remaining--
		return []string{"stale"}, nil
	}
	return nil, nil
}

func TestConfirmNoServers(t *testing.T) {
	resolver := &fakeResolver{}
	p := &Poller{
		Resolver: resolver,
		Timeout:  10 * time.Millisecond,
	}

	if err := p.Confirm(context.Background(), "_acme-challenge.example.org.", "deadbeef", nil); err != nil {
		t.Fatal(err)
	}
	if len(resolver.sequence) != 0 {
		t.Errorf("polled servers: %v", resolver.sequence)
	}
}

func TestConfirmCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resolver := &fakeResolver{threshold: map[string]int{"ns1.example.org": 0}}
	p := &Poller{Resolver: resolver, Timeout: time.Second}

	err := p.Confirm(ctx, "_acme-challenge.example.org.", "deadbeef", []string{"ns1.example.org"})
	if err == nil {
		t.Fatal("no error")
	}
	if n := resolver.count("ns1.example.org"); n != 0 {
		t.Errorf("polled %d times with canceled context", n)
	}
}
