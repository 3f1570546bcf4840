// Copyright (c) 2026 the acmetool-hook-dns authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package standalone answers challenge TXT queries itself, for hosts
// that are registered as their own nameserver.  Only TXT, SOA, and NS
// questions are handled; everything else falls outside the hook's
// business and gets a name error.
//
// The backend is meant for embedding via the top-level lego adapter:
// a short-lived hook process would take its records down with it.
package standalone

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
)

const DefaultTTL = 1 // second

// Logger is a subset of log.Logger.
type Logger interface {
	Printf(fmt string, args ...interface{})
}

// Config of the embedded challenge responder.
type Config struct {
	Addr  string // defaults to ":53"
	NoTCP bool
	NoUDP bool

	// If the NS field is set, the responder is authoritative: SOA and
	// NS records are returned for stored names' zones.
	NS   string
	Mbox string

	TTL uint32 // TXT record TTL, defaults to DefaultTTL

	ErrorLog Logger // defaults to log package's standard logger
	DebugLog Logger // defaults to nothingness

	// If provided, this channel will be closed once all listeners are
	// ready.
	Ready chan struct{}
}

// Backend stores challenge TXT records in memory and serves them over
// DNS.  Implements dnsbackend.Backend; Serve must be running for the
// records to be observable.
type Backend struct {
	config Config
	serial uint32

	mutex   sync.RWMutex
	records map[string][]string
}

func New(config *Config) *Backend {
	b := &Backend{
		records: make(map[string][]string),
		serial:  timeSerial(time.Now()),
	}
	if config != nil {
		b.config = *config
	}
	if b.config.ErrorLog == nil {
		b.config.ErrorLog = defaultLogger{}
	}
	return b
}

func (b *Backend) AddTXT(ctx context.Context, fqdn, value string) error {
	name := normalize(fqdn)

	b.mutex.Lock()
	defer b.mutex.Unlock()

	for _, v := range b.records[name] {
		if v == value {
			return nil
		}
	}
	b.records[name] = append(b.records[name], value)
	b.serial++
	return nil
}

func (b *Backend) RemoveTXT(ctx context.Context, fqdn, value string) error {
	name := normalize(fqdn)

	b.mutex.Lock()
	defer b.mutex.Unlock()

	values := b.records[name]
	for i, v := range values {
		if v == value {
			values = append(values[:i], values[i+1:]...)
			if len(values) > 0 {
				b.records[name] = values
			} else {
				delete(b.records, name)
			}
			b.serial++
			return nil
		}
	}
	return nil
}

func (b *Backend) ReadTXT(ctx context.Context, fqdn string) ([]string, error) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	return append([]string(nil), b.records[normalize(fqdn)]...), nil
}

// Commit implements dnsbackend.Backend.  In-memory records are
// observable as soon as they are stored.
func (b *Backend) Commit(ctx context.Context) error {
	return nil
}

// Serve answers DNS queries until the context is done or a listener
// fails.
func (b *Backend) Serve(ctx context.Context) (err error) {
	config := &b.config

	addr := config.Addr
	if addr == "" {
		addr = ":53"
	}

	handler := dns.HandlerFunc(func(w dns.ResponseWriter, m *dns.Msg) {
		b.handle(w, m)
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errors := make(chan error, 4) // (tcp, udp) x (context, listener)

	if !config.NoTCP {
		var l net.Listener

		l, err = net.Listen("tcp", addr)
		if err != nil {
			return
		}

		go func() {
			defer l.Close()
			<-ctx.Done()
			errors <- ctx.Err()
		}()

		go func() {
			errors <- dns.ActivateAndServe(l, nil, handler)
		}()
	}

	if !config.NoUDP {
		var pc net.PacketConn

		pc, err = net.ListenPacket("udp", addr)
		if err != nil {
			return
		}

		go func() {
			defer pc.Close()
			<-ctx.Done()
			errors <- ctx.Err()
		}()

		go func() {
			errors <- dns.ActivateAndServe(nil, pc, handler)
		}()
	}

	if config.Ready != nil {
		close(config.Ready)
	}

	err = <-errors
	return
}

func (b *Backend) handle(w dns.ResponseWriter, questMsg *dns.Msg) {
	config := &b.config

	defer func() {
		if x := recover(); x != nil {
			config.ErrorLog.Printf("panic: %v", x)
		}
	}()

	var replyMsg dns.Msg
	replyCode := dns.RcodeServerFailure

	defer func() {
		if config.DebugLog != nil && replyCode != dns.RcodeSuccess {
			config.DebugLog.Printf("standalone: %v %s", w.RemoteAddr(), dns.RcodeToString[replyCode])
		}

		if err := w.WriteMsg(replyMsg.SetRcode(questMsg, replyCode)); err != nil {
			config.ErrorLog.Printf("write: %v", err)
		}
	}()

	if len(questMsg.Question) != 1 {
		replyCode = dns.RcodeNotImplemented
		return
	}

	q := questMsg.Question[0]

	if q.Qclass != dns.ClassINET {
		replyCode = dns.RcodeNotImplemented
		return
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("standalone: %v %s %q", w.RemoteAddr(), dns.TypeToString[q.Qtype], q.Name)
	}

	replyMsg.Authoritative = b.authority()

	name := normalize(q.Name)

	b.mutex.RLock()
	values := append([]string(nil), b.records[name]...)
	serial := b.serial
	b.mutex.RUnlock()

	if len(values) == 0 {
		replyCode = dns.RcodeNameError
		if b.authority() {
			replyMsg.Ns = append(replyMsg.Ns, b.soaAnswer(&q, serial))
		}
		return
	}

	if b.authority() {
		if replyType(&q, dns.TypeSOA) {
			replyMsg.Answer = append(replyMsg.Answer, b.soaAnswer(&q, serial))
		}
		if replyType(&q, dns.TypeNS) {
			replyMsg.Answer = append(replyMsg.Answer, &dns.NS{
				Hdr: dns.RR_Header{
					Name:   q.Name,
					Rrtype: dns.TypeNS,
					Class:  dns.ClassINET,
					Ttl:    b.ttl(),
				},
				Ns: dns.Fqdn(config.NS),
			})
		}
	}

	if replyType(&q, dns.TypeTXT) {
		for _, value := range values {
			replyMsg.Answer = append(replyMsg.Answer, &dns.TXT{
				Hdr: dns.RR_Header{
					Name:   q.Name,
					Rrtype: dns.TypeTXT,
					Class:  dns.ClassINET,
					Ttl:    b.ttl(),
				},
				Txt: []string{value},
			})
		}
	}

	replyCode = dns.RcodeSuccess
}

// replyType returns true if records with recordType should be included
// in the reply message for the given question.
func replyType(q *dns.Question, recordType uint16) bool {
	switch q.Qtype {
	case dns.TypeANY, recordType:
		return true

	default:
		return false
	}
}

func (b *Backend) authority() bool {
	return b.config.NS != ""
}

func (b *Backend) ttl() uint32 {
	if b.config.TTL == 0 {
		return DefaultTTL
	}
	return b.config.TTL
}

func (b *Backend) soaAnswer(q *dns.Question, serial uint32) *dns.SOA {
	return &dns.SOA{
		Hdr: dns.RR_Header{
			Name:   q.Name,
			Rrtype: dns.TypeSOA,
			Class:  dns.ClassINET,
			Ttl:    b.ttl(),
		},
		Ns:      dns.Fqdn(b.config.NS),
		Mbox:    dns.Fqdn(b.config.Mbox),
		Serial:  serial,
		Refresh: 2 * 60 * 60,
		Retry:   15 * 60,
		Expire:  14 * 24 * 60 * 60,
		Minttl:  b.ttl(),
	}
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSuffix(name, ".")) + "."
}
