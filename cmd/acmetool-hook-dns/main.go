// Copyright (c) 2026 the acmetool-hook-dns authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The acmetool-hook-dns command implements the acmetool hook protocol
// for dns-01 challenges.  It is invoked as
//
//	acmetool-hook-dns EVENT [HOSTNAME TARGET-FILE TXT-BODY]
//
// and exits with 0 on success, 42 for events it doesn't handle, and 1
// on failure.  The TARGET-FILE argument belongs to other challenge
// types and is ignored.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jlneder/acmetool/dns/dnsbackend"
	"github.com/jlneder/acmetool/dns/dnsbackend/rfc2136"
	_ "github.com/jlneder/acmetool/dns/dnsbackend/tinydns"
	"github.com/jlneder/acmetool/dns/dnspoll"
	"github.com/jlneder/acmetool/dns/dnsresolver"
	"github.com/jlneder/acmetool/hook"
	"github.com/jlneder/acmetool/internal/config"
)

const exitUnknownEvent = 42

func main() {
	err := Main()
	if err == nil {
		return
	}

	var unknown *hook.UnknownEventError
	if errors.As(err, &unknown) {
		os.Exit(exitUnknownEvent)
	}

	log.Print(err)
	os.Exit(1)
}

func Main() (err error) {
	var (
		configPath = ""
		verbose    = false
	)

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options] event [hostname target-file txt-body]\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
	}

	flag.StringVar(&configPath, "c", configPath, "configuration file")
	flag.BoolVar(&verbose, "v", verbose, "debug logging")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		return errors.New("no event specified")
	}

	event := args[0]

	var hostname, value string
	switch event {
	case hook.EventChallengeDNSStart, hook.EventChallengeDNSStop:
		if len(args) != 4 {
			return fmt.Errorf("event %s takes 3 arguments, got %d", event, len(args)-1)
		}
		hostname = args[1]
		value = args[3]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return
	}
	if verbose {
		cfg.Log.Verbose = true
	}

	var logger hook.Logger
	if cfg.Log.Verbose {
		logger = log.New(os.Stderr, "", log.Ldate|log.Lmicroseconds)
	}

	resolver, err := dnsresolver.New(cfg.Resolver.Nameserver)
	if err != nil {
		return
	}

	backend, err := dnsbackend.New(cfg.Backend.Type, cfg.Backend.Settings)
	if err != nil {
		return
	}

	// The rfc2136 backend discovers the update zone through the
	// resolver unless settings pin it.
	if b, ok := backend.(*rfc2136.Backend); ok && b.FindZone == nil {
		b.FindZone = resolver.FindZone
	}

	h := &hook.Hook{
		Backend:  backend,
		Resolver: resolver,
		Poller: &dnspoll.Poller{
			Resolver: resolver,
			Timeout:  cfg.Propagation.Timeout,
			Interval: cfg.Propagation.Interval,
			DebugLog: logger,
		},
		DebugLog: logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return h.Run(ctx, event, hostname, value)
}
