// Copyright (c) 2026 the acmetool-hook-dns authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*

Package acmetool and its subpackages implement DNS challenge hooks for
ACME clients.  When a client validates a domain with the dns-01 method,
it invokes a hook to publish the challenge token as a TXT record; the
hook must not return before the record is visible on the zone's
authoritative nameservers, or validation fails spuriously.  That
waiting, and the rollback when it doesn't pan out, is the heart of this
repository.


Subpackages

The hook subpackage dispatches the challenge-dns-start and
challenge-dns-stop events: mutate the record store, commit, confirm
propagation, and compensate (remove a just-added record, or re-add a
just-removed one) if confirmation times out.

The dns/dnsbackend subpackage defines the record store interface and a
registry of named implementations: tinydns edits a djbdns-style flat
data file and recompiles it, rfc2136 sends standard dynamic updates
(optionally TSIG-signed) to a primary nameserver, and standalone
answers challenge queries itself for hosts that are their own
nameserver.

The dns/dnsresolver subpackage finds the zone apex of a record name (by
walking the label sequence until a suffix answers with a clean SOA) and
enumerates the zone's nameservers.

The dns/dnspoll subpackage polls each nameserver's view of the record
at a fixed interval, under one shared wall-clock budget, until all of
them have converged.

The cmd/acmetool-hook-dns command wires these together behind the
acmetool hook protocol; exit code 42 tells the client the event isn't
handled here.


Embedding

This top-level package adapts the same machinery to lego's
challenge.Provider interface, for Go programs that run their own ACME
client instead of shelling out to one:

	backend := standalone.New(&standalone.Config{
		Addr: ":53",
		NS:   "ns.example.net",
		Mbox: "hostmaster.example.net",
	})
	go backend.Serve(ctx)

	resolver, _ := dnsresolver.New("")
	provider := acmetool.NewProvider(&hook.Hook{
		Backend:  backend,
		Resolver: resolver,
		Poller:   &dnspoll.Poller{Resolver: resolver},
	})

	// lego: client.Challenge.SetDNS01Provider(provider)

*/
package acmetool
