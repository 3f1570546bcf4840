// Copyright (c) 2026 the acmetool-hook-dns authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dnsbackend defines the record store interface used by the
// challenge hooks, and a registry of named implementations.
//
// See the top-level package for general documentation.
package dnsbackend

import (
	"context"
)

// Backend can assert and retract TXT records in some DNS record store.
// Mutations may be staged; Commit publishes staged changes.  It doesn't
// have to be instantaneous: callers confirm propagation separately.
type Backend interface {
	// AddTXT stages a TXT record.  Adding a value that is already
	// present must not fail or duplicate the record.
	AddTXT(ctx context.Context, fqdn, value string) error

	// RemoveTXT stages removal of a TXT record with the given value.
	// The name doesn't have to exist.
	RemoveTXT(ctx context.Context, fqdn, value string) error

	// ReadTXT returns the values currently recorded for a name.  A
	// nonexistent name yields an empty slice, not an error.
	ReadTXT(ctx context.Context, fqdn string) ([]string, error)

	// Commit publishes staged changes, e.g. by recompiling a record
	// database or notifying secondaries.  Backends whose mutations
	// take effect immediately implement it as a no-op.
	Commit(ctx context.Context) error
}
