// Copyright (c) 2026 the acmetool-hook-dns authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dnsresolver

import (
	"net"
)

type existenceError struct {
	net.DNSError
}

func (*existenceError) NotExist() bool {
	return true
}

func newZoneError(name, server string) error {
	return &existenceError{
		DNSError: net.DNSError{
			Err:        "no zone apex found for name",
			Name:       name,
			Server:     server,
			IsNotFound: true,
		},
	}
}
