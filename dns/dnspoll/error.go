// Copyright (c) 2026 the acmetool-hook-dns authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dnspoll

import (
	"errors"
	"net"
)

type timeoutError struct {
	net.DNSError
	cause error
}

func (e *timeoutError) Unwrap() error {
	return e.cause
}

func newTimeoutError(name, server string, cause error) error {
	return &timeoutError{
		DNSError: net.DNSError{
			Err:         "propagation not confirmed within budget",
			Name:        name,
			Server:      server,
			IsTimeout:   true,
			IsTemporary: true,
		},
		cause: cause,
	}
}

// IsTimeout reports whether err is a propagation confirmation timeout.
func IsTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
