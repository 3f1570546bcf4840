// Copyright (c) 2026 the acmetool-hook-dns authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hook

import (
	"fmt"
)

// UnknownEventError marks an event the hook doesn't handle.  The
// command maps it to the hook protocol's distinguished exit code.
type UnknownEventError struct {
	Event string
}

func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("hook: unknown event %q", e.Event)
}

// RevertError reports a double failure: confirmation didn't succeed,
// and the compensating mutation failed too, so the backend may still
// hold the unconfirmed state.  Unwrap yields the confirmation failure.
type RevertError struct {
	Cause  error
	Revert error
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("%v (additionally: %v)", e.Cause, e.Revert)
}

func (e *RevertError) Unwrap() error {
	return e.Cause
}
