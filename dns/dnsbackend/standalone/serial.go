// Copyright (c) 2026 the acmetool-hook-dns authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package standalone

import (
	"fmt"
	"math"
	"time"
)

const serialEpoch = 1500000000 // Unix time

// timeSerial creates a time-based zone serial number with 1-second
// granularity.  Record mutations increment it further, so secondaries
// (if any) notice changes even within one second.
func timeSerial(t time.Time) uint32 {
	n := t.Unix() - serialEpoch
	if n <= 0 || n > math.MaxUint32 {
		panic(fmt.Errorf("serial number out of bounds: %d", n))
	}
	return uint32(n)
}
