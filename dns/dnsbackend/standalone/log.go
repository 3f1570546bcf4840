// Copyright (c) 2026 the acmetool-hook-dns authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package standalone

import (
	"log"
)

type defaultLogger struct{}

func (defaultLogger) Printf(fmt string, args ...interface{}) {
	log.Printf("standalone: "+fmt, args...)
}
