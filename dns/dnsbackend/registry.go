// Copyright (c) 2026 the acmetool-hook-dns authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dnsbackend

import (
	"fmt"
	"sort"
	"sync"
)

// Factory creates a backend from its settings map.  Implementations
// register themselves in their init function.
type Factory func(settings map[string]string) (Backend, error)

var (
	mutex     sync.Mutex
	factories = make(map[string]Factory)
)

// Register makes a backend constructor available under a name.  It
// panics if the name is taken.
func Register(name string, f Factory) {
	mutex.Lock()
	defer mutex.Unlock()

	if _, found := factories[name]; found {
		panic(fmt.Sprintf("dnsbackend: backend %q already registered", name))
	}
	factories[name] = f
}

// New creates the named backend.
func New(name string, settings map[string]string) (Backend, error) {
	mutex.Lock()
	f, found := factories[name]
	mutex.Unlock()

	if !found {
		return nil, fmt.Errorf("dnsbackend: unknown backend %q (registered: %v)", name, Names())
	}
	return f(settings)
}

// Names lists the registered backends in stable order.
func Names() []string {
	mutex.Lock()
	defer mutex.Unlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
