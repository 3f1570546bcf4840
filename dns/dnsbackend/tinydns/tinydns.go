// Copyright (c) 2026 the acmetool-hook-dns authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tinydns edits a djbdns-style flat record database.  Challenge
// records are TXT lines in the tinydns-data format ('fqdn:value:ttl);
// Commit recompiles the database by running a command (conventionally
// make) in the data directory.
//
// The hook owns only the TXT lines it writes.  All other lines pass
// through verbatim.
package tinydns

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jlneder/acmetool/dns/dnsbackend"
)

const (
	DefaultDir      = "/service/tinydns/root"
	DefaultDataFile = "data"
	DefaultTTL      = 300
)

func init() {
	dnsbackend.Register("tinydns", func(settings map[string]string) (dnsbackend.Backend, error) {
		return New(settings)
	})
}

// Backend edits TXT lines in a tinydns data file.  The working
// directory of the compile command is Dir; no ambient directory state
// is involved.
type Backend struct {
	Dir      string   // data directory, defaults to DefaultDir
	DataFile string   // file name within Dir, defaults to DefaultDataFile
	TTL      uint32   // TTL of written records, defaults to DefaultTTL
	Compile  []string // command run by Commit, defaults to {"make"}
}

// New creates a tinydns backend from a settings map.  Recognized keys:
// dir, data_file, ttl, compile (whitespace-separated argument vector).
func New(settings map[string]string) (*Backend, error) {
	b := new(Backend)

	b.Dir = settings["dir"]
	b.DataFile = settings["data_file"]

	if v := settings["ttl"]; v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("tinydns: invalid ttl %q: %w", v, err)
		}
		b.TTL = uint32(n)
	}

	if v := settings["compile"]; v != "" {
		b.Compile = strings.Fields(v)
	}

	return b, nil
}

func (b *Backend) path() string {
	dir := b.Dir
	if dir == "" {
		dir = DefaultDir
	}
	name := b.DataFile
	if name == "" {
		name = DefaultDataFile
	}
	return filepath.Join(dir, name)
}

func (b *Backend) ttl() uint32 {
	if b.TTL == 0 {
		return DefaultTTL
	}
	return b.TTL
}

func (b *Backend) AddTXT(ctx context.Context, fqdn, value string) error {
	lines, err := b.load()
	if err != nil {
		return err
	}

	for _, line := range lines {
		if name, v, ok := parseTXTLine(line); ok && name == trimDot(fqdn) && v == value {
			return nil
		}
	}

	lines = append(lines, formatTXTLine(trimDot(fqdn), value, b.ttl()))
	return b.store(lines)
}

func (b *Backend) RemoveTXT(ctx context.Context, fqdn, value string) error {
	lines, err := b.load()
	if err != nil {
		return err
	}

	kept := lines[:0]
	removed := false

	for _, line := range lines {
		if name, v, ok := parseTXTLine(line); ok && name == trimDot(fqdn) && v == value {
			removed = true
			continue
		}
		kept = append(kept, line)
	}

	if !removed {
		return nil
	}
	return b.store(kept)
}

func (b *Backend) ReadTXT(ctx context.Context, fqdn string) ([]string, error) {
	lines, err := b.load()
	if err != nil {
		return nil, err
	}

	var values []string
	for _, line := range lines {
		if name, v, ok := parseTXTLine(line); ok && name == trimDot(fqdn) {
			values = append(values, v)
		}
	}
	return values, nil
}

// Commit recompiles the record database.  The command's output is
// included in the error on failure.
func (b *Backend) Commit(ctx context.Context) error {
	argv := b.Compile
	if len(argv) == 0 {
		argv = []string{"make"}
	}

	dir := b.Dir
	if dir == "" {
		dir = DefaultDir
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("tinydns: compile %v in %s: %w: %s", argv, dir, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// load returns the data file's lines.  A missing file is an empty
// database.
func (b *Backend) load() ([]string, error) {
	data, err := os.ReadFile(b.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("tinydns: %w", err)
	}

	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}

// store rewrites the data file atomically via a temporary file in the
// same directory.
func (b *Backend) store(lines []string) error {
	path := b.path()

	text := strings.Join(lines, "\n")
	if text != "" {
		text += "\n"
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("tinydns: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("tinydns: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tinydns: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("tinydns: %w", err)
	}
	return nil
}

func trimDot(fqdn string) string {
	return strings.TrimSuffix(fqdn, ".")
}
