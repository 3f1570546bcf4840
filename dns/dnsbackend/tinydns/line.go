// Copyright (c) 2026 the acmetool-hook-dns authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tinydns

import (
	"fmt"
	"strings"
)

// formatTXTLine renders a tinydns-data TXT line: 'fqdn:value:ttl with
// the value escaped so that it contains no field separators.
func formatTXTLine(fqdn, value string, ttl uint32) string {
	return fmt.Sprintf("'%s:%s:%d", fqdn, escape(value), ttl)
}

// parseTXTLine extracts the name and unescaped value of a TXT line.
// Lines of other record types, comments, and malformed lines are
// reported as non-TXT.
func parseTXTLine(line string) (fqdn, value string, ok bool) {
	if !strings.HasPrefix(line, "'") {
		return
	}

	fields := strings.Split(line[1:], ":")
	if len(fields) < 2 {
		return
	}

	fqdn = fields[0]
	value, ok = unescape(fields[1])
	return
}

// escape applies tinydns-data octal escaping.  Colons must be escaped
// so they don't act as field separators; backslashes and non-printable
// bytes are escaped for round-tripping.
func escape(value string) string {
	var sb strings.Builder
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c == ':' || c == '\\' || c < 0x20 || c > 0x7e {
			fmt.Fprintf(&sb, "\\%03o", c)
		} else {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func unescape(field string) (value string, ok bool) {
	var sb strings.Builder
	for i := 0; i < len(field); {
		c := field[i]
		if c != '\\' {
			sb.WriteByte(c)
			i++
			continue
		}
		if i+4 > len(field) {
			return "", false
		}
		var n int
		for _, d := range []byte(field[i+1 : i+4]) {
			if d < '0' || d > '7' {
				return "", false
			}
			n = n*8 + int(d-'0')
		}
		sb.WriteByte(byte(n))
		i += 4
	}
	return sb.String(), true
}
