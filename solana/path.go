// SPDX-FileCopyrightText: 2024 Tillitis AB <tillitis.se>
// SPDX-License-Identifier: BSD-2-Clause

package solana

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

const (
	// BIP44 purpose
	Purpose uint32 = 44
	// SLIP-0044 coin type of Solana
	CoinType uint32 = 501

	HardenedBit uint32 = 0x80000000

	minPathLen = 2
	maxPathLen = 5
)

type constError string

func (err constError) Error() string {
	return string(err)
}

const ErrInvalidArgument = constError("invalid argument")

// Harden sets the hardened bit of a path component. Hardening an
// already hardened component leaves it unchanged.
func Harden(n uint32) uint32 {
	return n | HardenedBit
}

// Path is a key path below m/44'/501', as understood by the Solana
// app. It has 2 to 5 components: purpose, coin type and optionally
// account, change and address index. Account and change are always
// hardened, the address index is used as given.
type Path struct {
	components []uint32
}

// NewPath builds a path from account, change and address index, in
// that order. Leaving out trailing indices gives a shorter path; no
// index can be skipped.
func NewPath(indices ...uint32) (Path, error) {
	if len(indices) > maxPathLen-minPathLen {
		return Path{}, fmt.Errorf("%w: %d path indices, want at most %d",
			ErrInvalidArgument, len(indices), maxPathLen-minPathLen)
	}

	c := make([]uint32, 0, minPathLen+len(indices))
	c = append(c, Harden(Purpose), Harden(CoinType))
	for i, n := range indices {
		if i < 2 {
			n = Harden(n)
		}
		c = append(c, n)
	}

	return Path{components: c}, nil
}

// EncodePath returns the device encoding of the path built from
// account, change and address index. See NewPath.
func EncodePath(indices ...uint32) ([]byte, error) {
	p, err := NewPath(indices...)
	if err != nil {
		return nil, err
	}
	return p.Bytes(), nil
}

// Len returns the number of components, including purpose and coin
// type.
func (p Path) Len() int {
	if p.components == nil {
		return minPathLen
	}
	return len(p.components)
}

// Components returns a copy of the path components as sent to the
// device.
func (p Path) Components() []uint32 {
	return append([]uint32(nil), p.full()...)
}

// Bytes encodes the path as one length byte followed by each component
// as a big-endian 32 bit word.
func (p Path) Bytes() []byte {
	c := p.full()
	b := make([]byte, 1, 1+4*len(c))
	b[0] = byte(len(c))
	for _, n := range c {
		b = binary.BigEndian.AppendUint32(b, n)
	}
	return b
}

func (p Path) String() string {
	var sb strings.Builder
	sb.WriteString("m")
	for _, n := range p.full() {
		sb.WriteString("/")
		sb.WriteString(strconv.FormatUint(uint64(n&^HardenedBit), 10))
		if n&HardenedBit != 0 {
			sb.WriteString("'")
		}
	}
	return sb.String()
}

// full returns all components. The zero Path is m/44'/501'.
func (p Path) full() []uint32 {
	if p.components == nil {
		return []uint32{Harden(Purpose), Harden(CoinType)}
	}
	return p.components
}

// ParsePath parses a path in either of these forms:
//
//	account[/change[/address_index]]
//	[m/]44'/501'[/account[/change[/address_index]]]
//
// A component may end with ' or h to mark it hardened. Account and
// change are hardened whether marked or not; the address index only
// when marked. The empty string is the path m/44'/501'. Input is read
// in the full form when it starts with m or with 44'/501', so "44'/0"
// is account 44' and change 0'.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NewPath()
	}

	full := false
	segs := strings.Split(s, "/")
	if segs[0] == "m" {
		full = true
		segs = segs[1:]
	}

	var parsed []component
	for _, seg := range segs {
		c, err := parseComponent(seg)
		if err != nil {
			return Path{}, fmt.Errorf("%w: path %q: %v", ErrInvalidArgument, s, err)
		}
		parsed = append(parsed, c)
	}

	// Without the m prefix, only a leading 44'/501' means the full form.
	// Anything else is account, change and address index.
	if len(parsed) >= minPathLen &&
		parsed[0] == (component{Purpose, true}) &&
		parsed[1] == (component{CoinType, true}) {
		full = true
	}

	if full {
		if len(parsed) < minPathLen ||
			parsed[0] != (component{Purpose, true}) ||
			parsed[1] != (component{CoinType, true}) {
			return Path{}, fmt.Errorf("%w: path %q is not below m/44'/501'",
				ErrInvalidArgument, s)
		}
		parsed = parsed[minPathLen:]
	}

	indices := make([]uint32, len(parsed))
	for i, c := range parsed {
		indices[i] = c.n
		if c.hardened {
			indices[i] = Harden(c.n)
		}
	}

	return NewPath(indices...)
}

type component struct {
	n        uint32
	hardened bool
}

func parseComponent(seg string) (component, error) {
	if seg == "" {
		return component{}, fmt.Errorf("empty component")
	}

	var c component
	if strings.HasSuffix(seg, "'") || strings.HasSuffix(seg, "h") {
		c.hardened = true
		seg = seg[:len(seg)-1]
	}

	n, err := strconv.ParseUint(seg, 10, 31)
	if err != nil {
		return component{}, fmt.Errorf("component %q: %w", seg, err)
	}
	c.n = uint32(n)

	return c, nil
}
