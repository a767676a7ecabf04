// SPDX-FileCopyrightText: 2024 Tillitis AB <tillitis.se>
// SPDX-License-Identifier: BSD-2-Clause

package solana

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(t *testing.T, b []byte) []uint32 {
	t.Helper()

	require.NotEmpty(t, b)
	n := int(b[0])
	require.Len(t, b, 1+4*n, "length byte must match component count")

	w := make([]uint32, n)
	for i := range w {
		w[i] = binary.BigEndian.Uint32(b[1+4*i:])
	}
	return w
}

func TestEncodePathAccountOnly(t *testing.T) {
	b, err := EncodePath(0)
	require.NoError(t, err)

	assert.Equal(t, byte(3), b[0])
	assert.Equal(t, []uint32{0x8000002c, 0x800001f5, 0x80000000}, words(t, b))
}

func TestEncodePathFull(t *testing.T) {
	b, err := EncodePath(0, 0, 5)
	require.NoError(t, err)

	assert.Equal(t, []byte{
		0x05,
		0x80, 0x00, 0x00, 0x2c,
		0x80, 0x00, 0x01, 0xf5,
		0x80, 0x00, 0x00, 0x00,
		0x80, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x05,
	}, b)
}

func TestEncodePathLengths(t *testing.T) {
	tests := []struct {
		indices []uint32
		want    []uint32
	}{
		{nil, []uint32{Harden(44), Harden(501)}},
		{[]uint32{7}, []uint32{Harden(44), Harden(501), Harden(7)}},
		{[]uint32{7, 1}, []uint32{Harden(44), Harden(501), Harden(7), Harden(1)}},
		{[]uint32{7, 1, 9}, []uint32{Harden(44), Harden(501), Harden(7), Harden(1), 9}},
	}
	for _, tt := range tests {
		b, err := EncodePath(tt.indices...)
		require.NoError(t, err)

		w := words(t, b)
		assert.Equal(t, tt.want, w)
		for i, n := range w {
			last := i == len(w)-1 && len(tt.indices) == 3
			assert.Equal(t, !last, n&HardenedBit != 0, "component %d of %v", i, tt.indices)
		}
	}
}

func TestEncodePathTooManyIndices(t *testing.T) {
	_, err := EncodePath(0, 0, 0, 0)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestHardenIdempotent(t *testing.T) {
	for _, n := range []uint32{0, 1, 44, 501, 0x7fffffff, 0x80000000, 0xffffffff} {
		h := Harden(n)
		assert.NotZero(t, h&HardenedBit)
		assert.Equal(t, n&^HardenedBit, h&^HardenedBit)
		assert.Equal(t, h, Harden(h))
	}
}

func TestHardenedIndicesAreKept(t *testing.T) {
	b, err := EncodePath(Harden(3), 2, Harden(1))
	require.NoError(t, err)
	assert.Equal(t, []uint32{Harden(44), Harden(501), Harden(3), Harden(2), Harden(1)}, words(t, b))
}

func TestZeroPath(t *testing.T) {
	var p Path
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, "m/44'/501'", p.String())

	want, err := EncodePath()
	require.NoError(t, err)
	assert.Equal(t, want, p.Bytes())
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		in   string
		want []uint32
		str  string
	}{
		{"", []uint32{Harden(44), Harden(501)}, "m/44'/501'"},
		{"0", []uint32{Harden(44), Harden(501), Harden(0)}, "m/44'/501'/0'"},
		{"0'", []uint32{Harden(44), Harden(501), Harden(0)}, "m/44'/501'/0'"},
		{"3/1", []uint32{Harden(44), Harden(501), Harden(3), Harden(1)}, "m/44'/501'/3'/1'"},
		{"0/0/5", []uint32{Harden(44), Harden(501), Harden(0), Harden(0), 5}, "m/44'/501'/0'/0'/5"},
		{"0'/0'/5'", []uint32{Harden(44), Harden(501), Harden(0), Harden(0), Harden(5)}, "m/44'/501'/0'/0'/5'"},
		{"0h/0h/5h", []uint32{Harden(44), Harden(501), Harden(0), Harden(0), Harden(5)}, "m/44'/501'/0'/0'/5'"},
		{"44'/501'", []uint32{Harden(44), Harden(501)}, "m/44'/501'"},
		{"44'/501'/2'", []uint32{Harden(44), Harden(501), Harden(2)}, "m/44'/501'/2'"},
		{"m/44'/501'/0'/0'/5", []uint32{Harden(44), Harden(501), Harden(0), Harden(0), 5}, "m/44'/501'/0'/0'/5"},
		{" m/44h/501h/1 ", []uint32{Harden(44), Harden(501), Harden(1)}, "m/44'/501'/1'"},
		{"44/501", []uint32{Harden(44), Harden(501), Harden(44), Harden(501)}, "m/44'/501'/44'/501'"},
		{"44", []uint32{Harden(44), Harden(501), Harden(44)}, "m/44'/501'/44'"},
		{"44'", []uint32{Harden(44), Harden(501), Harden(44)}, "m/44'/501'/44'"},
		{"44'/0", []uint32{Harden(44), Harden(501), Harden(44), Harden(0)}, "m/44'/501'/44'/0'"},
		{"44'/60'/0'", []uint32{Harden(44), Harden(501), Harden(44), Harden(60), Harden(0)}, "m/44'/501'/44'/60'/0'"},
	}
	for _, tt := range tests {
		p, err := ParsePath(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, p.Components(), tt.in)
		assert.Equal(t, len(tt.want), p.Len(), tt.in)
		assert.Equal(t, tt.str, p.String(), tt.in)
		assert.Equal(t, tt.want, words(t, p.Bytes()), tt.in)
	}
}

func TestParsePathInvalid(t *testing.T) {
	for _, in := range []string{
		"m",
		"m/",
		"m/44'",
		"m/0/1",
		"m/44'/60'/0'",
		"m/44'/60'/0'/0/0",
		"44'/501'/1/2/3/4",
		"0//5",
		"/0",
		"0/",
		"a",
		"0/x",
		"-1",
		"2147483648",
		"0''",
		"1/2/3/4",
		"m/44'/501'/1/2/3/4",
	} {
		_, err := ParsePath(in)
		require.ErrorIs(t, err, ErrInvalidArgument, "%q", in)
	}
}

func TestParsePathRoundTrip(t *testing.T) {
	for _, in := range []string{"m/44'/501'", "m/44'/501'/9'", "m/44'/501'/9'/0'", "m/44'/501'/9'/0'/17"} {
		p, err := ParsePath(in)
		require.NoError(t, err)
		assert.Equal(t, in, p.String())
	}
}

func TestComponentsIsCopy(t *testing.T) {
	p, err := NewPath(1, 2, 3)
	require.NoError(t, err)

	c := p.Components()
	c[4] = 99
	assert.Equal(t, uint32(3), p.Components()[4])
}
