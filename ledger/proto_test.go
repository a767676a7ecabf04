// SPDX-FileCopyrightText: 2024 Tillitis AB <tillitis.se>
// SPDX-License-Identifier: BSD-2-Clause

package ledger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkStateFlags(t *testing.T) {
	tests := []struct {
		state chunkState
		p2    byte
	}{
		{chunkSingle, 0x00},
		{chunkFirst, 0x02},
		{chunkMiddle, 0x03},
		{chunkLast, 0x01},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.p2, tt.state.p2(), tt.state.String())
	}
}

func TestCommandMarshalBinary(t *testing.T) {
	b, err := Command{CLA: CLA, INS: 0x05, P1: P1NonConfirm, P2: 0, Data: []byte{0x02, 0x80}}.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xe0, 0x05, 0x00, 0x00, 0x02, 0x02, 0x80}, b)
}

func TestCommandMarshalBinaryEmptyKeepsLc(t *testing.T) {
	b, err := Command{CLA: CLA, INS: 0x04}.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xe0, 0x04, 0x00, 0x00, 0x00}, b)
}

func TestCommandMarshalBinaryTooLong(t *testing.T) {
	_, err := Command{CLA: CLA, INS: 0x06, Data: bytes.Repeat([]byte{1}, MaxChunkSize+1)}.MarshalBinary()
	require.Error(t, err)

	b, err := Command{CLA: CLA, INS: 0x06, Data: bytes.Repeat([]byte{1}, MaxChunkSize)}.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, byte(0xff), b[4])
	assert.Len(t, b, 5+MaxChunkSize)
}
