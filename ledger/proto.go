// SPDX-FileCopyrightText: 2024 Tillitis AB <tillitis.se>
// SPDX-License-Identifier: BSD-2-Clause

package ledger

import (
	"encoding/hex"
	"fmt"
)

const (
	// Class byte used by Ledger device apps
	CLA byte = 0xe0

	// P1 selects whether the device needs the user to approve
	P1NonConfirm byte = 0x00
	P1Confirm    byte = 0x01

	// P2 bits describing a chunk's place in a multi-chunk payload
	P2Extend byte = 0x01
	P2More   byte = 0x02

	// Maximum number of body bytes in one command
	MaxChunkSize = 255

	// Status word for success, appended to every reply
	StatusOK uint16 = 0x9000

	// Length of the status word trailing each reply
	statusLen = 2
)

// Instruction is an app specific operation code. The name is only used
// when logging.
type Instruction interface {
	Code() byte
	String() string
}

// chunkState is the position of a chunk in a logical call. It is
// turned into P2 flags only when a command is put on the transport.
type chunkState int

const (
	chunkSingle chunkState = iota // whole payload fits in one chunk
	chunkFirst                    // first of several, more follows
	chunkMiddle                   // continues a previous chunk, more follows
	chunkLast                     // continues a previous chunk, nothing follows
)

func (s chunkState) p2() byte {
	switch s {
	case chunkFirst:
		return P2More
	case chunkMiddle:
		return P2Extend | P2More
	case chunkLast:
		return P2Extend
	}
	return 0
}

func (s chunkState) String() string {
	switch s {
	case chunkSingle:
		return "single"
	case chunkFirst:
		return "first"
	case chunkMiddle:
		return "middle"
	case chunkLast:
		return "last"
	}
	return fmt.Sprintf("chunkState(%d)", int(s))
}

// Command is one APDU as written to a device.
type Command struct {
	CLA  byte
	INS  byte
	P1   byte
	P2   byte
	Data []byte
}

// MarshalBinary encodes the command as CLA INS P1 P2 Lc Data. Lc is
// always present, also for an empty body, since the device apps read
// it unconditionally.
func (c Command) MarshalBinary() ([]byte, error) {
	if len(c.Data) > MaxChunkSize {
		return nil, fmt.Errorf("command data too long: %d bytes", len(c.Data))
	}

	b := make([]byte, 5, 5+len(c.Data))
	b[0] = c.CLA
	b[1] = c.INS
	b[2] = c.P1
	b[3] = c.P2
	b[4] = byte(len(c.Data))

	return append(b, c.Data...), nil
}

type constError string

func (err constError) Error() string {
	return string(err)
}

const (
	ErrUnexpectedReplyPayload = constError("received unexpected reply payload")
	ErrNoDevice               = constError("no Ledger device found")
	ErrManyDevices            = constError("more than one Ledger device found")
)

// DeviceError is returned when the device answers with a status word
// other than StatusOK. The status word is passed on as is, its meaning
// depends on the app running on the device.
type DeviceError struct {
	StatusWord uint16
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device returned status 0x%04x", e.StatusWord)
}

// Dump hexdumps data in d with an explaining string s first.
func Dump(s string, d []byte) {
	if len(d) == 0 {
		le.Printf("%s: no data\n", s)
		return
	}
	le.Printf("%s (%d bytes):\n%s", s, len(d), hex.Dump(d))
}
