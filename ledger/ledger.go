// SPDX-FileCopyrightText: 2024 Tillitis AB <tillitis.se>
// SPDX-License-Identifier: BSD-2-Clause

// Package ledger provides the command framing used to talk to apps
// running on a Ledger hardware wallet. To create a new connection:
//
//	dev, err := ledger.OpenHID(path)
//	l := ledger.New(dev)
//
// Then send a payload of any length to an app instruction:
//
//	reply, err := l.Send(ins, false, payload)
//
// Payloads longer than MaxChunkSize are split into several commands,
// each acknowledged by the device before the next one is sent. The
// status word of the final reply is checked and stripped.
//
// App specific protocols, like the one in package solana, are built on
// top of Ledger.Send.
package ledger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/skythen/apdu"
)

var le = log.New(os.Stderr, "", 0)

func SilenceLogging() {
	le.SetOutput(io.Discard)
}

// Transport sends one command to a device and returns the raw reply,
// including the trailing status word.
type Transport interface {
	Send(cla, ins, p1, p2 byte, data []byte) ([]byte, error)
}

// Ledger frames logical requests onto a Transport. Only one request is
// in flight at a time; concurrent callers are serialized.
type Ledger struct {
	mu sync.Mutex
	t  Transport
}

// New returns a Ledger sending its commands on t.
func New(t Transport) *Ledger {
	return &Ledger{t: t}
}

// Close closes the underlying transport, if it can be closed. It does
// not wait for an in-flight Send; that call fails with the transport's
// error instead.
func (l *Ledger) Close() error {
	c, ok := l.t.(io.Closer)
	if !ok {
		return nil
	}
	if err := c.Close(); err != nil {
		return fmt.Errorf("Close: %w", err)
	}
	return nil
}

// Send sends payload to the app instruction ins and returns the final
// reply without its status word. If confirm is set the device asks the
// user to approve before it answers.
//
// Nothing is retried. A failure in the middle of a multi-chunk payload
// leaves the device's reassembly state as it is, so the whole call has
// to be started over by the caller.
func (l *Ledger) Send(ins Instruction, confirm bool, payload []byte) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p1 := P1NonConfirm
	if confirm {
		p1 = P1Confirm
	}

	var offset int
	for len(payload)-offset > MaxChunkSize {
		state := chunkMiddle
		if offset == 0 {
			state = chunkFirst
		}

		chunk := payload[offset : offset+MaxChunkSize]
		if err := l.sendIntermediate(ins, p1, state, chunk); err != nil {
			return nil, err
		}
		offset += MaxChunkSize
	}

	state := chunkSingle
	if offset > 0 {
		state = chunkLast
	}

	reply, err := l.send(ins, p1, state, payload[offset:])
	if err != nil {
		return nil, err
	}

	rapdu, err := apdu.ParseRapdu(reply)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", ins, ErrUnexpectedReplyPayload, err)
	}
	if sw := statusWord(rapdu.SW1, rapdu.SW2); sw != StatusOK {
		return nil, &DeviceError{StatusWord: sw}
	}

	return rapdu.Data, nil
}

// sendIntermediate sends a chunk that is followed by more. The device
// acknowledges it with a bare status word.
func (l *Ledger) sendIntermediate(ins Instruction, p1 byte, state chunkState, chunk []byte) error {
	reply, err := l.send(ins, p1, state, chunk)
	if err != nil {
		return err
	}

	if len(reply) != statusLen {
		return fmt.Errorf("%s: %w: %d bytes in %s chunk ack",
			ins, ErrUnexpectedReplyPayload, len(reply), state)
	}
	if sw := statusWord(reply[0], reply[1]); sw != StatusOK {
		return &DeviceError{StatusWord: sw}
	}

	return nil
}

func (l *Ledger) send(ins Instruction, p1 byte, state chunkState, chunk []byte) ([]byte, error) {
	le.Printf("%s: sending %s chunk, p1 0x%02x p2 0x%02x, %d bytes\n",
		ins, state, p1, state.p2(), len(chunk))

	reply, err := l.t.Send(CLA, ins.Code(), p1, state.p2(), chunk)
	if err != nil {
		return nil, fmt.Errorf("%s: Send: %w", ins, err)
	}

	return reply, nil
}

func statusWord(sw1, sw2 byte) uint16 {
	return uint16(sw1)<<8 | uint16(sw2)
}
