// SPDX-FileCopyrightText: 2024 Tillitis AB <tillitis.se>
// SPDX-License-Identifier: BSD-2-Clause

package ledger

import (
	"fmt"
)

// exchanger moves one encoded command to a device and returns the
// complete reply, status word included.
type exchanger interface {
	Exchange(apdu []byte) ([]byte, error)
	Close() error
}

// Device is a connection to a physical or emulated Ledger. It
// implements Transport.
type Device struct {
	name string
	conn exchanger
}

func (d *Device) String() string {
	return d.name
}

// Send encodes and writes one command, then waits for the reply.
func (d *Device) Send(cla, ins, p1, p2 byte, data []byte) ([]byte, error) {
	tx, err := Command{CLA: cla, INS: ins, P1: p1, P2: p2, Data: data}.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("MarshalBinary: %w", err)
	}

	Dump(d.name+" tx", tx)
	rx, err := d.conn.Exchange(tx)
	if err != nil {
		return nil, fmt.Errorf("Exchange: %w", err)
	}
	Dump(d.name+" rx", rx)

	return rx, nil
}

// Close the connection to the device
func (d *Device) Close() error {
	if err := d.conn.Close(); err != nil {
		return fmt.Errorf("conn.Close: %w", err)
	}
	return nil
}
