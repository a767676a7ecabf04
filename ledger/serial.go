// SPDX-FileCopyrightText: 2024 Tillitis AB <tillitis.se>
// SPDX-License-Identifier: BSD-2-Clause

package ledger

import (
	"fmt"

	"go.bug.st/serial"
)

// Default speed in bps for serial bridges
const SerialSpeed = 115200

type serialOptions struct {
	speed int
}

func WithSpeed(speed int) func(*serialOptions) {
	return func(o *serialOptions) {
		o.speed = speed
	}
}

// OpenSerial opens a serial port device, e.g. a UART bridge to a
// development board, that speaks the same length-prefixed framing as
// Speculos.
func OpenSerial(port string, options ...func(*serialOptions)) (*Device, error) {
	opts := serialOptions{speed: SerialSpeed}
	for _, opt := range options {
		opt(&opts)
	}

	conn, err := serial.Open(port, &serial.Mode{BaudRate: opts.speed})
	if err != nil {
		return nil, fmt.Errorf("Open %s: %w", port, err)
	}

	return &Device{name: "serial", conn: &streamConn{rw: conn}}, nil
}
