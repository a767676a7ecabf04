// SPDX-FileCopyrightText: 2024 Tillitis AB <tillitis.se>
// SPDX-License-Identifier: BSD-2-Clause

package ledger

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"
)

// Largest reply body accepted on a stream connection. Replies from the
// device apps are far smaller; this only bounds allocation when the
// peer sends garbage.
const maxStreamReply = 64 * 1024

// streamConn exchanges commands over a byte stream. A command is sent
// as a 4 byte big-endian length followed by the command. The reply is
// a 4 byte big-endian length N, N bytes of data and the 2 byte status
// word, which is not counted in N.
//
// This is the framing of the APDU port of the Speculos emulator.
type streamConn struct {
	rw io.ReadWriteCloser
}

func (c *streamConn) Exchange(apdu []byte) ([]byte, error) {
	tx := make([]byte, 4, 4+len(apdu))
	binary.BigEndian.PutUint32(tx, uint32(len(apdu)))
	tx = append(tx, apdu...)

	if _, err := c.rw.Write(tx); err != nil {
		return nil, fmt.Errorf("Write: %w", err)
	}

	var hdr [4]byte
	if _, err := io.ReadFull(c.rw, hdr[:]); err != nil {
		return nil, fmt.Errorf("ReadFull: %w", err)
	}

	n := binary.BigEndian.Uint32(hdr[:])
	if n > maxStreamReply {
		return nil, fmt.Errorf("reply length %d too big", n)
	}

	rx := make([]byte, int(n)+statusLen)
	if _, err := io.ReadFull(c.rw, rx); err != nil {
		return nil, fmt.Errorf("ReadFull: %w", err)
	}

	return rx, nil
}

func (c *streamConn) Close() error {
	return c.rw.Close()
}

// DialSpeculos connects to the APDU port of a Speculos emulator,
// usually listening on 127.0.0.1:9999. Pass 0 as timeout to wait
// forever for the connection.
func DialSpeculos(addr string, timeout time.Duration) (*Device, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("Dial %s: %w", addr, err)
	}

	return &Device{name: "speculos", conn: &streamConn{rw: conn}}, nil
}
