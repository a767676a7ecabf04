// SPDX-FileCopyrightText: 2024 Tillitis AB <tillitis.se>
// SPDX-License-Identifier: BSD-2-Clause

package ledger

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/karalabe/hid"
)

const (
	hidPacketSize = 64
	hidChannel    = 0x0101
	hidTag        = 0x05
	// channel, tag and sequence number
	hidHeaderSize = 5
)

// OpenHID opens the Ledger HID interface at path, as reported by
// GetHIDDevices.
func OpenHID(path string) (*Device, error) {
	infos, err := GetHIDDevices()
	if err != nil {
		return nil, err
	}

	for _, info := range infos {
		if info.Path != path {
			continue
		}
		dev, err := info.Open()
		if err != nil {
			return nil, fmt.Errorf("Open %s: %w", path, err)
		}
		return &Device{name: "hid", conn: &hidConn{rw: dev}}, nil
	}

	return nil, fmt.Errorf("Open %s: %w", path, ErrNoDevice)
}

type hidConn struct {
	rw io.ReadWriteCloser
}

func (c *hidConn) Exchange(apdu []byte) ([]byte, error) {
	for _, packet := range wrapHID(apdu) {
		if _, err := c.rw.Write(packet); err != nil {
			return nil, fmt.Errorf("Write: %w", err)
		}
	}

	var u hidUnwrapper
	packet := make([]byte, hidPacketSize)
	for {
		if _, err := io.ReadFull(c.rw, packet); err != nil {
			return nil, fmt.Errorf("ReadFull: %w", err)
		}
		done, err := u.add(packet)
		if err != nil {
			return nil, err
		}
		if done {
			return u.reply, nil
		}
	}
}

func (c *hidConn) Close() error {
	return c.rw.Close()
}

// wrapHID splits an encoded command into HID reports. Every report
// starts with the channel, the tag and a sequence number; the first
// one also carries the total length of the command.
func wrapHID(apdu []byte) [][]byte {
	msg := make([]byte, 2, 2+len(apdu))
	binary.BigEndian.PutUint16(msg, uint16(len(apdu)))
	msg = append(msg, apdu...)

	var packets [][]byte
	for seq := 0; len(msg) > 0; seq++ {
		packet := make([]byte, hidPacketSize)
		binary.BigEndian.PutUint16(packet[0:], hidChannel)
		packet[2] = hidTag
		binary.BigEndian.PutUint16(packet[3:], uint16(seq))

		n := copy(packet[hidHeaderSize:], msg)
		msg = msg[n:]
		packets = append(packets, packet)
	}

	return packets
}

// hidUnwrapper reassembles a reply from HID reports.
type hidUnwrapper struct {
	seq   uint16
	want  int
	reply []byte
}

// add consumes one report and reports whether the reply is complete.
func (u *hidUnwrapper) add(packet []byte) (bool, error) {
	if len(packet) < hidHeaderSize+2 {
		return false, fmt.Errorf("short HID report: %d bytes", len(packet))
	}
	if binary.BigEndian.Uint16(packet[0:]) != hidChannel || packet[2] != hidTag {
		return false, fmt.Errorf("invalid HID report header % x", packet[:3])
	}
	if seq := binary.BigEndian.Uint16(packet[3:]); seq != u.seq {
		return false, fmt.Errorf("expected HID sequence %d, got %d", u.seq, seq)
	}

	payload := packet[hidHeaderSize:]
	if u.seq == 0 {
		u.want = int(binary.BigEndian.Uint16(payload))
		u.reply = make([]byte, 0, u.want)
		payload = payload[2:]
	}
	u.seq++

	left := u.want - len(u.reply)
	if left > len(payload) {
		u.reply = append(u.reply, payload...)
		return false, nil
	}
	u.reply = append(u.reply, payload[:left]...)

	return true, nil
}

// GetHIDDevices lists the HID interfaces of plugged in Ledger devices.
func GetHIDDevices() ([]hid.DeviceInfo, error) {
	if !hid.Supported() {
		return nil, fmt.Errorf("HID not supported on this platform")
	}

	var infos []hid.DeviceInfo
	for _, info := range hid.Enumerate(ledgerUSBVID, 0) {
		// The APDU interface, other interfaces are U2F or similar
		if info.UsagePage == ledgerUsagePage || info.Interface == 0 {
			infos = append(infos, info)
		}
	}

	return infos, nil
}
