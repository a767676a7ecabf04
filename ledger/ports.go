// SPDX-FileCopyrightText: 2024 Tillitis AB <tillitis.se>
// SPDX-License-Identifier: BSD-2-Clause

package ledger

import (
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
)

const (
	ledgerUSBVID    = 0x2c97
	ledgerUsagePage = 0xffa0
)

type SerialPort struct {
	DevPath      string
	SerialNumber string
}

// DetectHIDDevice returns the path of the only plugged in Ledger. It
// fails with ErrNoDevice or ErrManyDevices if there isn't exactly one.
func DetectHIDDevice() (string, error) {
	infos, err := GetHIDDevices()
	if err != nil {
		return "", err
	}

	switch len(infos) {
	case 0:
		return "", ErrNoDevice
	case 1:
		return infos[0].Path, nil
	}

	for _, info := range infos {
		le.Printf("%s %s serial number %s\n", info.Path, info.Product, info.Serial)
	}
	return "", ErrManyDevices
}

// GetSerialPorts lists USB serial ports belonging to Ledger devices.
func GetSerialPorts() ([]SerialPort, error) {
	var ports []SerialPort
	portDetails, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("GetDetailedPortsList: %w", err)
	}
	if len(portDetails) == 0 {
		return ports, nil
	}

	vid := fmt.Sprintf("%04x", ledgerUSBVID)
	for _, port := range portDetails {
		if port.IsUSB && strings.EqualFold(port.VID, vid) {
			ports = append(ports, SerialPort{port.Name, port.SerialNumber})
		}
	}
	return ports, nil
}
