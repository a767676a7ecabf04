// SPDX-FileCopyrightText: 2024 Tillitis AB <tillitis.se>
// SPDX-License-Identifier: BSD-2-Clause

package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/tillitis/tkeyutil"

	"github.com/ledgersol/ledger-solana-go/internal/config"
	"github.com/ledgersol/ledger-solana-go/ledger"
	"github.com/ledgersol/ledger-solana-go/solana"
)

var notify = func(msg string) {
	tkeyutil.Notify(progname, msg)
}

// connect opens the device selected by cfg and wraps it for the Solana
// app.
func connect(cfg config.Config) (solana.App, error) {
	var dev *ledger.Device
	var err error

	switch cfg.Transport {
	case config.TransportHID:
		devPath := cfg.Port
		if devPath == "" {
			devPath, err = ledger.DetectHIDDevice()
			if err != nil {
				switch {
				case errors.Is(err, ledger.ErrNoDevice):
					notify("Could not find any Ledger plugged in.")
				case errors.Is(err, ledger.ErrManyDevices):
					notify("Cannot work with more than 1 Ledger plugged in.")
				}
				return solana.App{}, fmt.Errorf("Failed to detect device: %w", err)
			}
			le.Printf("Auto-detected Ledger at %s\n", devPath)
		}
		dev, err = ledger.OpenHID(devPath)

	case config.TransportSpeculos:
		le.Printf("Connecting to Speculos at %s\n", cfg.SpeculosAddr)
		dev, err = ledger.DialSpeculos(cfg.SpeculosAddr, cfg.DialTimeout)

	case config.TransportSerial:
		le.Printf("Connecting to device on serial port %s\n", cfg.Port)
		dev, err = ledger.OpenSerial(cfg.Port, ledger.WithSpeed(cfg.Speed))

	default:
		return solana.App{}, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
	if err != nil {
		return solana.App{}, fmt.Errorf("Failed to connect: %w", err)
	}

	return solana.New(ledger.New(dev)), nil
}

func printPorts() (int, error) {
	n := 0

	devices, err := ledger.GetHIDDevices()
	if err != nil {
		le.Printf("Failed to list HID devices: %v\n", err)
	}
	for _, d := range devices {
		fmt.Fprintf(os.Stdout, "hid %s %s serialNumber:%s\n", d.Path, d.Product, d.Serial)
		n++
	}

	ports, err := ledger.GetSerialPorts()
	if err != nil {
		return n, fmt.Errorf("Failed to list ports: %w", err)
	}
	for _, p := range ports {
		fmt.Fprintf(os.Stdout, "serial %s serialNumber:%s\n", p.DevPath, p.SerialNumber)
		n++
	}

	if n == 0 {
		le.Printf("No Ledger devices found.\n")
	}
	return n, nil
}

func handleSignals(action func(), sig ...os.Signal) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sig...)
	go func() {
		for {
			<-ch
			action()
		}
	}()
}
