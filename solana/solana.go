// SPDX-FileCopyrightText: 2024 Tillitis AB <tillitis.se>
// SPDX-License-Identifier: BSD-2-Clause

// Package solana provides a connection to the Solana app running on a
// Ledger. You're expected to pass an existing connection to it, so use
// it like this:
//
//	dev, err := ledger.OpenHID(path)
//	app := solana.New(ledger.New(dev))
//
// Then use it like this to get the public key of a key path:
//
//	path, err := solana.ParsePath("0'/0'")
//	pubkey, err := app.GetPubkey(path)
//
// And like this to sign a serialized transaction message:
//
//	signature, err := app.Sign(path, message)
package solana

import (
	"fmt"

	"github.com/ledgersol/ledger-solana-go/ledger"
)

var (
	insGetAppConfig = appIns{0x04, "insGetAppConfig"}
	insGetPubkey    = appIns{0x05, "insGetPubkey"}
	insSignMessage  = appIns{0x06, "insSignMessage"}
	insSignOffchain = appIns{0x07, "insSignOffchain"}
)

const (
	// The app signs with a single key path per call
	numSigners = 1

	PubkeySize    = 32
	SignatureSize = 64
)

const ErrShortConfiguration = constError("short app configuration reply")

type appIns struct {
	code byte
	name string
}

func (c appIns) Code() byte {
	return c.code
}

func (c appIns) String() string {
	return c.name
}

type App struct {
	l *ledger.Ledger // A connection to a Ledger
}

// New allocates a struct for communicating with the Solana app running
// on the Ledger.
func New(l *ledger.Ledger) App {
	var app App

	app.l = l

	return app
}

// Close closes the connection to the Ledger
func (a App) Close() error {
	if err := a.l.Close(); err != nil {
		return fmt.Errorf("Close: %w", err)
	}
	return nil
}

type AppConfiguration struct {
	BlindSigningEnabled bool
	PubkeyDisplayMode   byte
	Major               byte
	Minor               byte
	Patch               byte
}

// Unpack unpacks the configuration from the raw reply. raw must hold
// at least 5 bytes.
func (c *AppConfiguration) Unpack(raw []byte) {
	c.BlindSigningEnabled = raw[0] != 0
	c.PubkeyDisplayMode = raw[1]
	c.Major = raw[2]
	c.Minor = raw[3]
	c.Patch = raw[4]
}

func (c *AppConfiguration) Version() string {
	return fmt.Sprintf("%d.%d.%d", c.Major, c.Minor, c.Patch)
}

// GetAppConfiguration gets the settings and version of the running app.
func (a App) GetAppConfiguration() (*AppConfiguration, error) {
	rx, err := a.l.Send(insGetAppConfig, false, nil)
	if err != nil {
		return nil, fmt.Errorf("Send: %w", err)
	}

	if len(rx) < 5 {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortConfiguration, len(rx))
	}

	conf := &AppConfiguration{}
	conf.Unpack(rx)

	return conf, nil
}

// GetPubkey fetches the public key of the key at path, without asking
// the user.
func (a App) GetPubkey(path Path) ([]byte, error) {
	return a.GetAddress(path, false)
}

// GetAddress fetches the public key of the key at path. If display is
// set the device shows it and waits for the user to approve.
func (a App) GetAddress(path Path, display bool) ([]byte, error) {
	rx, err := a.l.Send(insGetPubkey, display, path.Bytes())
	if err != nil {
		return nil, fmt.Errorf("Send: %w", err)
	}

	return rx, nil
}

// Sign signs a serialized transaction message with the key at path.
// The user has to approve on the device.
func (a App) Sign(path Path, message []byte) ([]byte, error) {
	return a.sign(insSignMessage, path, message)
}

// SignOffchainMessage signs an off-chain message with the key at path.
// The user has to approve on the device.
func (a App) SignOffchainMessage(path Path, message []byte) ([]byte, error) {
	return a.sign(insSignOffchain, path, message)
}

func (a App) sign(ins appIns, path Path, message []byte) ([]byte, error) {
	rx, err := a.l.Send(ins, true, signPayload(path, message))
	if err != nil {
		return nil, fmt.Errorf("Send: %w", err)
	}

	return rx, nil
}

// signPayload lays out a signing request: the number of signers, the
// key path and the message.
func signPayload(path Path, message []byte) []byte {
	p := path.Bytes()
	payload := make([]byte, 0, 1+len(p)+len(message))
	payload = append(payload, numSigners)
	payload = append(payload, p...)
	return append(payload, message...)
}
