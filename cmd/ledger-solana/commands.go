// SPDX-FileCopyrightText: 2024 Tillitis AB <tillitis.se>
// SPDX-License-Identifier: BSD-2-Clause

package main

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ssh"

	"github.com/ledgersol/ledger-solana-go/internal/util"
	"github.com/ledgersol/ledger-solana-go/ledger"
	"github.com/ledgersol/ledger-solana-go/solana"
)

const (
	formatBase58 = "base58"
	formatHex    = "hex"
	formatSSH    = "ssh"

	confirmNotifyDelay = 4 * time.Second
)

// Status words of the Ledger OS and the Solana app
var statusText = map[uint16]string{
	0x5515: "device is locked",
	0x6700: "wrong data length",
	0x6982: "security status not satisfied, is the device unlocked?",
	0x6985: "denied by user",
	0x6a80: "invalid data, blind signing may need to be enabled in the app settings",
	0x6a81: "invalid off-chain message header",
	0x6a82: "invalid off-chain message format",
	0x6b00: "invalid P1 or P2",
	0x6d00: "instruction not supported, is the Solana app open?",
	0x6e00: "class not supported, is the Solana app open?",
	0x6e01: "no app open on the device",
	0x6f00: "internal app error",
}

// describeError adds a readable reason for device status words.
func describeError(err error) string {
	var devErr *ledger.DeviceError
	if errors.As(err, &devErr) {
		if text, ok := statusText[devErr.StatusWord]; ok {
			return fmt.Sprintf("%s (%s)", err, text)
		}
	}
	return err.Error()
}

func formatPubkey(pub []byte, format string) (string, error) {
	switch format {
	case formatHex:
		return hex.EncodeToString(pub), nil
	case formatSSH:
		if len(pub) != ed25519.PublicKeySize {
			return "", fmt.Errorf("pubkey is %d bytes, want %d", len(pub), ed25519.PublicKeySize)
		}
		sshPub, err := ssh.NewPublicKey(ed25519.PublicKey(pub))
		if err != nil {
			return "", fmt.Errorf("NewPublicKey: %w", err)
		}
		return strings.TrimSuffix(string(ssh.MarshalAuthorizedKey(sshPub)), "\n"), nil
	}
	return base58.Encode(pub), nil
}

func runPubkey(app solana.App, pathArg string, format string, display bool) error {
	path, err := solana.ParsePath(pathArg)
	if err != nil {
		return err
	}

	if display {
		le.Printf("Compare the address shown on the device with %s ...\n", path)
	}
	pub, err := app.GetAddress(path, display)
	if err != nil {
		return fmt.Errorf("GetAddress: %w", err)
	}

	out, err := formatPubkey(pub, format)
	if err != nil {
		return err
	}

	le.Printf("Public key of %s (on stdout):\n", path)
	fmt.Fprintf(os.Stdout, "%s\n", out)

	return nil
}

func runSign(app solana.App, pathArg string, fileName string, encoding string, offchain bool) error {
	path, err := solana.ParsePath(pathArg)
	if err != nil {
		return err
	}

	message, err := util.ReadMessage(fileName, encoding)
	if err != nil {
		return fmt.Errorf("Could not read %s: %w", fileName, err)
	}

	pub, err := app.GetPubkey(path)
	if err != nil {
		return fmt.Errorf("GetPubkey: %w", err)
	}
	le.Printf("Signing with %s, public key %s\n", path, base58.Encode(pub))

	timer := time.AfterFunc(confirmNotifyDelay, func() {
		notify("Review and approve the signature on your Ledger.")
	})
	defer timer.Stop()

	le.Printf("Sending a %v bytes message for signing.\n", len(message))
	le.Printf("Approve the signature on the device ...\n")
	var signature []byte
	if offchain {
		signature, err = app.SignOffchainMessage(path, message)
	} else {
		signature, err = app.Sign(path, message)
	}
	if err != nil {
		return fmt.Errorf("Sign: %w", err)
	}

	le.Printf("Signature (on stdout):\n")
	fmt.Fprintf(os.Stdout, "%s\n", base58.Encode(signature))

	if len(pub) != ed25519.PublicKeySize || len(signature) != ed25519.SignatureSize {
		return fmt.Errorf("unexpected pubkey or signature size: %d, %d", len(pub), len(signature))
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), message, signature) {
		return fmt.Errorf("Signature did NOT verify")
	}
	le.Printf("Signature verified.\n")

	return nil
}

func runConfig(app solana.App) error {
	conf, err := app.GetAppConfiguration()
	if err != nil {
		return fmt.Errorf("GetAppConfiguration: %w", err)
	}

	fmt.Fprintf(os.Stdout, "version: %s\n", conf.Version())
	fmt.Fprintf(os.Stdout, "blind signing: %v\n", conf.BlindSigningEnabled)
	fmt.Fprintf(os.Stdout, "pubkey display mode: %d\n", conf.PubkeyDisplayMode)

	return nil
}
