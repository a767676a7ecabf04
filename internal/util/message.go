// SPDX-FileCopyrightText: 2024 Tillitis AB <tillitis.se>
// SPDX-License-Identifier: BSD-2-Clause

package util

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/mr-tron/base58"
)

const (
	EncodingRaw    = "raw"
	EncodingHex    = "hex"
	EncodingBase58 = "base58"
)

// ReadMessage reads the message in fileName, or from stdin if fileName
// is "-", and decodes it according to encoding. Raw messages are used
// unmodified, hex and base58 ones may have surrounding whitespace.
func ReadMessage(fileName string, encoding string) ([]byte, error) {
	var content []byte
	var err error
	if fileName == "-" {
		if content, err = io.ReadAll(os.Stdin); err != nil {
			return nil, fmt.Errorf("ReadAll: %w", err)
		}
	} else if content, err = os.ReadFile(fileName); err != nil {
		return nil, fmt.Errorf("ReadFile: %w", err)
	}

	return DecodeMessage(content, encoding)
}

func DecodeMessage(content []byte, encoding string) ([]byte, error) {
	switch encoding {
	case EncodingRaw, "":
		return content, nil
	case EncodingHex:
		msg, err := hex.DecodeString(string(bytes.TrimSpace(content)))
		if err != nil {
			return nil, fmt.Errorf("hex: %w", err)
		}
		return msg, nil
	case EncodingBase58:
		msg, err := base58.Decode(string(bytes.TrimSpace(content)))
		if err != nil {
			return nil, fmt.Errorf("base58: %w", err)
		}
		return msg, nil
	}
	return nil, fmt.Errorf("unknown encoding %q", encoding)
}
