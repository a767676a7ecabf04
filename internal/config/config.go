// SPDX-FileCopyrightText: 2024 Tillitis AB <tillitis.se>
// SPDX-License-Identifier: BSD-2-Clause

// Package config reads the optional TOML file with defaults for the
// command line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ledgersol/ledger-solana-go/ledger"
)

const (
	TransportHID      = "hid"
	TransportSpeculos = "speculos"
	TransportSerial   = "serial"

	DefaultSpeculosAddr = "127.0.0.1:9999"
)

type Config struct {
	Transport    string
	Port         string
	Speed        int
	SpeculosAddr string
	DialTimeout  time.Duration
	Path         string
}

func Default() Config {
	return Config{
		Transport:    TransportHID,
		Speed:        ledger.SerialSpeed,
		SpeculosAddr: DefaultSpeculosAddr,
		DialTimeout:  5 * time.Second,
	}
}

type fileConfig struct {
	Transport    string `toml:"transport"`
	Port         string `toml:"port"`
	Speed        int    `toml:"speed"`
	SpeculosAddr string `toml:"speculos"`
	DialTimeout  string `toml:"dial_timeout"`
	Path         string `toml:"path"`
}

// Load reads path and returns Default() with the values set in the
// file applied on top.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("transport") {
		cfg.Transport = strings.ToLower(strings.TrimSpace(raw.Transport))
	}
	if meta.IsDefined("port") {
		cfg.Port = strings.TrimSpace(raw.Port)
	}
	if meta.IsDefined("speed") {
		cfg.Speed = raw.Speed
	}
	if meta.IsDefined("speculos") {
		cfg.SpeculosAddr = strings.TrimSpace(raw.SpeculosAddr)
	}
	if meta.IsDefined("dial_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.DialTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse dial_timeout: %w", err)
		}
		cfg.DialTimeout = d
	}
	if meta.IsDefined("path") {
		cfg.Path = strings.TrimSpace(raw.Path)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Transport {
	case TransportHID, TransportSpeculos, TransportSerial:
	default:
		return fmt.Errorf("unknown transport %q, want %s, %s or %s",
			c.Transport, TransportHID, TransportSpeculos, TransportSerial)
	}
	if c.Speed <= 0 {
		return fmt.Errorf("invalid speed %d", c.Speed)
	}
	if c.Transport == TransportSpeculos && c.SpeculosAddr == "" {
		return fmt.Errorf("speculos transport needs an address")
	}
	if c.Transport == TransportSerial && c.Port == "" {
		return fmt.Errorf("serial transport needs a port")
	}
	if c.DialTimeout < 0 {
		return fmt.Errorf("invalid dial timeout %v", c.DialTimeout)
	}
	return nil
}
