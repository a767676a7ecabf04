// SPDX-FileCopyrightText: 2024 Tillitis AB <tillitis.se>
// SPDX-License-Identifier: BSD-2-Clause

package main

import (
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/ledgersol/ledger-solana-go/internal/config"
	"github.com/ledgersol/ledger-solana-go/internal/util"
	"github.com/ledgersol/ledger-solana-go/ledger"
)

// Use when printing err/diag msgs
var le = log.New(os.Stderr, "", 0)

const progname = "ledger-solana"

var version string

type options struct {
	configPath string
	transport  string
	port       string
	speed      int
	speculos   string
	fileName   string
	encoding   string
	format     string
	verbose    bool
}

func main() {
	exit := func(code int) {
		os.Exit(code)
	}

	if version == "" {
		version = readBuildInfo()
	}

	var opts options
	var versionOnly, helpOnly bool
	defaults := config.Default()
	pflag.CommandLine.SetOutput(os.Stderr)
	pflag.CommandLine.SortFlags = false
	pflag.StringVarP(&opts.configPath, "config", "c", "",
		"Read defaults for the flags below from the TOML `FILE`.")
	pflag.StringVarP(&opts.transport, "transport", "t", defaults.Transport,
		"Talk to the device over `KIND`: hid, speculos or serial.")
	pflag.StringVar(&opts.port, "port", "",
		"Set HID or serial device `PATH`. For hid, auto-detection is attempted if this is not passed.")
	pflag.IntVar(&opts.speed, "speed", defaults.Speed,
		"Set serial port speed in `BPS` (bits per second).")
	pflag.StringVar(&opts.speculos, "speculos", defaults.SpeculosAddr,
		"Connect to the Speculos emulator APDU port at `ADDR`.")
	pflag.StringVarP(&opts.fileName, "file", "f", "",
		"Read the message to sign from `FILE`. Use '-' (dash) to read from stdin.")
	pflag.StringVarP(&opts.encoding, "encoding", "e", util.EncodingRaw,
		"Message file `ENCODING`: raw, hex or base58.")
	pflag.StringVar(&opts.format, "format", formatBase58,
		"Output `FORMAT` of public keys: base58, hex or ssh.")
	pflag.BoolVarP(&opts.verbose, "verbose", "v", false,
		"Enable verbose output, including hexdumps of all traffic.")
	pflag.BoolVar(&versionOnly, "version", false, "Output version information.")
	pflag.BoolVar(&helpOnly, "help", false, "Output this help.")
	pflag.Usage = func() {
		desc := fmt.Sprintf(`Usage: %[1]s [flags...] COMMAND [PATH]

%[1]s talks to the Solana app on a Ledger hardware wallet.

Commands:
  pubkey         Output the public key of PATH.
  address        Show the address of PATH on the device, then output it.
  sign           Sign the serialized transaction message in --file with PATH.
  sign-offchain  Sign the off-chain message in --file with PATH.
  config         Output the app configuration and version.
  list           List Ledger HID devices and serial ports.

PATH is account[/change[/address_index]] or a full path like
m/44'/501'/0'/0'. Account and change are always hardened. If PATH is
not passed, the path from --config is used, or m/44'/501'.`, progname)
		le.Printf("%s\n\n%s", desc,
			pflag.CommandLine.FlagUsagesWrapped(86))
	}
	pflag.Parse()

	if helpOnly {
		pflag.Usage()
		exit(0)
	}

	if versionOnly {
		fmt.Printf("%s %s\n", progname, version)
		exit(0)
	}

	if pflag.NArg() < 1 || pflag.NArg() > 2 {
		le.Printf("Please pass a command and at most one PATH.\n\n")
		pflag.Usage()
		exit(2)
	}
	command := pflag.Arg(0)

	if !opts.verbose {
		ledger.SilenceLogging()
	}

	cfg, err := resolveConfig(opts, pflag.CommandLine.Changed)
	if err != nil {
		le.Printf("%v\n\n", err)
		exit(2)
	}
	if pflag.NArg() == 2 {
		cfg.Path = pflag.Arg(1)
	}

	switch command {
	case "list":
		n, err := printPorts()
		if err != nil {
			le.Printf("%v\n", err)
			exit(1)
		} else if n == 0 {
			exit(1)
		}
		exit(0)
	case "pubkey", "address", "sign", "sign-offchain", "config":
	default:
		le.Printf("Unknown command: %s\n\n", command)
		pflag.Usage()
		exit(2)
	}

	switch opts.format {
	case formatBase58, formatHex, formatSSH:
	default:
		le.Printf("Unknown format: %s\n\n", opts.format)
		pflag.Usage()
		exit(2)
	}

	if strings.HasPrefix(command, "sign") && opts.fileName == "" {
		le.Printf("Please pass --file with the message to sign.\n\n")
		pflag.Usage()
		exit(2)
	}

	app, err := connect(cfg)
	if err != nil {
		le.Printf("%v\n", err)
		exit(1)
	}

	prevExitFunc := exit
	exit = func(code int) {
		if err := app.Close(); err != nil {
			le.Printf("%v\n", err)
		}
		prevExitFunc(code)
	}
	handleSignals(func() { exit(1) }, os.Interrupt, syscall.SIGTERM)

	switch command {
	case "pubkey":
		err = runPubkey(app, cfg.Path, opts.format, false)
	case "address":
		err = runPubkey(app, cfg.Path, opts.format, true)
	case "sign":
		err = runSign(app, cfg.Path, opts.fileName, opts.encoding, false)
	case "sign-offchain":
		err = runSign(app, cfg.Path, opts.fileName, opts.encoding, true)
	case "config":
		err = runConfig(app)
	}
	if err != nil {
		le.Printf("%s failed: %s\n", command, describeError(err))
		exit(1)
	}

	exit(0)
}

// resolveConfig merges the config file, if any, with the flags that
// were set explicitly on the command line.
func resolveConfig(opts options, changed func(string) bool) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return config.Config{}, err
		}
	}

	if changed("transport") {
		cfg.Transport = strings.ToLower(opts.transport)
	}
	if changed("port") {
		cfg.Port = opts.port
	}
	if changed("speed") {
		cfg.Speed = opts.speed
	}
	if changed("speculos") {
		cfg.SpeculosAddr = opts.speculos
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func readBuildInfo() string {
	version := "devel without BuildInfo"
	if info, ok := debug.ReadBuildInfo(); ok {
		sb := strings.Builder{}
		sb.WriteString("devel")
		for _, setting := range info.Settings {
			if strings.HasPrefix(setting.Key, "vcs") {
				sb.WriteString(fmt.Sprintf(" %s=%s", setting.Key, setting.Value))
			}
		}
		version = sb.String()
	}
	return version
}
