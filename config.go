// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	flags "github.com/jessevdk/go-flags"

	"github.com/btcsuite/ctvpool/internal/cfgutil"
	"github.com/btcsuite/ctvpool/netparams"
)

const (
	defaultConfigFilename = "ctvpool.conf"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "ctvpool.log"

	defaultPoolUsers = 5
)

var (
	ctvpoolHomeDir    = btcutil.AppDataDir("ctvpool", false)
	defaultConfigFile = filepath.Join(ctvpoolHomeDir, defaultConfigFilename)
	defaultCAFile     = filepath.Join(ctvpoolHomeDir, "rpc.cert")
	defaultLogDir     = filepath.Join(ctvpoolHomeDir, defaultLogDirname)

	defaultAmount = cfgutil.NewAmountFlag(btcutil.Amount(100_000))
	defaultFee    = cfgutil.NewAmountFlag(btcutil.Amount(500))
	defaultDust   = cfgutil.NewAmountFlag(btcutil.Amount(546))
)

type config struct {
	// General application behavior
	ConfigFile  string `short:"C" long:"configfile" description:"Path to configuration file"`
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`
	DebugLevel  string `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`
	LogDir      string `long:"logdir" description:"Directory to log output."`

	// Pool parameters
	PoolUsers int                 `short:"n" long:"users" description:"Number of pool participants"`
	Amount    *cfgutil.AmountFlag `long:"amount" description:"Per-participant share deposited into the pool"`
	Fee       *cfgutil.AmountFlag `long:"fee" description:"Fixed fee attached to every pool transaction"`
	Dust      *cfgutil.AmountFlag `long:"dust" description:"Dust floor below which no output may be created"`
	PsbtOut   string              `long:"psbtout" description:"Write the unsigned root funding PSBT (base64) to this file and exit instead of wallet-signing it"`

	// RPC client options
	RPCConnect       string `short:"c" long:"rpcconnect" description:"Hostname/IP and port of the bitcoind/btcd RPC server to connect to"`
	CAFile           string `long:"cafile" description:"File containing root certificates to authenticate a TLS connection with the RPC server"`
	DisableClientTLS bool   `long:"noclienttls" description:"Disable TLS for the RPC client -- NOTE: This is only allowed if the RPC client is connecting to localhost"`
	RPCUser          string `short:"u" long:"rpcuser" description:"Username for RPC server authentication"`
	RPCPass          string `short:"P" long:"rpcpass" default-mask:"-" description:"Password for RPC server authentication"`

	// Network selection
	TestNet3 bool `long:"testnet" description:"Use the test network (version 3)"`
	SigNet   bool `long:"signet" description:"Use signet (where OP_CHECKTEMPLATEVERIFY may be deployed)"`
	SimNet   bool `long:"simnet" description:"Use the simulation test network"`
	RegTest  bool `long:"regtest" description:"Use the regression test network and mine blocks on demand"`
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but these seldom appear in config file paths anyway.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(ctvpoolHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}
	return filepath.Clean(os.ExpandEnv(path))
}

// validLogLevel returns whether or not logLevel is a valid debug log level.
func validLogLevel(logLevel string) bool {
	switch logLevel {
	case "trace", "debug", "info", "warn", "error", "critical":
		return true
	}
	return false
}

// loadConfig initializes and parses the config using a config file and
// command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// The above results in the daemon functioning properly without any config
// settings while still allowing the user to override settings with config
// files and command line options.  Command line options always take
// precedence.
func loadConfig() (*config, []string, error) {
	// Default config.
	cfg := config{
		ConfigFile: defaultConfigFile,
		CAFile:     defaultCAFile,
		DebugLevel: defaultLogLevel,
		LogDir:     defaultLogDir,
		PoolUsers:  defaultPoolUsers,
		Amount:     defaultAmount,
		Fee:        defaultFee,
		Dust:       defaultDust,
	}

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.
	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.Default)
	_, err := preParser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			preParser.WriteHelp(os.Stderr)
		}
		return nil, nil, err
	}

	// Show the version and exit if the version flag was specified.
	if preCfg.ShowVersion {
		appName := filepath.Base(os.Args[0])
		appName = strings.TrimSuffix(appName, filepath.Ext(appName))
		fmt.Println(appName, "version", version())
		os.Exit(0)
	}

	// Load additional config from file.
	parser := flags.NewParser(&cfg, flags.Default)
	configFilePath := cleanAndExpandPath(preCfg.ConfigFile)
	err = flags.NewIniParser(parser).ParseFile(configFilePath)
	if err != nil {
		if _, ok := err.(*os.PathError); !ok {
			fmt.Fprintln(os.Stderr, err)
			parser.WriteHelp(os.Stderr)
			return nil, nil, err
		}
		// Missing config file is fine when it is the default one.
		if preCfg.ConfigFile != defaultConfigFile {
			return nil, nil, err
		}
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
		}
		return nil, nil, err
	}

	// Multiple networks can't be selected simultaneously.
	numNets := 0
	activeNet = &netparams.MainNetParams
	if cfg.TestNet3 {
		activeNet = &netparams.TestNet3Params
		numNets++
	}
	if cfg.SigNet {
		activeNet = &netparams.SigNetParams
		numNets++
	}
	if cfg.SimNet {
		activeNet = &netparams.SimNetParams
		numNets++
	}
	if cfg.RegTest {
		activeNet = &netparams.RegressionNetParams
		numNets++
	}
	if numNets > 1 {
		str := "%s: the testnet, signet, simnet, and regtest params " +
			"can't be used together -- choose one"
		err := fmt.Errorf(str, "loadConfig")
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}

	// Append the network type to the log directory so it is "namespaced"
	// per network.
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	cfg.LogDir = filepath.Join(cfg.LogDir, activeNet.Params.Name)

	// Initialize log rotation.  After log rotation has been initialized,
	// the logger variables may be used.
	initLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename))

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", supportedSubsystems())
		os.Exit(0)
	}

	if !validLogLevel(cfg.DebugLevel) {
		str := "%s: the specified debug level [%v] is invalid"
		err := fmt.Errorf(str, "loadConfig", cfg.DebugLevel)
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}
	setLogLevels(cfg.DebugLevel)

	// The pool parameter checks below mirror the engine's own
	// preconditions so misconfiguration surfaces before any RPC
	// connection is attempted.
	if cfg.PoolUsers < 3 {
		str := "%s: a pool requires at least 3 users, got %d"
		err := fmt.Errorf(str, "loadConfig", cfg.PoolUsers)
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}
	if cfg.Amount.Amount <= cfg.Fee.Amount+cfg.Dust.Amount {
		str := "%s: per-user amount %v must exceed fee %v plus dust %v"
		err := fmt.Errorf(str, "loadConfig", cfg.Amount.Amount,
			cfg.Fee.Amount, cfg.Dust.Amount)
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}

	// Add the default RPC port of the active network if needed.
	if cfg.RPCConnect == "" {
		cfg.RPCConnect = "localhost"
	}
	cfg.RPCConnect, err = cfgutil.NormalizeAddress(
		cfg.RPCConnect, activeNet.RPCClientPort,
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}

	// Only allow server TLS to be disabled when connecting to localhost.
	if cfg.DisableClientTLS {
		host, _, err := net.SplitHostPort(cfg.RPCConnect)
		if err != nil || (host != "localhost" &&
			host != "127.0.0.1" && host != "::1") {

			str := "%s: the --noclienttls option may not be used " +
				"when connecting RPC to non localhost " +
				"addresses: %v"
			err := fmt.Errorf(str, "loadConfig", cfg.RPCConnect)
			fmt.Fprintln(os.Stderr, err)
			return nil, nil, err
		}
	} else {
		cfg.CAFile = cleanAndExpandPath(cfg.CAFile)
		exists, err := cfgutil.FileExists(cfg.CAFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return nil, nil, err
		}
		if !exists {
			str := "%s: the certificate authority file %v does " +
				"not exist"
			err := fmt.Errorf(str, "loadConfig", cfg.CAFile)
			fmt.Fprintln(os.Stderr, err)
			return nil, nil, err
		}
	}

	if cfg.PsbtOut != "" {
		cfg.PsbtOut = cleanAndExpandPath(cfg.PsbtOut)
	}

	return &cfg, remainingArgs, nil
}
