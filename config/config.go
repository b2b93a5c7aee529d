// Package config holds the SDK's runtime configuration: node endpoints for
// both chains, network selection, and logging. Values come from defaults,
// an optional key=value config file, and VIA_-prefixed environment
// variables, in that order of precedence.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

// Config carries all tunable settings for the SDK.
type Config struct {
	// DataDir is where persistent state (the deposit ledger) lives.
	DataDir string `envconfig:"DATA_DIR"`

	// Network selects the L1 chain parameters: "mainnet", "testnet", or
	// "regtest".
	Network string `envconfig:"NETWORK"`

	// L1 node connection (bitcoind-style JSON-RPC with Basic Auth).
	L1RPCURL      string `envconfig:"L1_RPC_URL"`
	L1RPCUser     string `envconfig:"L1_RPC_USER"`
	L1RPCPassword string `envconfig:"L1_RPC_PASSWORD"`

	// L2 node connection (JSON-RPC 2.0).
	L2RPCURL string `envconfig:"L2_RPC_URL"`

	// L2ChainID pins the expected L2 chain ID. Zero means "ask the node".
	L2ChainID int64 `envconfig:"L2_CHAIN_ID"`

	// ConfTarget is the confirmation target, in blocks, passed to the L1
	// fee estimator.
	ConfTarget int64 `envconfig:"CONF_TARGET"`

	LogLevel string `envconfig:"LOG_LEVEL"`
	LogFile  string `envconfig:"LOG_FILE"`
}

// DefaultConfig returns a configuration with sensible defaults for a
// mainnet deployment against local nodes.
func DefaultConfig() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		DataDir:    filepath.Join(home, ".libvia"),
		Network:    "mainnet",
		L1RPCURL:   "http://localhost:8332",
		L2RPCURL:   "http://localhost:3050",
		ConfTarget: 6,
		LogLevel:   "info",
	}
}

// FromEnv returns DefaultConfig overridden by any VIA_-prefixed
// environment variables (VIA_NETWORK, VIA_L1_RPC_URL, and so on).
func FromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := envconfig.Process("VIA", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: process environment: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads a key=value config file at path, starting from the
// defaults. Blank lines and lines starting with # are skipped; unknown
// keys are ignored so older binaries tolerate newer files.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return Config{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	cfg := DefaultConfig()
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return Config{}, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, lineNum, line)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "datadir":
			cfg.DataDir = value
		case "network":
			cfg.Network = value
		case "l1rpcurl":
			cfg.L1RPCURL = value
		case "l1rpcuser":
			cfg.L1RPCUser = value
		case "l1rpcpassword":
			cfg.L1RPCPassword = value
		case "l2rpcurl":
			cfg.L2RPCURL = value
		case "l2chainid":
			id, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return Config{}, fmt.Errorf("%w: line %d: l2chainid %q", ErrInvalidConfigLine, lineNum, value)
			}
			cfg.L2ChainID = id
		case "conftarget":
			target, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return Config{}, fmt.Errorf("%w: line %d: conftarget %q", ErrInvalidConfigLine, lineNum, value)
			}
			cfg.ConfTarget = target
		case "loglevel":
			cfg.LogLevel = value
		case "logfile":
			cfg.LogFile = value
		}
		// Unknown keys fall through silently.
	}
	if err := scanner.Err(); err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path in the key=value format LoadConfig reads,
// creating parent directories as needed.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# libvia configuration\n\n")
	fmt.Fprintf(&b, "datadir = %s\n", cfg.DataDir)
	fmt.Fprintf(&b, "network = %s\n", cfg.Network)
	fmt.Fprintf(&b, "l1rpcurl = %s\n", cfg.L1RPCURL)
	fmt.Fprintf(&b, "l1rpcuser = %s\n", cfg.L1RPCUser)
	fmt.Fprintf(&b, "l1rpcpassword = %s\n", cfg.L1RPCPassword)
	fmt.Fprintf(&b, "l2rpcurl = %s\n", cfg.L2RPCURL)
	fmt.Fprintf(&b, "l2chainid = %d\n", cfg.L2ChainID)
	fmt.Fprintf(&b, "conftarget = %d\n", cfg.ConfTarget)
	fmt.Fprintf(&b, "loglevel = %s\n", cfg.LogLevel)
	fmt.Fprintf(&b, "logfile = %s\n", cfg.LogFile)

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// ChainParams maps the configured network name to the L1 chain parameters.
func (c Config) ChainParams() (*chaincfg.Params, error) {
	switch c.Network {
	case "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, ErrInvalidNetwork
	}
}

// NewLogger builds a logger honoring LogLevel and LogFile. An unparseable
// level falls back to info; an empty LogFile logs to stderr.
func NewLogger(cfg Config) (*logrus.Logger, error) {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, fmt.Errorf("config: open log file: %w", err)
		}
		log.SetOutput(io.MultiWriter(os.Stderr, f))
	}
	return log, nil
}
