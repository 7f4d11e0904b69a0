// Package config loads kiosk and registrar settings from flags with .env
// fallbacks.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything both binaries need. Flags override environment
// variables, environment variables override the defaults.
type Config struct {
	// BackendURL is the biometric registry service.
	BackendURL string

	// LedgerEndpoint, ContractAddress, ChainID and PrivateKeyHex locate the
	// voting contract and the account that pays for ballot transactions.
	LedgerEndpoint  string
	ContractAddress string
	ChainID         int64
	PrivateKeyHex   string

	// CandidateFile optionally replaces the built-in candidate table.
	CandidateFile string

	// DataDir holds the session journal.
	DataDir string

	// ListenAddr is where the kiosk serves its status API.
	ListenAddr string

	// DuplicateFailClosed makes a failed duplicate check block enrollment
	// instead of proceeding.
	DuplicateFailClosed bool

	// FrameDir is where the camera spool drops captured stills.
	FrameDir string

	// Timing knobs, exposed for bench setups; production keeps the defaults.
	SettleDelay     time.Duration
	ScanInterval    time.Duration
	ScanMaxAttempts int

	LogLevel string
}

// Load parses flags and the environment. A .env file in the working directory
// is read first when present; a missing file is not an error.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)

	fs.StringVar(&cfg.BackendURL, "backend", envStr("KIOSK_BACKEND_URL", "http://localhost:5000"), "Biometric registry base URL")
	fs.StringVar(&cfg.LedgerEndpoint, "ledger", envStr("KIOSK_LEDGER_ENDPOINT", "http://localhost:8545"), "Ethereum JSON-RPC endpoint")
	fs.StringVar(&cfg.ContractAddress, "contract", envStr("KIOSK_CONTRACT_ADDRESS", ""), "Voting contract address")
	fs.Int64Var(&cfg.ChainID, "chainid", envInt64("KIOSK_CHAIN_ID", 1337), "Ledger chain id")
	fs.StringVar(&cfg.PrivateKeyHex, "key", envStr("KIOSK_PRIVATE_KEY", ""), "Hex private key for ballot transactions")
	fs.StringVar(&cfg.CandidateFile, "candidates", envStr("KIOSK_CANDIDATE_FILE", ""), "Optional candidate table JSON (built-in table if empty)")
	fs.StringVar(&cfg.DataDir, "data", envStr("KIOSK_DATA_DIR", "data"), "Directory for the session journal")
	fs.StringVar(&cfg.ListenAddr, "listen", envStr("KIOSK_LISTEN_ADDR", ":8090"), "Status API listen address")
	fs.BoolVar(&cfg.DuplicateFailClosed, "failclosed", envBool("KIOSK_DUPLICATE_FAIL_CLOSED", false), "Block enrollment when the duplicate check cannot be reached")
	fs.StringVar(&cfg.FrameDir, "frames", envStr("KIOSK_FRAME_DIR", "frames"), "Camera frame spool directory")
	fs.DurationVar(&cfg.SettleDelay, "settle", 2*time.Second, "Sensor settle delay before the duplicate check")
	fs.DurationVar(&cfg.ScanInterval, "scaninterval", 100*time.Millisecond, "Fingerprint scan polling interval")
	fs.IntVar(&cfg.ScanMaxAttempts, "scanattempts", 100, "Fingerprint scan polling attempts")
	fs.StringVar(&cfg.LogLevel, "loglevel", envStr("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")

	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}

	if cfg.ScanMaxAttempts < 1 {
		return nil, fmt.Errorf("scan attempts must be at least 1")
	}
	return cfg, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
