package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage drivers understood by the storage module.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverLevelDB  = "leveldb"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress           string
	StorageDriver        string
	DatabaseURI          string
	LevelDBPath          string
	OwnerPrincipal       string
	TokenSecret          string
	TokenTTL             time.Duration
	HeightSourceAddress  string
	BlockInterval        time.Duration
	GenesisTime          time.Time
	ScoreRefreshInterval time.Duration
	ScoreRefreshAge      uint64
	ScoreRefreshBatch    int
	WorkerPoolSize       int
	ShutdownTimeout      time.Duration
	RateLimitRPM         int
	RateLimitBurst       int
	LogLevel             string
}

const (
	defaultRunAddress           = ":8080"
	defaultStorageDriver        = StorageDriverPostgres
	defaultLevelDBPath          = "data/creditscore"
	defaultTokenSecret          = "change-me-in-production"
	defaultTokenTTL             = 24 * time.Hour
	defaultBlockInterval        = 10 * time.Minute
	defaultGenesisTime          = "2021-01-14T17:28:00Z"
	defaultScoreRefreshInterval = time.Minute
	defaultScoreRefreshAge      = 144
	defaultScoreRefreshBatch    = 32
	defaultWorkerPoolSize       = 4
	defaultShutdownTimeout      = 10 * time.Second
	defaultRateLimitRPM         = 600
	defaultRateLimitBurst       = 60
	defaultLogLevel             = "info"
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:           getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		StorageDriver:        getString(lookup, "STORAGE_DRIVER", defaultStorageDriver),
		DatabaseURI:          getString(lookup, "DATABASE_URI", ""),
		LevelDBPath:          getString(lookup, "LEVELDB_PATH", defaultLevelDBPath),
		OwnerPrincipal:       getString(lookup, "OWNER_PRINCIPAL", ""),
		TokenSecret:          getString(lookup, "TOKEN_SECRET", defaultTokenSecret),
		TokenTTL:             getDuration(lookup, "TOKEN_TTL", defaultTokenTTL),
		HeightSourceAddress:  getString(lookup, "HEIGHT_SOURCE_ADDRESS", ""),
		BlockInterval:        getDuration(lookup, "BLOCK_INTERVAL", defaultBlockInterval),
		ScoreRefreshInterval: getDuration(lookup, "SCORE_REFRESH_INTERVAL", defaultScoreRefreshInterval),
		ScoreRefreshAge:      getUint(lookup, "SCORE_REFRESH_AGE", defaultScoreRefreshAge),
		ScoreRefreshBatch:    getInt(lookup, "SCORE_REFRESH_BATCH", defaultScoreRefreshBatch),
		WorkerPoolSize:       getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		ShutdownTimeout:      getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		RateLimitRPM:         getInt(lookup, "RATE_LIMIT_RPM", defaultRateLimitRPM),
		RateLimitBurst:       getInt(lookup, "RATE_LIMIT_BURST", defaultRateLimitBurst),
		LogLevel:             getString(lookup, "LOG_LEVEL", defaultLogLevel),
	}

	fs := flag.NewFlagSet("creditscored", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		refreshIntervalStr = cfg.ScoreRefreshInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
		blockIntervalStr   = cfg.BlockInterval.String()
		genesisStr         = getString(lookup, "GENESIS_TIME", defaultGenesisTime)
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.StorageDriver, "storage", cfg.StorageDriver, "Storage driver: postgres or leveldb")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.LevelDBPath, "leveldb", cfg.LevelDBPath, "LevelDB data directory")
	fs.StringVar(&cfg.OwnerPrincipal, "owner", cfg.OwnerPrincipal, "Principal allowed to manage reporters")
	fs.StringVar(&cfg.TokenSecret, "token-secret", cfg.TokenSecret, "Secret for signing auth tokens")
	fs.StringVar(&cfg.HeightSourceAddress, "height-source", cfg.HeightSourceAddress, "Chain node base URL for block height")
	fs.StringVar(&blockIntervalStr, "block-interval", blockIntervalStr, "Block interval of the local height clock")
	fs.StringVar(&genesisStr, "genesis", genesisStr, "Genesis time of the local height clock (RFC3339)")
	fs.StringVar(&refreshIntervalStr, "refresh-interval", refreshIntervalStr, "Interval between score refresh passes")
	fs.Uint64Var(&cfg.ScoreRefreshAge, "refresh-age", cfg.ScoreRefreshAge, "Blocks after which a score is refreshed")
	fs.IntVar(&cfg.ScoreRefreshBatch, "refresh-batch", cfg.ScoreRefreshBatch, "Maximum records per refresh pass")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent refresh workers")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.IntVar(&cfg.RateLimitRPM, "rate-limit", cfg.RateLimitRPM, "Requests per minute allowed per client")
	fs.IntVar(&cfg.RateLimitBurst, "rate-burst", cfg.RateLimitBurst, "Request burst allowed per client")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.ScoreRefreshInterval, err = time.ParseDuration(refreshIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid refresh interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.BlockInterval, err = time.ParseDuration(blockIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid block interval: %w", err)
	}

	if cfg.GenesisTime, err = time.Parse(time.RFC3339, genesisStr); err != nil {
		return nil, fmt.Errorf("invalid genesis time: %w", err)
	}

	if secretFile, ok := lookup("TOKEN_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read token secret file: %w", err)
		}
		cfg.TokenSecret = strings.TrimSpace(string(content))
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.ScoreRefreshBatch <= 0 {
		cfg.ScoreRefreshBatch = defaultScoreRefreshBatch
	}

	if cfg.ScoreRefreshInterval <= 0 {
		cfg.ScoreRefreshInterval = defaultScoreRefreshInterval
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.BlockInterval <= 0 {
		cfg.BlockInterval = defaultBlockInterval
	}

	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}

	if cfg.RateLimitRPM <= 0 {
		cfg.RateLimitRPM = defaultRateLimitRPM
	}

	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = defaultRateLimitBurst
	}

	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	switch cfg.StorageDriver {
	case StorageDriverPostgres:
		if cfg.DatabaseURI == "" {
			return nil, fmt.Errorf("database URI must be provided")
		}
	case StorageDriverLevelDB:
		if cfg.LevelDBPath == "" {
			return nil, fmt.Errorf("leveldb path must be provided")
		}
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	if cfg.OwnerPrincipal == "" {
		return nil, fmt.Errorf("owner principal must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getUint(lookup envLookup, key string, def uint64) uint64 {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
