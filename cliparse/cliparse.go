package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"
)

type Config struct {
	Port            int
	DatabaseURL     string
	DatabaseType    string
	AdminKeySalt    string
	FingerprintSalt string
	ShardCount      int
}

// ParseFlags validates flags and fills in environment fallbacks
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("gala-vote", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.IntVar(&cfg.ShardCount, "shards", 0, "Tally shards per candidate")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminKeySalt, "admin-salt", "", "Admin key salt (prefer env)")
	fs.StringVar(&cfg.FingerprintSalt, "fingerprint-salt", "", "Device fingerprint salt (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3319 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}

	if cfg.ShardCount == 0 {
		if s := os.Getenv("SHARD_COUNT"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return Config{}, errors.New("invalid SHARD_COUNT env variable")
			}
			cfg.ShardCount = n
		} else {
			cfg.ShardCount = 10
		}
	}

	// Secrets - MUST be provided
	if cfg.AdminKeySalt == "" {
		cfg.AdminKeySalt = os.Getenv("ADMIN_KEY_SALT")
	}
	if cfg.AdminKeySalt == "" {
		return Config{}, errors.New("ADMIN_KEY_SALT required")
	}

	if cfg.FingerprintSalt == "" {
		cfg.FingerprintSalt = os.Getenv("FINGERPRINT_SALT")
	}
	if cfg.FingerprintSalt == "" {
		return Config{}, errors.New("FINGERPRINT_SALT required")
	}

	return cfg, nil
}
