package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPort           = 3318
	DefaultPollInterval   = 2 * time.Second
	DefaultPollMaxBackoff = 30 * time.Second
	DefaultKafkaTopic     = "villa-vote.events"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	IdentitySalt string
	CatalogPath  string

	PollInterval   time.Duration
	PollMaxBackoff time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	LogLevel string
}

// ParseFlags validates flags and fills unset values from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var kafkaBrokers string

	fs := flag.NewFlagSet("villa-vote", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.CatalogPath, "catalog", "", "Villa catalog JSON seeded into an empty store")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.IdentitySalt, "identity-salt", "", "Identity token salt (prefer env)")

	// Completion polling
	fs.DurationVar(&cfg.PollInterval, "poll-interval", 0, "Completion poll interval")
	fs.DurationVar(&cfg.PollMaxBackoff, "poll-max-backoff", 0, "Upper bound for poll backoff after store errors")

	// Event mirroring
	fs.StringVar(&kafkaBrokers, "kafka-brokers", "", "Comma-separated Kafka brokers (optional)")
	fs.StringVar(&cfg.KafkaTopic, "kafka-topic", "", "Kafka topic for group events")

	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")

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
			cfg.Port = DefaultPort
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
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, errors.New("database type must be sqlite or postgres")
	}

	if cfg.CatalogPath == "" {
		cfg.CatalogPath = os.Getenv("CATALOG_PATH")
	}

	var err error
	if cfg.PollInterval, err = durationOrEnv(cfg.PollInterval, "POLL_INTERVAL", DefaultPollInterval); err != nil {
		return Config{}, err
	}
	if cfg.PollMaxBackoff, err = durationOrEnv(cfg.PollMaxBackoff, "POLL_MAX_BACKOFF", DefaultPollMaxBackoff); err != nil {
		return Config{}, err
	}
	if cfg.PollMaxBackoff < cfg.PollInterval {
		cfg.PollMaxBackoff = cfg.PollInterval
	}

	if kafkaBrokers == "" {
		kafkaBrokers = os.Getenv("KAFKA_BROKERS")
	}
	for _, b := range strings.Split(kafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
		}
	}
	if cfg.KafkaTopic == "" {
		cfg.KafkaTopic = os.Getenv("KAFKA_TOPIC")
		if cfg.KafkaTopic == "" {
			cfg.KafkaTopic = DefaultKafkaTopic
		}
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = os.Getenv("LOG_LEVEL")
		if cfg.LogLevel == "" {
			cfg.LogLevel = "info"
		}
	}

	// Secrets - MUST be provided
	if cfg.IdentitySalt == "" {
		cfg.IdentitySalt = os.Getenv("IDENTITY_SALT")
	}
	if cfg.IdentitySalt == "" {
		return Config{}, errors.New("IDENTITY_SALT required")
	}

	return cfg, nil
}

func durationOrEnv(flagValue time.Duration, env string, def time.Duration) (time.Duration, error) {
	if flagValue > 0 {
		return flagValue, nil
	}
	s := os.Getenv(env)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + env + " env variable")
	}
	return d, nil
}
