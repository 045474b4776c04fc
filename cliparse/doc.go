// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags and Environment Variables

	-p                  PORT              Server port (default 3318)
	-d                  DATABASE_URL      Database URL (required)
	-t                  DATABASE_TYPE     sqlite or postgres (default sqlite)
	-catalog            CATALOG_PATH      Villa catalog JSON to seed
	-identity-salt      IDENTITY_SALT     Identity token HMAC salt (required)
	-poll-interval      POLL_INTERVAL     Completion poll interval (default 2s)
	-poll-max-backoff   POLL_MAX_BACKOFF  Backoff cap after store errors (default 30s)
	-kafka-brokers      KAFKA_BROKERS     Comma-separated brokers (optional)
	-kafka-topic        KAFKA_TOPIC       Event topic (default villa-vote.events)
	-log-level          LOG_LEVEL         debug, info, warn, error (default info)

CLI flags take precedence over environment variables. main loads a .env file
into the environment before ParseFlags runs.

# Validation

ParseFlags returns an error if DATABASE_URL or IDENTITY_SALT is missing, if a
number or duration does not parse, or if DATABASE_TYPE is unknown.
POLL_MAX_BACKOFF is raised to POLL_INTERVAL when set lower.
*/
package cliparse
