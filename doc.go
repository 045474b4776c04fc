// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Villa Vote API server.

Villa Vote lets a small group pick a holiday villa together. Members sign in
with a username, gather in a group by join code, rate every villa in the
catalog from 1 to 5 stars, and then see the catalog ranked by average rating.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=villa.db IDENTITY_SALT=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." --identity-salt ...

A .env file in the working directory is loaded first when present.

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
  - IDENTITY_SALT (--identity-salt): Secret for identity token HMAC

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - CATALOG_PATH (--catalog): Villa JSON seeded into an empty store
  - KAFKA_BROKERS (--kafka-brokers): Mirror group events to Kafka
  - LOG_LEVEL (--log-level): debug, info, warn or error

Logs are text on a terminal and JSON otherwise.

# Architecture

  - session: per-member screen state machine
  - completion: polls a group until every member has rated every villa
  - aggregate: averages and ranks villas
  - realtime: in-process group events, optionally mirrored to Kafka
  - catalog: villa JSON loading and seeding
  - store: SQL persistence
  - handlers, router, middleware: HTTP surface
  - auth, db, cliparse, models: supporting packages

See package documentation for each component.
*/
package main
