// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connections and schema creation.

# Connecting

Open selects the driver from the configured database type:

	conn, err := db.Open("postgres", "postgres://...") // github.com/lib/pq
	conn, err := db.Open("sqlite", "file:villa.db")    // modernc.org/sqlite

SQLite connections are limited to one open connection with foreign keys on.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The DDL sticks to the subset both engines accept (TEXT ids, TIMESTAMP,
CURRENT_TIMESTAMP defaults, CHECK constraints).

# Tables

  - identity: Hashed anonymous identity tokens
  - profile: Display name per identity
  - rating_group: Groups with unique join codes
  - group_member: Membership rows
  - villa, villa_date_range: The rating catalog
  - rating: Stars per (group, villa, profile)

# Relationships

	profile 1──* rating_group (creator)
	rating_group *──* profile (via group_member)
	villa 1──* villa_date_range
	rating_group 1──* rating *──1 villa

# Keys

  - rating: PRIMARY KEY (group_id, villa_id, profile_id), upserted
  - group_member: PRIMARY KEY (group_id, profile_id)
  - rating_group.join_code: UNIQUE
  - profile.identity_ref: UNIQUE
*/
package db
