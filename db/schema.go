// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// The statements stay within the SQL subset shared by PostgreSQL and SQLite.
const schema = `
-- Anonymous identities (only token hashes are stored)
CREATE TABLE IF NOT EXISTS identity (
    id TEXT PRIMARY KEY,
    token_hash TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    revoked_at TIMESTAMP
);

-- Profiles
CREATE TABLE IF NOT EXISTS profile (
    id TEXT PRIMARY KEY,
    identity_ref TEXT NOT NULL UNIQUE,
    username TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Rating groups
CREATE TABLE IF NOT EXISTS rating_group (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    creator_id TEXT NOT NULL REFERENCES profile(id),
    join_code TEXT NOT NULL UNIQUE,
    status TEXT NOT NULL DEFAULT 'lobby' CHECK (status IN ('lobby', 'rating', 'finished')),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_rating_group_join_code ON rating_group(join_code);

-- Group membership
CREATE TABLE IF NOT EXISTS group_member (
    group_id TEXT NOT NULL REFERENCES rating_group(id) ON DELETE CASCADE,
    profile_id TEXT NOT NULL REFERENCES profile(id) ON DELETE CASCADE,
    joined_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (group_id, profile_id)
);

CREATE INDEX IF NOT EXISTS idx_group_member_group_id ON group_member(group_id);

-- Villa catalog
CREATE TABLE IF NOT EXISTS villa (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    country TEXT NOT NULL DEFAULT '',
    city TEXT NOT NULL DEFAULT '',
    address TEXT,
    link TEXT NOT NULL DEFAULT '',
    images TEXT NOT NULL DEFAULT '[]',
    additional_information TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS villa_date_range (
    id TEXT PRIMARY KEY,
    villa_id TEXT NOT NULL REFERENCES villa(id) ON DELETE CASCADE,
    start_date TIMESTAMP NOT NULL,
    end_date TIMESTAMP NOT NULL,
    price_min BIGINT NOT NULL,
    price_max BIGINT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_villa_date_range_villa_id ON villa_date_range(villa_id);

-- Ratings (one row per group, villa, rater)
CREATE TABLE IF NOT EXISTS rating (
    group_id TEXT NOT NULL REFERENCES rating_group(id) ON DELETE CASCADE,
    villa_id TEXT NOT NULL REFERENCES villa(id) ON DELETE CASCADE,
    profile_id TEXT NOT NULL REFERENCES profile(id) ON DELETE CASCADE,
    stars INTEGER NOT NULL CHECK (stars >= 1 AND stars <= 5),
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (group_id, villa_id, profile_id)
);

CREATE INDEX IF NOT EXISTS idx_rating_group_id ON rating(group_id);
`
