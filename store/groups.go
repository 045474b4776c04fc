// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielhkuo/villa-vote/models"
)

const groupColumns = `id, name, creator_id, join_code, status, created_at`

func scanGroup(row interface{ Scan(...any) error }) (models.Group, error) {
	var g models.Group
	err := row.Scan(&g.ID, &g.Name, &g.CreatorID, &g.JoinCode, &g.Status, &g.CreatedAt)
	return g, err
}

// CreateGroup inserts the group and the creator's membership in one
// transaction. Returns ErrJoinCodeTaken when joinCode collides.
func (s *Store) CreateGroup(ctx context.Context, name, creatorID, joinCode string) (models.Group, error) {
	g := models.Group{
		ID:        newID(),
		Name:      name,
		CreatorID: creatorID,
		JoinCode:  joinCode,
		Status:    models.StatusLobby,
		CreatedAt: s.now(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Group{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO rating_group (id, name, creator_id, join_code, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, g.ID, g.Name, g.CreatorID, g.JoinCode, g.Status, g.CreatedAt)
	if isUniqueViolation(err) {
		return models.Group{}, ErrJoinCodeTaken
	}
	if err != nil {
		return models.Group{}, fmt.Errorf("failed to insert group: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO group_member (group_id, profile_id, joined_at)
		VALUES ($1, $2, $3)
	`, g.ID, creatorID, g.CreatedAt)
	if err != nil {
		return models.Group{}, fmt.Errorf("failed to insert creator membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Group{}, fmt.Errorf("failed to commit group: %w", err)
	}
	return g, nil
}

// GroupByID looks up a group by id
func (s *Store) GroupByID(ctx context.Context, id string) (models.Group, error) {
	g, err := scanGroup(s.db.QueryRowContext(ctx, `
		SELECT `+groupColumns+` FROM rating_group WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return models.Group{}, ErrNotFound
	}
	if err != nil {
		return models.Group{}, fmt.Errorf("failed to query group: %w", err)
	}
	return g, nil
}

// GroupByJoinCode looks up a group by its (upper-case) join code
func (s *Store) GroupByJoinCode(ctx context.Context, joinCode string) (models.Group, error) {
	g, err := scanGroup(s.db.QueryRowContext(ctx, `
		SELECT `+groupColumns+` FROM rating_group WHERE join_code = $1
	`, joinCode))
	if err == sql.ErrNoRows {
		return models.Group{}, ErrNotFound
	}
	if err != nil {
		return models.Group{}, fmt.Errorf("failed to query group: %w", err)
	}
	return g, nil
}

// SetGroupStatus updates the informational status hint
func (s *Store) SetGroupStatus(ctx context.Context, groupID, status string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE rating_group SET status = $1 WHERE id = $2
	`, status, groupID)
	if err != nil {
		return fmt.Errorf("failed to update group status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddMember inserts a membership row. Joining twice is a no-op; inserted
// reports whether a new row was written.
func (s *Store) AddMember(ctx context.Context, groupID, profileID string) (inserted bool, err error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO group_member (group_id, profile_id, joined_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (group_id, profile_id) DO NOTHING
	`, groupID, profileID, s.now())
	if err != nil {
		return false, fmt.Errorf("failed to insert member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// RepairCreatorMembership re-adds the creator as a member when the row is
// missing. It returns true when a repair happened.
func (s *Store) RepairCreatorMembership(ctx context.Context, groupID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO group_member (group_id, profile_id, joined_at)
		SELECT id, creator_id, $2 FROM rating_group WHERE id = $1
		ON CONFLICT (group_id, profile_id) DO NOTHING
	`, groupID, s.now())
	if err != nil {
		return false, fmt.Errorf("failed to repair creator membership: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// ListMembers returns member profiles in join order
func (s *Store) ListMembers(ctx context.Context, groupID string) ([]models.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.identity_ref, p.username, p.created_at, p.updated_at
		FROM group_member gm
		JOIN profile p ON p.id = gm.profile_id
		WHERE gm.group_id = $1
		ORDER BY gm.joined_at, p.id
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	members := []models.Profile{}
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.IdentityRef, &p.Username, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, p)
	}
	return members, rows.Err()
}

// CountMembers returns the current membership size
func (s *Store) CountMembers(ctx context.Context, groupID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM group_member WHERE group_id = $1
	`, groupID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return n, nil
}
