package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetUserResume retrieves the stored resume for a user. Returns nil, nil when
// the user has never saved one.
func (db *DB) GetUserResume(ctx context.Context, userID uuid.UUID) (*UserResume, error) {
	var r UserResume
	err := db.pool.QueryRow(ctx,
		`SELECT id, user_id, resume_data, created_at, updated_at
		 FROM user_resumes WHERE user_id = $1`,
		userID,
	).Scan(&r.ID, &r.UserID, &r.Data, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}
	return &r, nil
}

// UpsertUserResume stores resume as the user's single resume and returns the
// server-assigned update time.
func (db *DB) UpsertUserResume(ctx context.Context, userID uuid.UUID, resume any) (time.Time, error) {
	data, err := json.Marshal(resume)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to marshal resume: %w", err)
	}

	var updatedAt time.Time
	err = db.pool.QueryRow(ctx,
		`INSERT INTO user_resumes (user_id, resume_data)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET resume_data = EXCLUDED.resume_data, updated_at = NOW()
		 RETURNING updated_at`,
		userID, data,
	).Scan(&updatedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to save resume: %w", err)
	}
	return updatedAt, nil
}

// DeleteUserResume removes the stored resume. Deleting a missing row is not an error.
func (db *DB) DeleteUserResume(ctx context.Context, userID uuid.UUID) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM user_resumes WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete resume: %w", err)
	}
	return nil
}
