package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Upload is one finalized, redacted export.
type Upload struct {
	ID           string    `json:"id"`
	DonorID      string    `json:"donor_id"`
	Platform     string    `json:"platform"`
	FileName     string    `json:"file_name"`
	ObjectKey    string    `json:"object_key"`
	Donated      bool      `json:"donated"`
	RedactedKeys []string  `json:"redacted_keys"`
	SizeBytes    int64     `json:"size_bytes"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateUpload inserts a new upload record. The ID and CreatedAt fields are
// filled in on success.
func (db *DB) CreateUpload(ctx context.Context, u *Upload) error {
	u.ID = uuid.NewString()
	query := `
		INSERT INTO uploads (id, donor_id, platform, file_name, object_key, donated, redacted_keys, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`
	err := db.conn.QueryRowContext(ctx, query,
		u.ID, u.DonorID, u.Platform, u.FileName, u.ObjectKey, u.Donated,
		pq.Array(u.RedactedKeys), u.SizeBytes,
	).Scan(&u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create upload: %w", err)
	}
	return nil
}

// GetUpload retrieves an upload by ID.
func (db *DB) GetUpload(ctx context.Context, id string) (*Upload, error) {
	query := `
		SELECT id, donor_id, platform, file_name, object_key, donated, redacted_keys, size_bytes, created_at
		FROM uploads WHERE id = $1`

	var u Upload
	err := db.conn.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.DonorID, &u.Platform, &u.FileName, &u.ObjectKey,
		&u.Donated, pq.Array(&u.RedactedKeys), &u.SizeBytes, &u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUploadNotFound
		}
		return nil, fmt.Errorf("failed to get upload: %w", err)
	}
	return &u, nil
}

// ListUploads returns a donor's uploads, newest first.
func (db *DB) ListUploads(ctx context.Context, donorID string) ([]Upload, error) {
	query := `
		SELECT id, donor_id, platform, file_name, object_key, donated, redacted_keys, size_bytes, created_at
		FROM uploads WHERE donor_id = $1
		ORDER BY created_at DESC`

	rows, err := db.conn.QueryContext(ctx, query, donorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	uploads := []Upload{}
	for rows.Next() {
		var u Upload
		if err := rows.Scan(
			&u.ID, &u.DonorID, &u.Platform, &u.FileName, &u.ObjectKey,
			&u.Donated, pq.Array(&u.RedactedKeys), &u.SizeBytes, &u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		uploads = append(uploads, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate uploads: %w", err)
	}
	return uploads, nil
}

// DeleteUpload removes an upload record. The donor ID must match the row:
// the anonymous handle is the only proof of ownership the service has.
// Returns ErrUploadNotFound when the row does not exist and ErrForbidden on
// a donor mismatch.
func (db *DB) DeleteUpload(ctx context.Context, id, donorID string) error {
	var owner string
	err := db.conn.QueryRowContext(ctx,
		`SELECT donor_id FROM uploads WHERE id = $1`, id).Scan(&owner)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrUploadNotFound
		}
		return fmt.Errorf("failed to look up upload: %w", err)
	}
	if owner != donorID {
		return ErrForbidden
	}

	if _, err := db.conn.ExecContext(ctx,
		`DELETE FROM uploads WHERE id = $1 AND donor_id = $2`, id, donorID); err != nil {
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	return nil
}

// CountRecentUploads counts a donor's uploads since the cutoff, for the
// weekly quota check.
func (db *DB) CountRecentUploads(ctx context.Context, donorID string, since time.Time) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM uploads WHERE donor_id = $1 AND created_at >= $2`,
		donorID, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count uploads: %w", err)
	}
	return count, nil
}
