package db

import (
	"context"
	"encoding/json"

	"campus-chat/internal/models"
)

// UpsertProfile creates or replaces a profile
func (d *DB) UpsertProfile(ctx context.Context, p models.Profile) error {
	tags, err := json.Marshal(nonNilTags(p.Tags))
	if err != nil {
		return err
	}

	return d.WithLock(func() error {
		_, err := d.db.ExecContext(ctx,
			`INSERT INTO profiles (user_id, name, email, avatar, bio, tags, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(user_id) DO UPDATE SET
				name = excluded.name,
				email = excluded.email,
				avatar = excluded.avatar,
				bio = excluded.bio,
				tags = excluded.tags,
				updated_at = excluded.updated_at`,
			p.UserID, p.Name, p.Email, p.Avatar, p.Bio, string(tags), p.UpdatedAt.UTC(),
		)
		return err
	})
}

// GetProfile retrieves a profile by user ID
func (d *DB) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	return WithLockResult(d, func() (*models.Profile, error) {
		var p models.Profile
		var tags string
		err := d.db.QueryRowContext(ctx,
			`SELECT user_id, name, email, avatar, bio, tags, updated_at FROM profiles WHERE user_id = ?`,
			userID,
		).Scan(&p.UserID, &p.Name, &p.Email, &p.Avatar, &p.Bio, &tags, &p.UpdatedAt)
		if err != nil {
			return nil, notFound(err)
		}
		if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
			return nil, err
		}
		p.Tags = nonNilTags(p.Tags)
		return &p, nil
	})
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
