package db

import (
	"context"
	"database/sql"
	"slices"

	"campus-chat/internal/models"
)

const messageColumns = `id, session_id, sender_id, text, is_ai, created_at`

// InsertMessage appends a message to its session's thread.
// When allowed is non-empty the append only happens if the session's status is
// one of them; otherwise a *StatusError is returned and nothing is written.
// The status check and the insert run under the same lock.
func (d *DB) InsertMessage(ctx context.Context, m models.Message, allowed ...models.SessionStatus) error {
	return d.WithLock(func() error {
		var status string
		err := d.db.QueryRowContext(ctx,
			`SELECT status FROM sessions WHERE id = ?`, m.SessionID,
		).Scan(&status)
		if err != nil {
			return notFound(err)
		}

		if len(allowed) > 0 && !slices.Contains(allowed, models.SessionStatus(status)) {
			return &StatusError{SessionID: m.SessionID, Status: models.SessionStatus(status)}
		}

		_, err = d.db.ExecContext(ctx,
			`INSERT INTO messages (`+messageColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
			m.ID, m.SessionID, m.SenderID, m.Text, m.IsAI, m.CreatedAt.UTC(),
		)
		return err
	})
}

// ListMessages returns a session's thread in append order
func (d *DB) ListMessages(ctx context.Context, sessionID string) ([]models.Message, error) {
	return WithLockResult(d, func() ([]models.Message, error) {
		rows, err := d.db.QueryContext(ctx,
			`SELECT `+messageColumns+` FROM messages WHERE session_id = ? ORDER BY seq ASC`,
			sessionID,
		)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		messages := []models.Message{}
		for rows.Next() {
			m, err := scanMessage(rows)
			if err != nil {
				return nil, err
			}
			messages = append(messages, *m)
		}
		return messages, rows.Err()
	})
}

// LastMessage returns the most recently appended message of a session
func (d *DB) LastMessage(ctx context.Context, sessionID string) (*models.Message, error) {
	return WithLockResult(d, func() (*models.Message, error) {
		row := d.db.QueryRowContext(ctx,
			`SELECT `+messageColumns+` FROM messages WHERE session_id = ? ORDER BY seq DESC LIMIT 1`,
			sessionID,
		)
		m, err := scanMessage(row)
		if err != nil {
			return nil, notFound(err)
		}
		return m, nil
	})
}

func scanMessage(row rowScanner) (*models.Message, error) {
	var m models.Message
	var isAI sql.NullBool
	if err := row.Scan(&m.ID, &m.SessionID, &m.SenderID, &m.Text, &isAI, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.IsAI = isAI.Valid && isAI.Bool
	return &m, nil
}
