package db

import (
	"context"

	"campus-chat/internal/models"
)

const sessionColumns = `id, name, avatar, kind, status, last_message, last_message_time, position`

// InsertSession stores a session unless one with the same id already exists.
// It reports whether a row was written.
func (d *DB) InsertSession(ctx context.Context, s models.Session) (bool, error) {
	return WithLockResult(d, func() (bool, error) {
		result, err := d.db.ExecContext(ctx,
			`INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO NOTHING`,
			s.ID, s.Name, s.Avatar, string(s.Kind), string(s.Status),
			s.LastMessage, s.LastMessageTime, s.Position,
		)
		if err != nil {
			return false, err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return false, err
		}
		return n > 0, nil
	})
}

// GetSession retrieves a session by ID
func (d *DB) GetSession(ctx context.Context, id string) (*models.Session, error) {
	return WithLockResult(d, func() (*models.Session, error) {
		row := d.db.QueryRowContext(ctx,
			`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
		s, err := scanSession(row)
		if err != nil {
			return nil, notFound(err)
		}
		return s, nil
	})
}

// ListSessions returns sessions in directory order.
// Sessions whose status equals exclude are skipped; an empty exclude returns all.
func (d *DB) ListSessions(ctx context.Context, exclude models.SessionStatus) ([]models.Session, error) {
	return WithLockResult(d, func() ([]models.Session, error) {
		rows, err := d.db.QueryContext(ctx,
			`SELECT `+sessionColumns+` FROM sessions
			 WHERE status != ?
			 ORDER BY position ASC, id ASC`,
			string(exclude),
		)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		sessions := []models.Session{}
		for rows.Next() {
			s, err := scanSession(rows)
			if err != nil {
				return nil, err
			}
			sessions = append(sessions, *s)
		}
		return sessions, rows.Err()
	})
}

// UpdateSessionStatus moves a session from one status to another.
// The write only happens when the stored status still equals from; the result
// reports whether it did.
func (d *DB) UpdateSessionStatus(ctx context.Context, id string, from, to models.SessionStatus) (bool, error) {
	return WithLockResult(d, func() (bool, error) {
		result, err := d.db.ExecContext(ctx,
			`UPDATE sessions SET status = ? WHERE id = ? AND status = ?`,
			string(to), id, string(from),
		)
		if err != nil {
			return false, err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return false, err
		}
		return n > 0, nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var s models.Session
	var kind, status string
	err := row.Scan(&s.ID, &s.Name, &s.Avatar, &kind, &status,
		&s.LastMessage, &s.LastMessageTime, &s.Position)
	if err != nil {
		return nil, err
	}
	s.Kind = models.SessionKind(kind)
	s.Status = models.SessionStatus(status)
	return &s, nil
}
