package db

// Migrate runs all database migrations
func (d *DB) Migrate() error {
	return d.WithLock(func() error {
		_, err := d.db.Exec(`
			CREATE TABLE IF NOT EXISTS sessions (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				avatar TEXT NOT NULL DEFAULT '',
				kind TEXT NOT NULL CHECK(kind IN ('ai', 'direct', 'group')),
				status TEXT NOT NULL CHECK(status IN ('active', 'pending', 'blocked')),
				last_message TEXT NOT NULL DEFAULT '',
				last_message_time TEXT NOT NULL DEFAULT '',
				position INTEGER NOT NULL DEFAULT 0
			)
		`)
		if err != nil {
			return err
		}

		// seq is the append order; reads sort on it so read order equals append order
		_, err = d.db.Exec(`
			CREATE TABLE IF NOT EXISTS messages (
				seq INTEGER PRIMARY KEY AUTOINCREMENT,
				id TEXT NOT NULL UNIQUE,
				session_id TEXT NOT NULL,
				sender_id TEXT NOT NULL,
				text TEXT NOT NULL,
				is_ai INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL,
				FOREIGN KEY (session_id) REFERENCES sessions(id)
			)
		`)
		if err != nil {
			return err
		}

		_, err = d.db.Exec(`
			CREATE TABLE IF NOT EXISTS profiles (
				user_id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				email TEXT NOT NULL DEFAULT '',
				avatar TEXT NOT NULL DEFAULT '',
				bio TEXT NOT NULL DEFAULT '',
				tags TEXT NOT NULL DEFAULT '[]',
				updated_at DATETIME NOT NULL
			)
		`)
		if err != nil {
			return err
		}

		indexes := []string{
			"CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, seq)",
			"CREATE INDEX IF NOT EXISTS idx_sessions_position ON sessions(position)",
		}

		for _, idx := range indexes {
			if _, err := d.db.Exec(idx); err != nil {
				return err
			}
		}

		return nil
	})
}
