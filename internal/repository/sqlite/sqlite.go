// Package sqlite implements the repository interfaces on SQLite via the
// pure-Go modernc.org/sqlite driver (no CGo, cross-compiles anywhere).
//
// Every uniqueness rule in the data model is a real UNIQUE constraint
// here (email, google_id, pool code, (user_id, pool_id), and
// (participant_id, game_id)), so races between concurrent requests are
// settled by the database. This package's job is to translate the
// resulting constraint errors into apperror conflicts the service layer
// understands.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection pool and implements the repository
// interfaces. It is constructed once in server.New and closed on
// shutdown; there is no package-level singleton.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" for throwaway databases in tests.
//
// The session pragmas ride in the DSN because database/sql pools
// connections: an Exec would configure only whichever connection
// happened to run it, leaving the rest with foreign keys off and no
// busy timeout. WAL persists in the file but is harmless to re-request.
//
//   - journal_mode(WAL): reads proceed while a write is in flight.
//   - foreign_keys(1): off by default in SQLite; user deletion relies
//     on the cascades through participants and guesses.
//   - busy_timeout(5000): WAL still admits one writer at a time, and
//     waiting briefly beats surfacing SQLITE_BUSY to a request that
//     raced another write.
func New(dbPath string) (*DB, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// An in-memory database exists per connection; letting the pool grow
	// would hand each request a fresh, empty schema.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Callers defer this right after New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Users returns the user repository view over this database.
// The views share the underlying pool; they exist so each entity's
// methods live on their own receiver instead of piling up on DB.
func (db *DB) Users() *UserDB { return &UserDB{conn: db.conn} }

// Pools returns the pool/participant repository view.
func (db *DB) Pools() *PoolDB { return &PoolDB{conn: db.conn} }

// Games returns the game/guess repository view.
func (db *DB) Games() *GameDB { return &GameDB{conn: db.conn} }

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it safe
// to run on every start; a schema-versioning tool can replace this when
// the schema starts changing for real.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT,
			google_id     TEXT UNIQUE,
			avatar_url    TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS pools (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			code       TEXT NOT NULL UNIQUE,
			owner_id   TEXT REFERENCES users(id) ON DELETE SET NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS participants (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			pool_id    TEXT NOT NULL REFERENCES pools(id) ON DELETE CASCADE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, pool_id)
		);
		CREATE INDEX IF NOT EXISTS idx_participants_pool_id ON participants(pool_id);

		CREATE TABLE IF NOT EXISTS games (
			id                       TEXT PRIMARY KEY,
			date                     DATETIME NOT NULL,
			first_team_country_code  TEXT NOT NULL,
			second_team_country_code TEXT NOT NULL,
			created_at               DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS guesses (
			id                 TEXT PRIMARY KEY,
			participant_id     TEXT NOT NULL REFERENCES participants(id) ON DELETE CASCADE,
			game_id            TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			first_team_points  INTEGER NOT NULL,
			second_team_points INTEGER NOT NULL,
			created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (participant_id, game_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a UNIQUE (or primary key)
// constraint failure. Which constraint fired is unambiguous at each call
// site (every statement we run touches at most one UNIQUE rule), so
// callers map the violation to the right domain conflict themselves.
func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	code := serr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
