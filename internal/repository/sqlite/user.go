package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/charlesaguiar/nlw-copa-server/internal/apperror"
	"github.com/charlesaguiar/nlw-copa-server/internal/model"
	"github.com/charlesaguiar/nlw-copa-server/internal/repository"
)

// UserDB implements repository.UserRepository.
type UserDB struct {
	conn *sql.DB
}

var _ repository.UserRepository = (*UserDB)(nil)

const userColumns = `id, name, email, COALESCE(password_hash, ''), COALESCE(google_id, ''), avatar_url, created_at, updated_at`

// nullable converts an empty string to NULL. password_hash and google_id
// must be stored as NULL when absent: two Google-less accounts with ''
// in a UNIQUE google_id column would collide, NULLs never do.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts a new user. The UNIQUE(email) constraint is the only
// duplicate check (no prior SELECT), so two concurrent signups with the
// same email race safely: one wins, the other gets the conflict.
func (db *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, google_id, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		nullable(user.PasswordHash),
		nullable(user.GoogleID),
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("email", "This e-mail is already in use by another user")
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	return nil
}

// GetByID retrieves a user by internal id.
// Returns apperror.ErrNotFound if no user exists with that id.
func (db *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, err := db.scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetByEmail retrieves a user by email (the local login path).
func (db *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := db.scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email %s: %w", email, err)
	}
	return u, nil
}

// FindOrCreateByGoogleID resolves a Google identity to exactly one user
// row.
//
// The insert uses ON CONFLICT(google_id) DO NOTHING and the row is read
// back afterwards, so two concurrent first logins with the same Google id
// both land on the single row the constraint admitted, with no
// read-then-write window. An email collision (a local-password account
// already owns the address) still errors: the two identity paths are
// never merged, the caller gets the conflict instead.
func (db *UserDB) FindOrCreateByGoogleID(ctx context.Context, user *model.User) (*model.User, error) {
	if user.GoogleID == "" {
		return nil, fmt.Errorf("sqlite: FindOrCreateByGoogleID requires a google id")
	}

	now := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, google_id, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, NULL, ?, ?, ?, ?)
		 ON CONFLICT(google_id) DO NOTHING`,
		xid.New().String(),
		user.Name,
		user.Email,
		user.GoogleID,
		user.AvatarURL,
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// UNIQUE(email) fired: the address belongs to a local account.
			return nil, apperror.Conflict("email", "This e-mail is already in use by another user")
		}
		return nil, fmt.Errorf("sqlite: inserting google user (googleID=%s): %w", user.GoogleID, err)
	}

	u, err := db.scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE google_id = ?`, user.GoogleID,
	))
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading back google user (googleID=%s): %w", user.GoogleID, err)
	}
	return u, nil
}

// List returns all users, oldest first.
func (db *UserDB) List(ctx context.Context) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := db.scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return users, nil
}

// Count returns the total number of users.
func (db *UserDB) Count(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("sqlite: counting users: %w", err)
	}
	return count, nil
}

// Delete removes a user. Participants and guesses go with them via the
// ON DELETE CASCADE foreign keys; pools they own stay behind and drop
// back to NULL ownership (admin deletion sits outside the normal
// one-way Unowned→Owned lifecycle).
func (db *UserDB) Delete(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func (db *UserDB) scanUser(row scanner) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.GoogleID,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
