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

// PoolDB implements repository.PoolRepository.
type PoolDB struct {
	conn *sql.DB
}

var _ repository.PoolRepository = (*PoolDB)(nil)

// Create inserts a pool and, when OwnerID is set, the owner's
// participant row in the same transaction: an authenticated creator is
// never owner of a pool they don't participate in, even if the process
// dies between the two statements.
//
// A code collision trips UNIQUE(code) and comes back as a conflict the
// service retries with a freshly generated code.
func (db *PoolDB) Create(ctx context.Context, pool *model.Pool) error {
	pool.ID = xid.New().String()
	pool.CreatedAt = time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning pool create tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO pools (id, title, code, owner_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		pool.ID,
		pool.Title,
		pool.Code,
		nullable(pool.OwnerID),
		pool.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("code", fmt.Sprintf("invite code %s is already taken", pool.Code))
		}
		return fmt.Errorf("sqlite: inserting pool (code=%s): %w", pool.Code, err)
	}

	if pool.OwnerID != "" {
		if err := insertParticipant(ctx, tx, pool.ID, pool.OwnerID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing pool create tx: %w", err)
	}
	return nil
}

// GetByCode retrieves a pool by its invite code.
func (db *PoolDB) GetByCode(ctx context.Context, code string) (*model.Pool, error) {
	p, err := scanPool(db.conn.QueryRowContext(ctx,
		`SELECT id, title, code, COALESCE(owner_id, ''), created_at
		 FROM pools WHERE code = ?`, code,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("pool", code)
		}
		return nil, fmt.Errorf("sqlite: getting pool by code %s: %w", code, err)
	}
	return p, nil
}

// Join admits userID into poolID and repairs ownership if the pool has
// none yet, all in one transaction.
//
// The ownership UPDATE is guarded by "owner_id IS NULL", so under
// concurrent joins of an unowned pool only the first committer becomes
// owner; everyone else's UPDATE matches zero rows. The UNIQUE(user_id,
// pool_id) constraint turns a racing duplicate join into a conflict
// instead of a second membership row.
func (db *PoolDB) Join(ctx context.Context, poolID, userID string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning join tx: %w", err)
	}
	defer tx.Rollback()

	// First joiner of an unowned pool adopts it. Temporary policy until
	// the web client creates pools behind authentication.
	_, err = tx.ExecContext(ctx,
		`UPDATE pools SET owner_id = ? WHERE id = ? AND owner_id IS NULL`,
		userID, poolID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: repairing pool %s ownership: %w", poolID, err)
	}

	if err := insertParticipant(ctx, tx, poolID, userID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing join tx: %w", err)
	}
	return nil
}

// insertParticipant adds a membership row inside an existing transaction.
func insertParticipant(ctx context.Context, tx *sql.Tx, poolID, userID string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO participants (id, user_id, pool_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		xid.New().String(),
		userID,
		poolID,
		time.Now(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("code", "You already joined this pool.")
		}
		return fmt.Errorf("sqlite: inserting participant (pool=%s user=%s): %w", poolID, userID, err)
	}
	return nil
}

// HasParticipant reports whether the user already belongs to the pool.
func (db *PoolDB) HasParticipant(ctx context.Context, poolID, userID string) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM participants WHERE pool_id = ? AND user_id = ?)`,
		poolID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking participant (pool=%s user=%s): %w", poolID, userID, err)
	}
	return exists, nil
}

// GetParticipant returns the membership row linking the user to the pool.
func (db *PoolDB) GetParticipant(ctx context.Context, poolID, userID string) (*model.Participant, error) {
	var p model.Participant
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, pool_id, created_at
		 FROM participants WHERE pool_id = ? AND user_id = ?`,
		poolID, userID,
	).Scan(&p.ID, &p.UserID, &p.PoolID, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("participant", fmt.Sprintf("pool=%s user=%s", poolID, userID))
		}
		return nil, fmt.Errorf("sqlite: getting participant (pool=%s user=%s): %w", poolID, userID, err)
	}
	return &p, nil
}

// ListForUser returns the pools the user participates in, each decorated
// with participant count, up to 4 sample avatars, and the owner.
func (db *PoolDB) ListForUser(ctx context.Context, userID string) ([]model.PoolSummary, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT p.id, p.title, p.code, COALESCE(p.owner_id, ''), p.created_at
		 FROM pools p
		 JOIN participants me ON me.pool_id = p.id AND me.user_id = ?
		 ORDER BY p.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing pools for user %s: %w", userID, err)
	}
	defer rows.Close()

	summaries := []model.PoolSummary{}
	for rows.Next() {
		p, err := scanPool(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning pool row: %w", err)
		}
		summaries = append(summaries, model.PoolSummary{Pool: *p})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating pools: %w", err)
	}

	// Decorate each pool. N+1 queries, which is fine at "friends betting
	// on the World Cup" scale and keeps each query trivial to read.
	for i := range summaries {
		if err := db.decorateSummary(ctx, &summaries[i]); err != nil {
			return nil, err
		}
	}

	return summaries, nil
}

// GetSummaryByID returns the decorated detail view of one pool.
//
// Note: no membership check. The original server's comment said the pool
// "must be one of the pools the logged user has joined" but its code
// never enforced that; we keep the observed behavior until the product
// question is settled.
func (db *PoolDB) GetSummaryByID(ctx context.Context, id string) (*model.PoolSummary, error) {
	p, err := scanPool(db.conn.QueryRowContext(ctx,
		`SELECT id, title, code, COALESCE(owner_id, ''), created_at
		 FROM pools WHERE id = ?`, id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("pool", id)
		}
		return nil, fmt.Errorf("sqlite: getting pool %s: %w", id, err)
	}

	summary := model.PoolSummary{Pool: *p}
	if err := db.decorateSummary(ctx, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Count returns the total number of pools (the public landing-page
// counter).
func (db *PoolDB) Count(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM pools`).Scan(&count); err != nil {
		return 0, fmt.Errorf("sqlite: counting pools: %w", err)
	}
	return count, nil
}

// decorateSummary fills in participant count, sample avatars, and owner.
func (db *PoolDB) decorateSummary(ctx context.Context, s *model.PoolSummary) error {
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participants WHERE pool_id = ?`, s.ID,
	).Scan(&s.ParticipantCount)
	if err != nil {
		return fmt.Errorf("sqlite: counting participants for pool %s: %w", s.ID, err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT u.avatar_url
		 FROM participants pa
		 JOIN users u ON u.id = pa.user_id
		 WHERE pa.pool_id = ?
		 ORDER BY pa.created_at ASC
		 LIMIT 4`,
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: sampling avatars for pool %s: %w", s.ID, err)
	}
	defer rows.Close()

	s.SampleAvatars = []string{}
	for rows.Next() {
		var avatar string
		if err := rows.Scan(&avatar); err != nil {
			return fmt.Errorf("sqlite: scanning avatar row: %w", err)
		}
		s.SampleAvatars = append(s.SampleAvatars, avatar)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating avatars: %w", err)
	}

	if s.OwnerID != "" {
		var owner model.PoolOwner
		err := db.conn.QueryRowContext(ctx,
			`SELECT id, name FROM users WHERE id = ?`, s.OwnerID,
		).Scan(&owner.ID, &owner.Name)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("sqlite: getting owner for pool %s: %w", s.ID, err)
		}
		if err == nil {
			s.Owner = &owner
		}
	}

	return nil
}

func scanPool(row scanner) (*model.Pool, error) {
	var p model.Pool
	err := row.Scan(&p.ID, &p.Title, &p.Code, &p.OwnerID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
