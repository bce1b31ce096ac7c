package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fleet-ops-api/internal/models"
)

const (
	userColumns    = `id, email, password_hash, full_name, role, active, last_login, created_at, updated_at`
	sessionColumns = `id, user_id, token_hash, expires_at, created_at, revoked_at, ip_address, user_agent`
)

// UserRepository reads office accounts and manages their refresh sessions.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail matches the address case-insensitively.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findUser(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1`, email)
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 LIMIT 1`, id)
}

func (r *UserRepository) findUser(ctx context.Context, query string, arg string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// TouchLastLogin stamps a successful sign in.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET last_login = $2, updated_at = $2 WHERE id = $1`, id, at); err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

// CreateSession persists a refresh session.
func (r *UserRepository) CreateSession(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO refresh_tokens (` + sessionColumns + `)
		VALUES (:id, :user_id, :token_hash, :expires_at, :created_at, :revoked_at, :ip_address, :user_agent)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// FindSession looks a session up by the digest of its token.
func (r *UserRepository) FindSession(ctx context.Context, tokenHash string) (*models.Session, error) {
	var session models.Session
	query := `SELECT ` + sessionColumns + ` FROM refresh_tokens WHERE token_hash = $1 LIMIT 1`
	if err := r.db.GetContext(ctx, &session, query, tokenHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &session, nil
}

// RevokeSession closes one session. Already revoked sessions keep their
// original timestamp.
func (r *UserRepository) RevokeSession(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE refresh_tokens SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// RevokeSessions closes every open session of a user and reports how many
// were affected.
func (r *UserRepository) RevokeSessions(ctx context.Context, userID string, at time.Time) (int64, error) {
	const query = `UPDATE refresh_tokens SET revoked_at = $2 WHERE user_id = $1 AND revoked_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, userID, at)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
