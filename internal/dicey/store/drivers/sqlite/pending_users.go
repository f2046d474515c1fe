package sqlite

import (
	"context"
	"time"

	"github.com/diceydecisions/dicey/internal/dicey/domain"
)

type pendingUsersRepo struct {
	q querier
}

func (r *pendingUsersRepo) UpsertPendingUser(ctx context.Context, p domain.PendingUser) error {
	// Re-registration replaces the previous pending row, refreshing the
	// password hash and expiry.
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO pending_users (id, name, email, password_hash, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (email) DO UPDATE SET
		    name = excluded.name,
		    password_hash = excluded.password_hash,
		    expires_at = excluded.expires_at`,
		p.ID, p.Name, p.Email, p.PasswordHash, p.ExpiresAt, p.CreatedAt)
	return err
}

func (r *pendingUsersRepo) GetPendingUserByEmail(ctx context.Context, email string) (domain.PendingUser, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, expires_at, created_at
		 FROM pending_users WHERE email = ?`, email)

	var p domain.PendingUser
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.PasswordHash, &p.ExpiresAt, &p.CreatedAt); err != nil {
		return domain.PendingUser{}, mapNotFound(err)
	}
	return p, nil
}

func (r *pendingUsersRepo) DeletePendingUserByEmail(ctx context.Context, email string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM pending_users WHERE email = ?`, email)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *pendingUsersRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM pending_users WHERE expires_at < ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
