package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kitabiapp/kitabi/core"
	"github.com/kitabiapp/kitabi/core/session"
)

type sessionRepository struct {
	repository
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(exec core.DBExecutor) *sessionRepository {
	return &sessionRepository{repository{exec: exec}}
}

type sessionRow struct {
	Token        string      `db:"token"`
	UserID       string      `db:"user_id"`
	DeviceID     null.String `db:"device_id"`
	IsAdmin      bool        `db:"is_admin"`
	CreatedAt    time.Time   `db:"created_at"`
	LastActivity time.Time   `db:"last_activity"`
	ExpiresAt    time.Time   `db:"expires_at"`
}

func (r sessionRow) toSession() session.Session {
	return session.Session{
		Token:        r.Token,
		UserID:       r.UserID,
		DeviceID:     r.DeviceID.String,
		IsAdmin:      r.IsAdmin,
		CreatedAt:    r.CreatedAt,
		LastActivity: r.LastActivity,
		ExpiresAt:    r.ExpiresAt,
	}
}

const sessionColumns = `token, user_id, device_id, is_admin, created_at, last_activity, expires_at`

func (repo sessionRepository) CreateSession(ctx context.Context, sess session.Session, exec ...core.DBExecutor) error {
	_, err := repo.getExec(exec).ExecContext(ctx,
		`INSERT INTO session (`+sessionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sess.Token, sess.UserID,
		null.NewString(sess.DeviceID, sess.DeviceID != ""),
		sess.IsAdmin, sess.CreatedAt.UTC(), sess.LastActivity.UTC(), sess.ExpiresAt.UTC(),
	)
	return errors.Wrap(err, "inserting session")
}

func (repo sessionRepository) GetSession(ctx context.Context, token string, exec ...core.DBExecutor) (session.Session, error) {
	var row sessionRow
	err := repo.getExec(exec).GetContext(ctx, &row,
		`SELECT `+sessionColumns+` FROM session WHERE token = $1`, token)
	if err != nil {
		return session.Session{}, trapNoRowsErr(err, session.ErrNotFound, "getting session")
	}
	return row.toSession(), nil
}

func (repo sessionRepository) TouchSession(ctx context.Context, token string, at time.Time, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx,
		`UPDATE session SET last_activity = $1 WHERE token = $2`, at.UTC(), token)
	if err != nil {
		return errors.Wrap(err, "touching session")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return session.ErrNotFound
	}
	return nil
}

func (repo sessionRepository) DeleteSession(ctx context.Context, token string, exec ...core.DBExecutor) error {
	_, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM session WHERE token = $1`, token)
	return errors.Wrap(err, "deleting session")
}

func (repo sessionRepository) DeleteStaleSessions(ctx context.Context, userID string, now, inactiveBefore time.Time, exec ...core.DBExecutor) error {
	query := `DELETE FROM session WHERE user_id = $1 AND (expires_at < $2`
	args := []interface{}{userID, now.UTC()}
	if !inactiveBefore.IsZero() {
		query += ` OR last_activity < $3`
		args = append(args, inactiveBefore.UTC())
	}
	query += `)`
	_, err := repo.getExec(exec).ExecContext(ctx, query, args...)
	return errors.Wrap(err, "deleting stale sessions")
}

func (repo sessionRepository) QueryUserSessions(ctx context.Context, userID string, exec ...core.DBExecutor) ([]session.Session, error) {
	var rows []sessionRow
	err := repo.getExec(exec).SelectContext(ctx, &rows,
		`SELECT `+sessionColumns+` FROM session WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying sessions")
	}
	sessions := make([]session.Session, 0, len(rows))
	for _, r := range rows {
		sessions = append(sessions, r.toSession())
	}
	return sessions, nil
}
