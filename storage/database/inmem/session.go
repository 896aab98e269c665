package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/kitabiapp/kitabi/core"
	"github.com/kitabiapp/kitabi/core/session"
)

type sessionRepository struct {
	db *sessionTable
}

var _ session.Repository = (*sessionRepository)(nil)

func NewSessionRepository(db *DB) *sessionRepository {
	return &sessionRepository{db: db.session}
}

// NewFallbackSessionRepository returns a session store over a fresh private
// table, for use as the ephemeral store after a database degrade.
func NewFallbackSessionRepository() *sessionRepository {
	return &sessionRepository{db: &sessionTable{table: make(map[string]*session.Session)}}
}

func (repo *sessionRepository) CreateSession(_ context.Context, sess session.Session, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[sess.Token] = &sess
	return nil
}

func (repo *sessionRepository) GetSession(_ context.Context, token string, _ ...core.DBExecutor) (session.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sess, ok := repo.db.table[token]; ok {
		return *sess, nil
	}
	return session.Session{}, session.ErrNotFound
}

func (repo *sessionRepository) TouchSession(_ context.Context, token string, at time.Time, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	sess, ok := repo.db.table[token]
	if !ok {
		return session.ErrNotFound
	}
	sess.LastActivity = at
	return nil
}

func (repo *sessionRepository) DeleteSession(_ context.Context, token string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.table, token)
	return nil
}

func (repo *sessionRepository) DeleteStaleSessions(_ context.Context, userID string, now, inactiveBefore time.Time, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for token, sess := range repo.db.table {
		if sess.UserID != userID {
			continue
		}
		if sess.ExpiresAt.Before(now) || (!inactiveBefore.IsZero() && sess.LastActivity.Before(inactiveBefore)) {
			delete(repo.db.table, token)
		}
	}
	return nil
}

func (repo *sessionRepository) QueryUserSessions(_ context.Context, userID string, _ ...core.DBExecutor) ([]session.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sessions := make([]session.Session, 0)
	for _, sess := range repo.db.table {
		if sess.UserID == userID {
			sessions = append(sessions, *sess)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].CreatedAt.Before(sessions[j].CreatedAt) })
	return sessions, nil
}
