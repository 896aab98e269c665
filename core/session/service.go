package session

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/kitabiapp/kitabi/core"
)

var (
	// errors
	ErrNotFound = errors.New("session not found")
	ErrExpired  = errors.New("session expired")
	ErrInactive = errors.New("session inactive for too long")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateSession(ctx context.Context, sess Session, exec ...core.DBExecutor) error
		GetSession(ctx context.Context, token string, exec ...core.DBExecutor) (Session, error)
		TouchSession(ctx context.Context, token string, at time.Time, exec ...core.DBExecutor) error
		DeleteSession(ctx context.Context, token string, exec ...core.DBExecutor) error
		// DeleteStaleSessions removes the user's sessions that are past expiry
		// or, when inactiveBefore is non-zero, idle since before it.
		DeleteStaleSessions(ctx context.Context, userID string, now, inactiveBefore time.Time, exec ...core.DBExecutor) error
		QueryUserSessions(ctx context.Context, userID string, exec ...core.DBExecutor) ([]Session, error)
	}

	Service struct {
		conf   *core.Config
		logger core.Logger

		mu       sync.Mutex
		mode     StoreMode
		repo     Repository // persistent store
		fallback Repository // in-memory store, used after degrade
	}
)

func NewService(repo, fallback Repository, conf *core.Config, logger core.Logger) *Service {
	return &Service{
		conf:     conf,
		logger:   logger,
		mode:     ModePersistent,
		repo:     repo,
		fallback: fallback,
	}
}

// Mode reports where sessions are currently stored.
func (svc *Service) Mode() StoreMode {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.mode
}

// store returns the active repository for the current mode.
func (svc *Service) store() Repository {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.mode == ModeEphemeral {
		return svc.fallback
	}
	return svc.repo
}

// degrade switches the service to the in-memory store. One-way: sessions
// keep working scoped to this process instead of hard-failing all access.
func (svc *Service) degrade(err error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.mode == ModeEphemeral {
		return
	}
	svc.mode = ModeEphemeral
	svc.logger.Error("session store unavailable, degrading to ephemeral mode", err)
}

// trapStoreErr degrades on store failures; ErrNotFound is a normal miss.
func (svc *Service) trapStoreErr(err error) {
	if err == nil || errors.Cause(err) == ErrNotFound {
		return
	}
	svc.degrade(err)
}

// Create opens a new session for userID on deviceID. Admin sessions run a
// cleanup pass of stale rows first, then enforce the concurrent-session cap
// by evicting the single oldest session (by CreatedAt).
func (svc *Service) Create(ctx context.Context, userID, deviceID string, admin bool) (Session, error) {
	now := nowFunc().UTC()
	duration := svc.conf.Session.Duration
	if admin {
		duration = svc.conf.Session.AdminDuration
	}
	sess := Session{
		Token:        NewToken(),
		UserID:       userID,
		DeviceID:     deviceID,
		IsAdmin:      admin,
		CreatedAt:    now,
		LastActivity: now,
		ExpiresAt:    now.Add(duration),
	}

	store := svc.store()
	if admin {
		inactiveBefore := now.Add(-svc.conf.Session.InactivityTimeout)
		if err := store.DeleteStaleSessions(ctx, userID, now, inactiveBefore); err != nil {
			svc.trapStoreErr(err)
			store = svc.store()
		}
		if err := svc.evictOverCap(ctx, store, userID); err != nil {
			svc.trapStoreErr(err)
			store = svc.store()
		}
	}

	if err := store.CreateSession(ctx, sess); err != nil {
		svc.trapStoreErr(err)
		if svc.Mode() == ModeEphemeral && store != svc.fallback {
			if err = svc.fallback.CreateSession(ctx, sess); err != nil {
				return Session{}, errors.Wrap(err, "creating session")
			}
			return sess, nil
		}
		return Session{}, errors.Wrap(err, "creating session")
	}
	return sess, nil
}

// evictOverCap deletes oldest sessions until a slot is free for one more.
func (svc *Service) evictOverCap(ctx context.Context, store Repository, userID string) error {
	sessions, err := store.QueryUserSessions(ctx, userID)
	if err != nil {
		return err
	}
	for len(sessions) >= svc.conf.Session.MaxConcurrent {
		oldest := sessions[0]
		for _, s := range sessions[1:] {
			if s.CreatedAt.Before(oldest.CreatedAt) {
				oldest = s
			}
		}
		if err = store.DeleteSession(ctx, oldest.Token); err != nil {
			return err
		}
		remaining := sessions[:0]
		for _, s := range sessions {
			if s.Token != oldest.Token {
				remaining = append(remaining, s)
			}
		}
		sessions = remaining
	}
	return nil
}

// Verify checks token and, on success, refreshes the session's LastActivity.
// Sessions past expiry or past the inactivity timeout are evicted and fail.
func (svc *Service) Verify(ctx context.Context, token string) (Session, error) {
	store := svc.store()
	sess, err := store.GetSession(ctx, token)
	if err != nil {
		svc.trapStoreErr(err)
		return Session{}, err
	}

	now := nowFunc().UTC()
	if now.After(sess.ExpiresAt) {
		if err = store.DeleteSession(ctx, token); err != nil {
			svc.trapStoreErr(err)
		}
		return Session{}, ErrExpired
	}
	if sess.IsAdmin && now.Sub(sess.LastActivity) >= svc.conf.Session.InactivityTimeout {
		if err = store.DeleteSession(ctx, token); err != nil {
			svc.trapStoreErr(err)
		}
		return Session{}, ErrInactive
	}

	if err = store.TouchSession(ctx, token, now); err != nil {
		svc.trapStoreErr(err)
		return Session{}, errors.Wrap(err, "refreshing session activity")
	}
	sess.LastActivity = now
	return sess, nil
}

// Logout deletes the session; a missing token is not an error.
func (svc *Service) Logout(ctx context.Context, token string) error {
	if err := svc.store().DeleteSession(ctx, token); err != nil && errors.Cause(err) != ErrNotFound {
		svc.trapStoreErr(err)
		return errors.Wrap(err, "deleting session")
	}
	return nil
}

// ForUser lists the user's live sessions.
func (svc *Service) ForUser(ctx context.Context, userID string) ([]Session, error) {
	return svc.store().QueryUserSessions(ctx, userID)
}
