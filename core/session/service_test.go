package session

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/kitabiapp/kitabi/core"
	testutil "github.com/kitabiapp/kitabi/tests"
)

// memRepo is a minimal in-test store.
type memRepo struct {
	table map[string]Session
}

func newMemRepo() *memRepo { return &memRepo{table: make(map[string]Session)} }

func (r *memRepo) CreateSession(_ context.Context, sess Session, _ ...core.DBExecutor) error {
	r.table[sess.Token] = sess
	return nil
}

func (r *memRepo) GetSession(_ context.Context, token string, _ ...core.DBExecutor) (Session, error) {
	sess, ok := r.table[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	return sess, nil
}

func (r *memRepo) TouchSession(_ context.Context, token string, at time.Time, _ ...core.DBExecutor) error {
	sess, ok := r.table[token]
	if !ok {
		return ErrNotFound
	}
	sess.LastActivity = at
	r.table[token] = sess
	return nil
}

func (r *memRepo) DeleteSession(_ context.Context, token string, _ ...core.DBExecutor) error {
	delete(r.table, token)
	return nil
}

func (r *memRepo) DeleteStaleSessions(_ context.Context, userID string, now, inactiveBefore time.Time, _ ...core.DBExecutor) error {
	for token, sess := range r.table {
		if sess.UserID != userID {
			continue
		}
		if now.After(sess.ExpiresAt) || (!inactiveBefore.IsZero() && sess.LastActivity.Before(inactiveBefore)) {
			delete(r.table, token)
		}
	}
	return nil
}

func (r *memRepo) QueryUserSessions(_ context.Context, userID string, _ ...core.DBExecutor) ([]Session, error) {
	sessions := make([]Session, 0, len(r.table))
	for _, sess := range r.table {
		if sess.UserID == userID {
			sessions = append(sessions, sess)
		}
	}
	return sessions, nil
}

// failRepo errors on every call.
type failRepo struct{}

var errStoreDown = errors.New("store down")

func (failRepo) CreateSession(context.Context, Session, ...core.DBExecutor) error { return errStoreDown }
func (failRepo) GetSession(context.Context, string, ...core.DBExecutor) (Session, error) {
	return Session{}, errStoreDown
}
func (failRepo) TouchSession(context.Context, string, time.Time, ...core.DBExecutor) error {
	return errStoreDown
}
func (failRepo) DeleteSession(context.Context, string, ...core.DBExecutor) error {
	return errStoreDown
}
func (failRepo) DeleteStaleSessions(context.Context, string, time.Time, time.Time, ...core.DBExecutor) error {
	return errStoreDown
}
func (failRepo) QueryUserSessions(context.Context, string, ...core.DBExecutor) ([]Session, error) {
	return nil, errStoreDown
}

func newTestService(repo Repository) *Service {
	return NewService(repo, newMemRepo(), testutil.NewConfig(), testutil.NopLogger{})
}

func TestServiceVerify(t *testing.T) {
	defer func() { nowFunc = time.Now }()

	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return now }
	ctx := context.Background()

	repo := newMemRepo()
	svc := newTestService(repo)

	live := Session{
		Token:        NewToken(),
		UserID:       "u1",
		CreatedAt:    now.Add(-time.Hour),
		LastActivity: now.Add(-time.Hour),
		ExpiresAt:    now.Add(24 * time.Hour),
	}
	expired := Session{
		Token:        NewToken(),
		UserID:       "u1",
		CreatedAt:    now.Add(-48 * time.Hour),
		LastActivity: now.Add(-time.Minute),
		ExpiresAt:    now.Add(-time.Hour),
	}
	idleAdmin := Session{
		Token:        NewToken(),
		UserID:       "a1",
		IsAdmin:      true,
		CreatedAt:    now.Add(-2 * time.Hour),
		LastActivity: now.Add(-30 * time.Minute),
		ExpiresAt:    now.Add(12 * time.Hour),
	}
	busyAdmin := Session{
		Token:        NewToken(),
		UserID:       "a1",
		IsAdmin:      true,
		CreatedAt:    now.Add(-2 * time.Hour),
		LastActivity: now.Add(-29 * time.Minute),
		ExpiresAt:    now.Add(12 * time.Hour),
	}
	for _, sess := range []Session{live, expired, idleAdmin, busyAdmin} {
		if err := repo.CreateSession(ctx, sess); err != nil {
			t.Fatalf("CreateSession() failed: %v", err)
		}
	}

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "unknown token", token: "nope", wantErr: ErrNotFound},
		{name: "expired", token: expired.Token, wantErr: ErrExpired},
		{name: "admin idle too long", token: idleAdmin.Token, wantErr: ErrInactive},
		{name: "admin just under the timeout", token: busyAdmin.Token},
		{name: "live reader", token: live.Token},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, err := svc.Verify(ctx, tt.token)
			if errors.Cause(err) != tt.wantErr {
				t.Fatalf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if _, ok := repo.table[tt.token]; ok && tt.wantErr != ErrNotFound {
					t.Errorf("Verify() left an invalid session in the store")
				}
				return
			}
			if !sess.LastActivity.Equal(now) {
				t.Errorf("Verify() LastActivity = %v, want %v", sess.LastActivity, now)
			}
			if !repo.table[tt.token].LastActivity.Equal(now) {
				t.Errorf("Verify() did not persist the refreshed activity")
			}
		})
	}
}

func TestServiceCreateEvictsOldestAdminSession(t *testing.T) {
	defer func() { nowFunc = time.Now }()

	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return now }
	ctx := context.Background()

	repo := newMemRepo()
	svc := newTestService(repo)

	oldest := Session{
		Token:        NewToken(),
		UserID:       "a1",
		IsAdmin:      true,
		CreatedAt:    now.Add(-5 * time.Hour),
		LastActivity: now.Add(-time.Minute),
		ExpiresAt:    now.Add(12 * time.Hour),
	}
	if err := repo.CreateSession(ctx, oldest); err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	for i := 1; i < 5; i++ {
		sess := oldest
		sess.Token = NewToken()
		sess.CreatedAt = now.Add(-time.Duration(5-i) * time.Hour)
		if err := repo.CreateSession(ctx, sess); err != nil {
			t.Fatalf("CreateSession() failed: %v", err)
		}
	}

	sess, err := svc.Create(ctx, "a1", "dev1", true)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if _, ok := repo.table[oldest.Token]; ok {
		t.Errorf("Create() did not evict the oldest session")
	}
	if _, ok := repo.table[sess.Token]; !ok {
		t.Errorf("Create() did not store the new session")
	}
	if got := len(repo.table); got != 5 {
		t.Errorf("Create() left %d sessions, want 5", got)
	}
	if want := now.Add(24 * time.Hour); !sess.ExpiresAt.Equal(want) {
		t.Errorf("Create() ExpiresAt = %v, want %v", sess.ExpiresAt, want)
	}
}

func TestServiceCreateCleansStaleAdminSessions(t *testing.T) {
	defer func() { nowFunc = time.Now }()

	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return now }
	ctx := context.Background()

	repo := newMemRepo()
	svc := newTestService(repo)

	stale := Session{
		Token:        NewToken(),
		UserID:       "a1",
		IsAdmin:      true,
		CreatedAt:    now.Add(-2 * time.Hour),
		LastActivity: now.Add(-time.Hour),
		ExpiresAt:    now.Add(12 * time.Hour),
	}
	if err := repo.CreateSession(ctx, stale); err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}

	if _, err := svc.Create(ctx, "a1", "dev1", true); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if _, ok := repo.table[stale.Token]; ok {
		t.Errorf("Create() kept a session idle past the inactivity timeout")
	}
}

func TestServiceDegradesToEphemeral(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(failRepo{})

	if got := svc.Mode(); got != ModePersistent {
		t.Fatalf("Mode() = %v, want %v", got, ModePersistent)
	}

	sess, err := svc.Create(ctx, "u1", "dev1", false)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if got := svc.Mode(); got != ModeEphemeral {
		t.Fatalf("Mode() = %v, want %v", got, ModeEphemeral)
	}

	// the fallback store serves the session from now on
	got, err := svc.Verify(ctx, sess.Token)
	if err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}
	if got.Token != sess.Token {
		t.Errorf("Verify() token = %v, want %v", got.Token, sess.Token)
	}

	// the transition never reverses
	if _, err = svc.Create(ctx, "u2", "dev2", false); err != nil {
		t.Fatalf("Create() failed after degrade: %v", err)
	}
	if got := svc.Mode(); got != ModeEphemeral {
		t.Errorf("Mode() = %v, want %v", got, ModeEphemeral)
	}
}

func TestServiceLogout(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := newTestService(repo)

	sess := Session{Token: NewToken(), UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}
	if err := repo.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}

	if err := svc.Logout(ctx, sess.Token); err != nil {
		t.Fatalf("Logout() failed: %v", err)
	}
	if _, ok := repo.table[sess.Token]; ok {
		t.Errorf("Logout() did not delete the session")
	}
	if err := svc.Logout(ctx, "gone"); err != nil {
		t.Errorf("Logout() on a missing token = %v, want nil", err)
	}
}
