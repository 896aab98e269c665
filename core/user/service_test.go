package user_test

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/kitabiapp/kitabi/core"
	"github.com/kitabiapp/kitabi/core/user"
	emailsvc "github.com/kitabiapp/kitabi/services/email"
	inmemdb "github.com/kitabiapp/kitabi/storage/database/inmem"
	testutil "github.com/kitabiapp/kitabi/tests"
)

func newTestService(t *testing.T) (*user.Service, user.Repository) {
	t.Helper()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	conf := testutil.NewConfig()
	repo := inmemdb.NewUserRepository(db)
	return user.NewService(nil, repo, emailsvc.NewConsoleServiceMock(conf), conf), repo
}

func TestServiceCreateAndLookups(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	usr, err := svc.Create(ctx, user.NewUser{
		Name:     "Test Reader",
		Username: "reader1",
		Email:    "reader@test.test",
		Password: "pa$$word",
		Roles:    user.ReaderRoles,
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if usr.ID == "" {
		t.Fatalf("Create() did not assign an ID")
	}
	if usr.IsActive == nil || !*usr.IsActive {
		t.Errorf("Create() user is not active")
	}
	if err = usr.CheckPassword("pa$$word"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}

	// lookups clean their input
	tests := []struct {
		name   string
		lookup func() (user.User, error)
	}{
		{name: "by username", lookup: func() (user.User, error) { return svc.GetByUsername(ctx, " Reader1 ") }},
		{name: "by email", lookup: func() (user.User, error) { return svc.GetByEmail(ctx, "READER@test.test") }},
		{name: "by username or email", lookup: func() (user.User, error) { return svc.GetByUsernameOrEmail(ctx, "reader1") }},
		{name: "by ID", lookup: func() (user.User, error) { return svc.GetByID(ctx, usr.ID) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.lookup()
			if err != nil {
				t.Fatalf("lookup failed: %v", err)
			}
			if got.ID != usr.ID {
				t.Errorf("lookup ID = %q, want %q", got.ID, usr.ID)
			}
		})
	}

	if _, err = svc.GetByUsername(ctx, "ghost"); errors.Cause(err) != user.ErrNotFound {
		t.Errorf("GetByUsername() unknown error = %v, want %v", err, user.ErrNotFound)
	}
}

func TestServiceCheckUniqueness(t *testing.T) {
	svc, repo := newTestService(t)

	usr := testutil.CreateUser(t, repo, "Test Reader", "reader1", "reader@test.test", "", user.ReaderRoles, true)

	if err := svc.CheckUniqueness("reader1", "other@test.test"); err == nil {
		t.Errorf("CheckUniqueness() accepted a taken username")
	} else {
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("CheckUniqueness() error = %v, want a validation error", err)
		}
	}
	if err := svc.CheckUniqueness("fresh1", "reader@test.test"); err == nil {
		t.Errorf("CheckUniqueness() accepted a taken email")
	}
	if err := svc.CheckUniqueness("fresh1", "fresh@test.test"); err != nil {
		t.Errorf("CheckUniqueness() rejected fresh credentials: %v", err)
	}
	// the user can keep their own username
	if err := svc.CheckUniqueness("reader1", "reader@test.test", usr); err != nil {
		t.Errorf("CheckUniqueness() rejected the excluded user: %v", err)
	}
}

func TestServicePasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	usr := testutil.CreateUser(t, repo, "Test Reader", "reader1", "reader@test.test", "oldpwd", user.ReaderRoles, true)

	sentBefore := len(emailsvc.SentMessages)
	if err := svc.RequestPasswordReset(ctx, usr.Email); err != nil {
		t.Fatalf("RequestPasswordReset() failed: %v", err)
	}
	if len(emailsvc.SentMessages) != sentBefore+1 {
		t.Fatalf("RequestPasswordReset() sent %d emails, want 1", len(emailsvc.SentMessages)-sentBefore)
	}

	// the mail body ends with .../password-reset/<uid>/<token>
	body := emailsvc.SentMessages[len(emailsvc.SentMessages)-1].BodyStr
	parts := strings.Split(body, "/")
	if len(parts) < 2 {
		t.Fatalf("unexpected reset mail body: %q", body)
	}
	uid, token := parts[len(parts)-2], parts[len(parts)-1]

	if err := svc.ResetPassword(ctx, user.ResetUserPassword{
		UID:      uid,
		Token:    "bogus-token-sig",
		Password: "newpwd",
	}); err == nil {
		t.Errorf("ResetPassword() accepted a bogus token")
	}

	if err := svc.ResetPassword(ctx, user.ResetUserPassword{
		UID:      uid,
		Token:    token,
		Password: "newpwd",
	}); err != nil {
		t.Fatalf("ResetPassword() failed: %v", err)
	}

	got, err := svc.GetByID(ctx, usr.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if err = got.CheckPassword("newpwd"); err != nil {
		t.Errorf("CheckPassword() after reset failed: %v", err)
	}
	if err = got.CheckPassword("oldpwd"); err == nil {
		t.Errorf("the old password still verifies")
	}

	// unknown email
	if err = svc.RequestPasswordReset(ctx, "ghost@test.test"); errors.Cause(err) != user.ErrNotFound {
		t.Errorf("RequestPasswordReset() unknown email error = %v, want %v", err, user.ErrNotFound)
	}
}
