package certificate_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/kitabiapp/kitabi/core"
	"github.com/kitabiapp/kitabi/core/certificate"
	"github.com/kitabiapp/kitabi/core/reading"
	"github.com/kitabiapp/kitabi/core/user"
	emailsvc "github.com/kitabiapp/kitabi/services/email"
	inmemdb "github.com/kitabiapp/kitabi/storage/database/inmem"
	testutil "github.com/kitabiapp/kitabi/tests"
)

func newTestService(t *testing.T) (*certificate.Service, *reading.Service) {
	t.Helper()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	conf := testutil.NewConfig()
	readingSvc := reading.NewService(inmemdb.NewReadingRepository(db))
	svc := certificate.NewService(
		inmemdb.NewCertificateRepository(db),
		readingSvc,
		emailsvc.NewConsoleServiceMock(conf),
		conf,
	)
	return svc, readingSvc
}

func TestServiceIssue(t *testing.T) {
	ctx := context.Background()
	svc, readingSvc := newTestService(t)

	usr := user.User{ID: "u1", Name: "Test Reader", Email: "reader@test.test"}

	// nothing read yet
	_, err := svc.Issue(ctx, usr)
	var vErr *core.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Issue() before finishing error = %v, want a validation error", err)
	}

	for idx := range reading.Sections {
		if _, err = readingSvc.CompleteChapter(ctx, usr.ID, idx); err != nil {
			t.Fatalf("CompleteChapter(%d) failed: %v", idx, err)
		}
	}

	sentBefore := len(emailsvc.SentMessages)
	cert, err := svc.Issue(ctx, usr)
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}
	if cert.Serial == "" || cert.RecipientName != usr.Name {
		t.Errorf("Issue() = %+v, want a serial for %q", cert, usr.Name)
	}
	if got := len(emailsvc.SentMessages); got != sentBefore+1 {
		t.Errorf("Issue() sent %d emails, want 1", got-sentBefore)
	}

	// re-issuing returns the existing certificate unchanged
	again, err := svc.Issue(ctx, usr)
	if err != nil {
		t.Fatalf("Issue() re-issue failed: %v", err)
	}
	if again.Serial != cert.Serial {
		t.Errorf("Issue() re-issue serial = %q, want %q", again.Serial, cert.Serial)
	}

	got, err := svc.Verify(ctx, cert.Serial)
	if err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}
	if got.UserID != usr.ID {
		t.Errorf("Verify() UserID = %q, want %q", got.UserID, usr.ID)
	}

	if _, err = svc.Verify(ctx, "bogus-serial"); errors.Cause(err) != certificate.ErrNotFound {
		t.Errorf("Verify() unknown serial error = %v, want %v", err, certificate.ErrNotFound)
	}

	if got, err = svc.ForUser(ctx, usr.ID); err != nil || got.Serial != cert.Serial {
		t.Errorf("ForUser() = (%+v, %v), want the issued certificate", got, err)
	}
}
