package certificate

import (
	"context"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kitabiapp/kitabi/core"
	"github.com/kitabiapp/kitabi/core/reading"
	"github.com/kitabiapp/kitabi/core/user"
)

var (
	// errors
	ErrNotFound      = errors.New("certificate not found")
	ErrBookNotDone   = errors.New("the book has not been completed yet")
	ErrAlreadyIssued = errors.New("certificate already issued")
)

type (
	Repository interface {
		// CreateCertificate inserts under the unique UserID constraint and
		// returns ErrAlreadyIssued if the user already has one.
		CreateCertificate(ctx context.Context, cert Certificate, exec ...core.DBExecutor) (Certificate, error)
		GetCertificateByUser(ctx context.Context, userID string, exec ...core.DBExecutor) (Certificate, error)
		GetCertificateBySerial(ctx context.Context, serial string, exec ...core.DBExecutor) (Certificate, error)
	}

	Service struct {
		repo       Repository
		readingSvc *reading.Service
		mailSvc    core.EmailService
		conf       *core.Config
	}
)

func NewService(repo Repository, readingSvc *reading.Service, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		repo:       repo,
		readingSvc: readingSvc,
		mailSvc:    mailSvc,
		conf:       conf,
	}
}

// Issue awards the certificate to usr once every chapter is complete.
// Re-issuing returns the existing certificate unchanged.
func (svc *Service) Issue(ctx context.Context, usr user.User) (Certificate, error) {
	finished, err := svc.readingSvc.HasFinishedBook(ctx, usr.ID)
	if err != nil {
		return Certificate{}, errors.Wrap(err, "checking book completion")
	}
	if !finished {
		return Certificate{}, core.NewValidationError(ErrBookNotDone)
	}

	cert := Certificate{
		UserID:        usr.ID,
		Serial:        uuid.New().String(),
		RecipientName: usr.Name,
		IssuedAt:      time.Now().UTC(),
	}
	cert, err = svc.repo.CreateCertificate(ctx, cert)
	if err != nil {
		if errors.Cause(err) == ErrAlreadyIssued {
			return svc.repo.GetCertificateByUser(ctx, usr.ID)
		}
		return Certificate{}, errors.Wrap(err, "creating certificate")
	}

	if usr.Email != "" {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
			Subject: svc.conf.AppName + " - شهادة إتمام القراءة",
			BodyStr: "Congratulations! Your reading certificate is ready: " +
				svc.conf.FrontendBaseURL + "/certificates/" + cert.Serial,
		})
	}
	return cert, nil
}

// ForUser returns the user's certificate if issued.
func (svc *Service) ForUser(ctx context.Context, userID string) (Certificate, error) {
	return svc.repo.GetCertificateByUser(ctx, userID)
}

// Verify resolves a public serial to its certificate.
func (svc *Service) Verify(ctx context.Context, serial string) (Certificate, error) {
	return svc.repo.GetCertificateBySerial(ctx, serial)
}
