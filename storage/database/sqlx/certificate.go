package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kitabiapp/kitabi/core"
	"github.com/kitabiapp/kitabi/core/certificate"
)

type certificateRepository struct {
	repository
}

var _ certificate.Repository = (*certificateRepository)(nil) // interface compliance check

func NewCertificateRepository(exec core.DBExecutor) *certificateRepository {
	return &certificateRepository{repository{exec: exec}}
}

type certificateRow struct {
	ID            string      `db:"id"`
	UserID        string      `db:"user_id"`
	Serial        string      `db:"serial"`
	RecipientName null.String `db:"recipient_name"`
	IssuedAt      time.Time   `db:"issued_at"`
}

func (r certificateRow) toCertificate() certificate.Certificate {
	return certificate.Certificate{
		ID:            r.ID,
		UserID:        r.UserID,
		Serial:        r.Serial,
		RecipientName: r.RecipientName.String,
		IssuedAt:      r.IssuedAt,
	}
}

const certificateColumns = `id, user_id, serial, recipient_name, issued_at`

func (repo certificateRepository) CreateCertificate(ctx context.Context, cert certificate.Certificate, exec ...core.DBExecutor) (certificate.Certificate, error) {
	cert.ID = uuid.New().String()
	_, err := repo.getExec(exec).ExecContext(ctx,
		`INSERT INTO certificate (`+certificateColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		cert.ID, cert.UserID, cert.Serial,
		null.NewString(cert.RecipientName, cert.RecipientName != ""),
		cert.IssuedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err, "certificate_user_id_key") {
			return certificate.Certificate{}, certificate.ErrAlreadyIssued
		}
		return certificate.Certificate{}, errors.Wrap(err, "inserting certificate")
	}
	return cert, nil
}

func (repo certificateRepository) GetCertificateByUser(ctx context.Context, userID string, exec ...core.DBExecutor) (certificate.Certificate, error) {
	var row certificateRow
	err := repo.getExec(exec).GetContext(ctx, &row,
		`SELECT `+certificateColumns+` FROM certificate WHERE user_id = $1`, userID)
	if err != nil {
		return certificate.Certificate{}, trapNoRowsErr(err, certificate.ErrNotFound, "getting certificate")
	}
	return row.toCertificate(), nil
}

func (repo certificateRepository) GetCertificateBySerial(ctx context.Context, serial string, exec ...core.DBExecutor) (certificate.Certificate, error) {
	var row certificateRow
	err := repo.getExec(exec).GetContext(ctx, &row,
		`SELECT `+certificateColumns+` FROM certificate WHERE serial = $1`, serial)
	if err != nil {
		return certificate.Certificate{}, trapNoRowsErr(err, certificate.ErrNotFound, "getting certificate")
	}
	return row.toCertificate(), nil
}
