package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/kitabiapp/kitabi/core"
	"github.com/kitabiapp/kitabi/core/certificate"
)

type certificateRepository struct {
	db *certificateTable
}

var _ certificate.Repository = (*certificateRepository)(nil)

func NewCertificateRepository(db *DB) *certificateRepository {
	return &certificateRepository{db: db.certificate}
}

func (repo *certificateRepository) CreateCertificate(_ context.Context, cert certificate.Certificate, _ ...core.DBExecutor) (certificate.Certificate, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[cert.UserID]; ok {
		return certificate.Certificate{}, certificate.ErrAlreadyIssued
	}
	cert.ID = uuid.New().String()
	repo.db.table[cert.UserID] = &cert
	return cert, nil
}

func (repo *certificateRepository) GetCertificateByUser(_ context.Context, userID string, _ ...core.DBExecutor) (certificate.Certificate, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cert, ok := repo.db.table[userID]; ok {
		return *cert, nil
	}
	return certificate.Certificate{}, certificate.ErrNotFound
}

func (repo *certificateRepository) GetCertificateBySerial(_ context.Context, serial string, _ ...core.DBExecutor) (certificate.Certificate, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, cert := range repo.db.table {
		if cert.Serial == serial {
			return *cert, nil
		}
	}
	return certificate.Certificate{}, certificate.ErrNotFound
}
