package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kitabiapp/kitabi/core"
	"github.com/kitabiapp/kitabi/core/admincp"
)

type adminCPRepository struct {
	db *adminCPTable
}

var _ admincp.Repository = (*adminCPRepository)(nil)

func NewAdminCPRepository(db *DB) *adminCPRepository {
	return &adminCPRepository{db: db.admincp}
}

func (repo *adminCPRepository) CreateVerificationCodes(_ context.Context, codes []admincp.VerificationCode, _ ...core.DBExecutor) ([]admincp.VerificationCode, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for i := range codes {
		codes[i].ID = uuid.New().String()
		vc := codes[i]
		repo.db.codes[vc.Code] = &vc
	}
	return codes, nil
}

func (repo *adminCPRepository) RedeemVerificationCode(_ context.Context, code, userID string, at time.Time, _ ...core.DBExecutor) (admincp.VerificationCode, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	vc, ok := repo.db.codes[code]
	if !ok {
		return admincp.VerificationCode{}, admincp.ErrCodeNotFound
	}
	if vc.IsUsed() {
		return admincp.VerificationCode{}, admincp.ErrCodeUsed
	}
	vc.UsedBy = userID
	vc.UsedAt = &at
	return *vc, nil
}

func (repo *adminCPRepository) QueryVerificationCodes(_ context.Context, unusedOnly bool, _ ...core.DBExecutor) ([]admincp.VerificationCode, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	codes := make([]admincp.VerificationCode, 0, len(repo.db.codes))
	for _, vc := range repo.db.codes {
		if unusedOnly && vc.IsUsed() {
			continue
		}
		codes = append(codes, *vc)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i].CreatedAt.After(codes[j].CreatedAt) })
	return codes, nil
}

func (repo *adminCPRepository) CreateTestimonial(_ context.Context, tst admincp.Testimonial, _ ...core.DBExecutor) (admincp.Testimonial, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	tst.ID = uuid.New().String()
	repo.db.testimonials[tst.ID] = &tst
	return tst, nil
}

func (repo *adminCPRepository) ApproveTestimonial(_ context.Context, id string, at time.Time, _ ...core.DBExecutor) (admincp.Testimonial, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	tst, ok := repo.db.testimonials[id]
	if !ok {
		return admincp.Testimonial{}, admincp.ErrTestimonialNotFound
	}
	tst.IsApproved = true
	tst.ApprovedAt = &at
	return *tst, nil
}

func (repo *adminCPRepository) DeleteTestimonial(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.testimonials[id]; !ok {
		return admincp.ErrTestimonialNotFound
	}
	delete(repo.db.testimonials, id)
	return nil
}

func (repo *adminCPRepository) QueryTestimonials(_ context.Context, approvedOnly bool, _ ...core.DBExecutor) ([]admincp.Testimonial, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	testimonials := make([]admincp.Testimonial, 0, len(repo.db.testimonials))
	for _, tst := range repo.db.testimonials {
		if approvedOnly && !tst.IsApproved {
			continue
		}
		testimonials = append(testimonials, *tst)
	}
	sort.Slice(testimonials, func(i, j int) bool { return testimonials[i].CreatedAt.After(testimonials[j].CreatedAt) })
	return testimonials, nil
}

func (repo *adminCPRepository) GetSiteSettings(_ context.Context, _ ...core.DBExecutor) (admincp.SiteSettings, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if repo.db.settings == nil {
		return admincp.SiteSettings{}, nil
	}
	return *repo.db.settings, nil
}

func (repo *adminCPRepository) UpsertSiteSettings(_ context.Context, st admincp.SiteSettings, _ ...core.DBExecutor) (admincp.SiteSettings, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.settings = &st
	return st, nil
}
