package admincp

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/kitabiapp/kitabi/core"
)

var (
	// errors
	ErrCodeNotFound        = errors.New("verification code not found")
	ErrCodeUsed            = errors.New("verification code already used")
	ErrTestimonialNotFound = errors.New("testimonial not found")
)

type (
	Repository interface {
		CreateVerificationCodes(ctx context.Context, codes []VerificationCode, exec ...core.DBExecutor) ([]VerificationCode, error)
		// RedeemVerificationCode marks code as used by userID only if it is
		// still unused; returns ErrCodeUsed when someone else won the race.
		RedeemVerificationCode(ctx context.Context, code, userID string, at time.Time, exec ...core.DBExecutor) (VerificationCode, error)
		QueryVerificationCodes(ctx context.Context, unusedOnly bool, exec ...core.DBExecutor) ([]VerificationCode, error)

		CreateTestimonial(ctx context.Context, tst Testimonial, exec ...core.DBExecutor) (Testimonial, error)
		ApproveTestimonial(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) (Testimonial, error)
		DeleteTestimonial(ctx context.Context, id string, exec ...core.DBExecutor) error
		QueryTestimonials(ctx context.Context, approvedOnly bool, exec ...core.DBExecutor) ([]Testimonial, error)

		GetSiteSettings(ctx context.Context, exec ...core.DBExecutor) (SiteSettings, error)
		UpsertSiteSettings(ctx context.Context, st SiteSettings, exec ...core.DBExecutor) (SiteSettings, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GenerateCodes mints n fresh verification codes.
func (svc *Service) GenerateCodes(ctx context.Context, n int) ([]VerificationCode, error) {
	if n < 1 {
		return nil, core.NewValidationError(errors.New("code count must be positive"))
	}
	now := time.Now().UTC()
	codes := make([]VerificationCode, 0, n)
	for i := 0; i < n; i++ {
		codes = append(codes, VerificationCode{Code: NewCode(), CreatedAt: now})
	}
	return svc.repo.CreateVerificationCodes(ctx, codes)
}

// Redeem spends the code for userID. The conditional update in the store
// makes the redeem race-safe: exactly one caller wins a given code.
func (svc *Service) Redeem(ctx context.Context, code, userID string) (VerificationCode, error) {
	return svc.repo.RedeemVerificationCode(ctx, code, userID, time.Now().UTC())
}

func (svc *Service) Codes(ctx context.Context, unusedOnly bool) ([]VerificationCode, error) {
	return svc.repo.QueryVerificationCodes(ctx, unusedOnly)
}

// SubmitTestimonial stores a reader's testimonial, unapproved.
func (svc *Service) SubmitTestimonial(ctx context.Context, userID string, nt NewTestimonial) (Testimonial, error) {
	return svc.repo.CreateTestimonial(ctx, Testimonial{
		UserID:     userID,
		AuthorName: nt.AuthorName,
		Body:       nt.Body,
		CreatedAt:  time.Now().UTC(),
	})
}

func (svc *Service) ApproveTestimonial(ctx context.Context, id string) (Testimonial, error) {
	return svc.repo.ApproveTestimonial(ctx, id, time.Now().UTC())
}

func (svc *Service) DeleteTestimonial(ctx context.Context, id string) error {
	return svc.repo.DeleteTestimonial(ctx, id)
}

func (svc *Service) Testimonials(ctx context.Context, approvedOnly bool) ([]Testimonial, error) {
	return svc.repo.QueryTestimonials(ctx, approvedOnly)
}

// Settings returns the storefront settings, zero-value if never set.
func (svc *Service) Settings(ctx context.Context) (SiteSettings, error) {
	return svc.repo.GetSiteSettings(ctx)
}

func (svc *Service) UpdateSettings(ctx context.Context, us UpdateSettings) (SiteSettings, error) {
	return svc.repo.UpsertSiteSettings(ctx, SiteSettings{
		RegularPriceCents: us.RegularPriceCents,
		PromoPriceCents:   us.PromoPriceCents,
		PromoActive:       us.PromoActive,
		PromoEndsAt:       us.PromoEndsAt,
		UpdatedAt:         time.Now().UTC(),
	})
}
