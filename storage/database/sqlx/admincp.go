package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/strmangle"

	"github.com/kitabiapp/kitabi/core"
	"github.com/kitabiapp/kitabi/core/admincp"
)

type adminCPRepository struct {
	repository
}

var _ admincp.Repository = (*adminCPRepository)(nil) // interface compliance check

func NewAdminCPRepository(exec core.DBExecutor) *adminCPRepository {
	return &adminCPRepository{repository{exec: exec}}
}

type verificationCodeRow struct {
	ID        string      `db:"id"`
	Code      string      `db:"code"`
	CreatedAt time.Time   `db:"created_at"`
	UsedBy    null.String `db:"used_by"`
	UsedAt    null.Time   `db:"used_at"`
}

func (r verificationCodeRow) toCode() admincp.VerificationCode {
	return admincp.VerificationCode{
		ID:        r.ID,
		Code:      r.Code,
		CreatedAt: r.CreatedAt,
		UsedBy:    r.UsedBy.String,
		UsedAt:    r.UsedAt.Ptr(),
	}
}

const codeColumns = `id, code, created_at, used_by, used_at`

func (repo adminCPRepository) CreateVerificationCodes(ctx context.Context, codes []admincp.VerificationCode, exec ...core.DBExecutor) ([]admincp.VerificationCode, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	args := make([]interface{}, 0, 3*len(codes))
	for i := range codes {
		codes[i].ID = uuid.New().String()
		args = append(args, codes[i].ID, codes[i].Code, codes[i].CreatedAt.UTC())
	}
	query := `INSERT INTO verification_code (id, code, created_at) VALUES ` +
		strmangle.Placeholders(true, 3*len(codes), 1, 3)
	if _, err := repo.getExec(exec).ExecContext(ctx, query, args...); err != nil {
		return nil, errors.Wrap(err, "inserting verification codes")
	}
	return codes, nil
}

// RedeemVerificationCode spends the code with a conditional update so two
// concurrent redeems of the same code cannot both win.
func (repo adminCPRepository) RedeemVerificationCode(ctx context.Context, code, userID string, at time.Time, exec ...core.DBExecutor) (admincp.VerificationCode, error) {
	var row verificationCodeRow
	err := repo.getExec(exec).GetContext(ctx, &row,
		`UPDATE verification_code SET used_by = $1, used_at = $2
		 WHERE code = $3 AND used_by IS NULL
		 RETURNING `+codeColumns,
		userID, at.UTC(), code,
	)
	if err != nil {
		err = trapNoRowsErr(err, admincp.ErrCodeNotFound, "redeeming verification code")
		if errors.Cause(err) != admincp.ErrCodeNotFound {
			return admincp.VerificationCode{}, err
		}
		// no row updated: either the code does not exist or it was spent
		var exists bool
		if err = repo.getExec(exec).GetContext(ctx, &exists,
			`SELECT EXISTS (SELECT 1 FROM verification_code WHERE code = $1)`, code); err != nil {
			return admincp.VerificationCode{}, errors.Wrap(err, "checking verification code")
		}
		if exists {
			return admincp.VerificationCode{}, admincp.ErrCodeUsed
		}
		return admincp.VerificationCode{}, admincp.ErrCodeNotFound
	}
	return row.toCode(), nil
}

func (repo adminCPRepository) QueryVerificationCodes(ctx context.Context, unusedOnly bool, exec ...core.DBExecutor) ([]admincp.VerificationCode, error) {
	query := `SELECT ` + codeColumns + ` FROM verification_code`
	if unusedOnly {
		query += ` WHERE used_by IS NULL`
	}
	query += ` ORDER BY created_at DESC`

	var rows []verificationCodeRow
	if err := repo.getExec(exec).SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying verification codes")
	}
	codes := make([]admincp.VerificationCode, 0, len(rows))
	for _, r := range rows {
		codes = append(codes, r.toCode())
	}
	return codes, nil
}

type testimonialRow struct {
	ID         string      `db:"id"`
	UserID     null.String `db:"user_id"`
	AuthorName null.String `db:"author_name"`
	Body       string      `db:"body"`
	IsApproved bool        `db:"is_approved"`
	CreatedAt  time.Time   `db:"created_at"`
	ApprovedAt null.Time   `db:"approved_at"`
}

func (r testimonialRow) toTestimonial() admincp.Testimonial {
	return admincp.Testimonial{
		ID:         r.ID,
		UserID:     r.UserID.String,
		AuthorName: r.AuthorName.String,
		Body:       r.Body,
		IsApproved: r.IsApproved,
		CreatedAt:  r.CreatedAt,
		ApprovedAt: r.ApprovedAt.Ptr(),
	}
}

const testimonialColumns = `id, user_id, author_name, body, is_approved, created_at, approved_at`

func (repo adminCPRepository) CreateTestimonial(ctx context.Context, tst admincp.Testimonial, exec ...core.DBExecutor) (admincp.Testimonial, error) {
	tst.ID = uuid.New().String()
	_, err := repo.getExec(exec).ExecContext(ctx,
		`INSERT INTO testimonial (id, user_id, author_name, body, is_approved, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		tst.ID,
		null.NewString(tst.UserID, tst.UserID != ""),
		null.NewString(tst.AuthorName, tst.AuthorName != ""),
		tst.Body, tst.IsApproved, tst.CreatedAt.UTC(),
	)
	if err != nil {
		return admincp.Testimonial{}, errors.Wrap(err, "inserting testimonial")
	}
	return tst, nil
}

func (repo adminCPRepository) ApproveTestimonial(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) (admincp.Testimonial, error) {
	var row testimonialRow
	err := repo.getExec(exec).GetContext(ctx, &row,
		`UPDATE testimonial SET is_approved = TRUE, approved_at = $1 WHERE id = $2
		 RETURNING `+testimonialColumns,
		at.UTC(), id,
	)
	if err != nil {
		return admincp.Testimonial{}, trapNoRowsErr(err, admincp.ErrTestimonialNotFound, "approving testimonial")
	}
	return row.toTestimonial(), nil
}

func (repo adminCPRepository) DeleteTestimonial(ctx context.Context, id string, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM testimonial WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting testimonial")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return admincp.ErrTestimonialNotFound
	}
	return nil
}

func (repo adminCPRepository) QueryTestimonials(ctx context.Context, approvedOnly bool, exec ...core.DBExecutor) ([]admincp.Testimonial, error) {
	query := `SELECT ` + testimonialColumns + ` FROM testimonial`
	if approvedOnly {
		query += ` WHERE is_approved`
	}
	query += ` ORDER BY created_at DESC`

	var rows []testimonialRow
	if err := repo.getExec(exec).SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying testimonials")
	}
	testimonials := make([]admincp.Testimonial, 0, len(rows))
	for _, r := range rows {
		testimonials = append(testimonials, r.toTestimonial())
	}
	return testimonials, nil
}

type siteSettingsRow struct {
	RegularPriceCents int       `db:"regular_price_cents"`
	PromoPriceCents   int       `db:"promo_price_cents"`
	PromoActive       bool      `db:"promo_active"`
	PromoEndsAt       null.Time `db:"promo_ends_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (r siteSettingsRow) toSettings() admincp.SiteSettings {
	return admincp.SiteSettings{
		RegularPriceCents: r.RegularPriceCents,
		PromoPriceCents:   r.PromoPriceCents,
		PromoActive:       r.PromoActive,
		PromoEndsAt:       r.PromoEndsAt.Ptr(),
		UpdatedAt:         r.UpdatedAt,
	}
}

const settingsColumns = `regular_price_cents, promo_price_cents, promo_active, promo_ends_at, updated_at`

func (repo adminCPRepository) GetSiteSettings(ctx context.Context, exec ...core.DBExecutor) (admincp.SiteSettings, error) {
	var row siteSettingsRow
	err := repo.getExec(exec).GetContext(ctx,
		&row, `SELECT `+settingsColumns+` FROM site_settings WHERE id = 1`)
	if err != nil {
		// never set: zero-value settings
		if err = trapNoRowsErr(err, nil, "getting site settings"); err != nil {
			return admincp.SiteSettings{}, err
		}
		return admincp.SiteSettings{}, nil
	}
	return row.toSettings(), nil
}

func (repo adminCPRepository) UpsertSiteSettings(ctx context.Context, st admincp.SiteSettings, exec ...core.DBExecutor) (admincp.SiteSettings, error) {
	var row siteSettingsRow
	err := repo.getExec(exec).GetContext(ctx, &row,
		`INSERT INTO site_settings (id, `+settingsColumns+`)
		 VALUES (1, $1, $2, $3, $4, $5)
		 ON CONFLICT (id)
		 DO UPDATE SET regular_price_cents = EXCLUDED.regular_price_cents,
		               promo_price_cents   = EXCLUDED.promo_price_cents,
		               promo_active        = EXCLUDED.promo_active,
		               promo_ends_at       = EXCLUDED.promo_ends_at,
		               updated_at          = EXCLUDED.updated_at
		 RETURNING `+settingsColumns,
		st.RegularPriceCents, st.PromoPriceCents, st.PromoActive,
		null.TimeFromPtr(st.PromoEndsAt), st.UpdatedAt.UTC(),
	)
	if err != nil {
		return admincp.SiteSettings{}, errors.Wrap(err, "upserting site settings")
	}
	return row.toSettings(), nil
}
