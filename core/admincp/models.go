package admincp

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kitabiapp/kitabi/core"
)

// VerificationCode is a one-shot code that unlocks the book for an
// account. A code is spent the moment UsedBy is set.
type VerificationCode struct {
	ID        string     `json:"id"`
	Code      string     `json:"code"`
	CreatedAt time.Time  `json:"created_at"` // UTC
	UsedBy    string     `json:"used_by,omitempty"`
	UsedAt    *time.Time `json:"used_at,omitempty"` // UTC
}

func (vc VerificationCode) IsUsed() bool { return vc.UsedBy != "" }

// NewCode returns a human-typable 8-character code.
func NewCode() string {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand failure is unrecoverable
	}
	return strings.ToUpper(base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf))
}

type Testimonial struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	AuthorName string     `json:"author_name"`
	Body       string     `json:"body"`
	IsApproved bool       `json:"is_approved"`
	CreatedAt  time.Time  `json:"created_at"` // UTC
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
}

// SiteSettings is the single-row table of storefront knobs. Promo pricing
// is display data only; nothing else in the system reads it.
type SiteSettings struct {
	RegularPriceCents int        `json:"regular_price_cents"`
	PromoPriceCents   int        `json:"promo_price_cents"`
	PromoActive       bool       `json:"promo_active"`
	PromoEndsAt       *time.Time `json:"promo_ends_at,omitempty"` // UTC
	UpdatedAt         time.Time  `json:"updated_at"`              // UTC
}

// Input payloads

type RedeemCode struct {
	Code string `json:"code" validate:"required,len=8,alphanum"`
}

func (rc *RedeemCode) Validate(validate *validator.Validate) error {
	rc.Code = strings.ToUpper(core.CleanString(rc.Code))
	return validate.Struct(rc)
}

type NewTestimonial struct {
	AuthorName string `json:"author_name" validate:"required,max=120"`
	Body       string `json:"body" validate:"required,max=2000"`
}

func (nt *NewTestimonial) Validate(validate *validator.Validate) error {
	nt.AuthorName = core.CleanString(nt.AuthorName)
	nt.Body = core.CleanString(nt.Body)
	return validate.Struct(nt)
}

type UpdateSettings struct {
	RegularPriceCents int        `json:"regular_price_cents" validate:"min=0"`
	PromoPriceCents   int        `json:"promo_price_cents" validate:"min=0"`
	PromoActive       bool       `json:"promo_active"`
	PromoEndsAt       *time.Time `json:"promo_ends_at"`
}

func (us UpdateSettings) Validate(validate *validator.Validate) error {
	return validate.Struct(us)
}
