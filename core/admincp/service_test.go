package admincp_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"

	"github.com/kitabiapp/kitabi/core/admincp"
	inmemdb "github.com/kitabiapp/kitabi/storage/database/inmem"
)

func newTestService(t *testing.T) *admincp.Service {
	t.Helper()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	return admincp.NewService(inmemdb.NewAdminCPRepository(db))
}

func TestServiceGenerateCodes(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if _, err := svc.GenerateCodes(ctx, 0); err == nil {
		t.Errorf("GenerateCodes(0) did not fail")
	}

	codes, err := svc.GenerateCodes(ctx, 5)
	if err != nil {
		t.Fatalf("GenerateCodes() failed: %v", err)
	}
	if len(codes) != 5 {
		t.Fatalf("GenerateCodes() minted %d codes, want 5", len(codes))
	}
	seen := make(map[string]bool, len(codes))
	for _, vc := range codes {
		if len(vc.Code) != 8 {
			t.Errorf("code %q is %d characters, want 8", vc.Code, len(vc.Code))
		}
		if seen[vc.Code] {
			t.Errorf("duplicate code %q", vc.Code)
		}
		seen[vc.Code] = true
		if vc.IsUsed() {
			t.Errorf("freshly minted code %q reads as used", vc.Code)
		}
	}
}

func TestServiceRedeem(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	codes, err := svc.GenerateCodes(ctx, 1)
	if err != nil {
		t.Fatalf("GenerateCodes() failed: %v", err)
	}
	code := codes[0].Code

	if _, err = svc.Redeem(ctx, "NOSUCH00", "u1"); errors.Cause(err) != admincp.ErrCodeNotFound {
		t.Errorf("Redeem() unknown code error = %v, want %v", err, admincp.ErrCodeNotFound)
	}

	vc, err := svc.Redeem(ctx, code, "u1")
	if err != nil {
		t.Fatalf("Redeem() failed: %v", err)
	}
	if vc.UsedBy != "u1" || vc.UsedAt == nil {
		t.Errorf("Redeem() = %+v, want used by u1", vc)
	}

	if _, err = svc.Redeem(ctx, code, "u2"); errors.Cause(err) != admincp.ErrCodeUsed {
		t.Errorf("Redeem() spent code error = %v, want %v", err, admincp.ErrCodeUsed)
	}

	unused, err := svc.Codes(ctx, true)
	if err != nil {
		t.Fatalf("Codes() failed: %v", err)
	}
	if len(unused) != 0 {
		t.Errorf("Codes(unusedOnly) returned %d codes, want 0", len(unused))
	}
}

func TestServiceRedeemConcurrent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	codes, err := svc.GenerateCodes(ctx, 1)
	if err != nil {
		t.Fatalf("GenerateCodes() failed: %v", err)
	}
	code := codes[0].Code

	const attempts = 16
	var (
		wg   sync.WaitGroup
		wins int64
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Redeem(ctx, code, "u1")
			switch errors.Cause(err) {
			case nil:
				atomic.AddInt64(&wins, 1)
			case admincp.ErrCodeUsed:
			default:
				t.Errorf("Redeem() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("Redeem() succeeded %d times, want exactly 1", wins)
	}
}

func TestServiceTestimonials(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	tst, err := svc.SubmitTestimonial(ctx, "u1", admincp.NewTestimonial{
		AuthorName: "قارئ سعيد",
		Body:       "كتاب رائع",
	})
	if err != nil {
		t.Fatalf("SubmitTestimonial() failed: %v", err)
	}
	if tst.IsApproved {
		t.Errorf("SubmitTestimonial() created an approved testimonial")
	}

	// unapproved testimonials stay off the public list
	public, err := svc.Testimonials(ctx, true)
	if err != nil {
		t.Fatalf("Testimonials() failed: %v", err)
	}
	if len(public) != 0 {
		t.Errorf("Testimonials(approvedOnly) returned %d entries, want 0", len(public))
	}

	if _, err = svc.ApproveTestimonial(ctx, tst.ID); err != nil {
		t.Fatalf("ApproveTestimonial() failed: %v", err)
	}
	if public, _ = svc.Testimonials(ctx, true); len(public) != 1 {
		t.Fatalf("Testimonials(approvedOnly) returned %d entries, want 1", len(public))
	}
	if public[0].ApprovedAt == nil {
		t.Errorf("approved testimonial has no ApprovedAt")
	}

	if err = svc.DeleteTestimonial(ctx, tst.ID); err != nil {
		t.Fatalf("DeleteTestimonial() failed: %v", err)
	}
	if err = svc.DeleteTestimonial(ctx, tst.ID); errors.Cause(err) != admincp.ErrTestimonialNotFound {
		t.Errorf("DeleteTestimonial() error = %v, want %v", err, admincp.ErrTestimonialNotFound)
	}
}

func TestServiceSettings(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	// never set: zero-value, not an error
	st, err := svc.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings() failed: %v", err)
	}
	if st.RegularPriceCents != 0 || st.PromoActive {
		t.Errorf("Settings() = %+v, want the zero value", st)
	}

	if _, err = svc.UpdateSettings(ctx, admincp.UpdateSettings{
		RegularPriceCents: 2500,
		PromoPriceCents:   1500,
		PromoActive:       true,
	}); err != nil {
		t.Fatalf("UpdateSettings() failed: %v", err)
	}
	if st, _ = svc.Settings(ctx); st.RegularPriceCents != 2500 || !st.PromoActive {
		t.Errorf("Settings() = %+v after update", st)
	}
}
