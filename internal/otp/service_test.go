package otp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/docuflow/docuflow/internal/apperr"
	"github.com/docuflow/docuflow/internal/repository"
)

type fakeMailer struct {
	codes []string
	fail  error
}

func (f *fakeMailer) SendOTP(ctx context.Context, to, code string) error {
	if f.fail != nil {
		return f.fail
	}
	f.codes = append(f.codes, code)
	return nil
}

func newService(t *testing.T) (*Service, *repository.Memory, *fakeMailer, *time.Time) {
	t.Helper()
	mem := repository.NewMemory()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mem.Now = func() time.Time { return now }
	mailer := &fakeMailer{}
	svc := NewService(repository.MemoryOtp{Memory: mem}, mailer)
	svc.now = func() time.Time { return now }
	return svc, mem, mailer, &now
}

func TestRequestIssuesFourDigitCode(t *testing.T) {
	svc, _, mailer, _ := newService(t)

	if err := svc.Request(context.Background(), "a@b", nil); err != nil {
		t.Fatalf("request: %v", err)
	}
	if len(mailer.codes) != 1 {
		t.Fatalf("mail count = %d", len(mailer.codes))
	}
	code := mailer.codes[0]
	if len(code) != 4 {
		t.Fatalf("code length = %d (%q)", len(code), code)
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			t.Fatalf("non-digit in code %q", code)
		}
	}
}

func TestRequestInvalidatesPriorCodes(t *testing.T) {
	svc, mem, mailer, now := newService(t)
	ctx := context.Background()

	if err := svc.Request(ctx, "a@b", nil); err != nil {
		t.Fatalf("first request: %v", err)
	}
	first := mailer.codes[0]
	if err := svc.Request(ctx, "a@b", nil); err != nil {
		t.Fatalf("second request: %v", err)
	}

	// The first code is dead even though its clock has not run out.
	if err := svc.Verify(ctx, "a@b", first); err == nil && first != mailer.codes[1] {
		t.Fatal("stale code verified")
	}
	latest, err := mem.LatestValid(ctx, "a@b", *now)
	if err != nil {
		t.Fatalf("latest valid: %v", err)
	}
	if latest.Code != mailer.codes[1] {
		t.Fatalf("latest live code = %q, want %q", latest.Code, mailer.codes[1])
	}
}

func TestVerifyConsumesCode(t *testing.T) {
	svc, _, mailer, _ := newService(t)
	ctx := context.Background()

	if err := svc.Request(ctx, "a@b", nil); err != nil {
		t.Fatalf("request: %v", err)
	}
	code := mailer.codes[0]

	if err := svc.Verify(ctx, "a@b", code); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := svc.Verify(ctx, "a@b", code); apperr.KindOf(err) != apperr.KindExpired {
		t.Fatalf("second verify: want expired, got %v", err)
	}
}

func TestVerifyWrongCode(t *testing.T) {
	svc, _, mailer, _ := newService(t)
	ctx := context.Background()

	if err := svc.Request(ctx, "a@b", nil); err != nil {
		t.Fatalf("request: %v", err)
	}
	wrong := "0000"
	if wrong == mailer.codes[0] {
		wrong = "0001"
	}
	if err := svc.Verify(ctx, "a@b", wrong); apperr.KindOf(err) != apperr.KindExpired {
		t.Fatalf("want expired, got %v", err)
	}
	// The live code survives a failed attempt.
	if err := svc.Verify(ctx, "a@b", mailer.codes[0]); err != nil {
		t.Fatalf("correct code after wrong attempt: %v", err)
	}
}

func TestVerifyAfterTTL(t *testing.T) {
	svc, _, mailer, now := newService(t)
	ctx := context.Background()

	if err := svc.Request(ctx, "a@b", nil); err != nil {
		t.Fatalf("request: %v", err)
	}
	*now = now.Add(TTL + time.Minute)
	if err := svc.Verify(ctx, "a@b", mailer.codes[0]); apperr.KindOf(err) != apperr.KindExpired {
		t.Fatalf("want expired, got %v", err)
	}
}

func TestRequestMailFailureKillsCode(t *testing.T) {
	svc, mem, mailer, now := newService(t)
	ctx := context.Background()
	mailer.fail = errors.New("relay down")

	if err := svc.Request(ctx, "a@b", nil); err == nil {
		t.Fatal("want delivery error")
	}
	if _, err := mem.LatestValid(ctx, "a@b", *now); !errors.Is(err, repository.ErrNotFound) {
		t.Fatal("undelivered code left redeemable")
	}
}
