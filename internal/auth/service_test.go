package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/docuflow/docuflow/internal/apperr"
	"github.com/docuflow/docuflow/internal/models"
	"github.com/docuflow/docuflow/internal/repository"
	"github.com/docuflow/docuflow/internal/signer"
)

type fakeVerificationMailer struct {
	urls []string
	fail error
}

func (f *fakeVerificationMailer) SendVerification(ctx context.Context, to, verificationURL string, user *models.User) error {
	if f.fail != nil {
		return f.fail
	}
	f.urls = append(f.urls, verificationURL)
	return nil
}

func newService(t *testing.T) (*Service, *repository.Memory, *fakeVerificationMailer) {
	t.Helper()
	mem := repository.NewMemory()
	mailer := &fakeVerificationMailer{}
	svc := NewService(
		repository.MemoryUsers{Memory: mem},
		signer.New([]byte("app-key")),
		mailer,
		"jwt-secret",
		"http://front.local",
	)
	return svc, mem, mailer
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	svc, _, mailer := newService(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, "Ann", "ann@example.com", "longenough")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if sess.Token == "" || sess.User.ID == 0 {
		t.Fatalf("session = %+v", sess)
	}
	if len(mailer.urls) != 1 {
		t.Fatalf("verification mails = %d", len(mailer.urls))
	}

	if _, err := svc.Register(ctx, "Ann2", "ann@example.com", "longenough"); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("duplicate email: want conflict, got %v", err)
	}

	if _, err := svc.Login(ctx, "ann@example.com", "wrong-password"); apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Fatalf("bad password: want unauthorized, got %v", err)
	}
	sess, err = svc.Login(ctx, "ann@example.com", "longenough")
	if err != nil || sess.Token == "" {
		t.Fatalf("login = %+v, %v", sess, err)
	}
}

func TestRegisterValidates(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Register(context.Background(), "", "not-an-email", "short")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("want validation, got %v", err)
	}
	fields := apperr.FieldsOf(err)
	for _, f := range []string{"name", "email", "password"} {
		if fields[f] == "" {
			t.Fatalf("missing field message for %q: %v", f, fields)
		}
	}
}

func TestVerifyEmailConsumesSignedURL(t *testing.T) {
	svc, mem, mailer := newService(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, "Ann", "ann@example.com", "longenough")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	u, err := url.Parse(mailer.urls[0])
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	q := u.Query()
	id, _ := strconv.ParseInt(q.Get("id"), 10, 64)
	if id != sess.User.ID {
		t.Fatalf("url id = %d", id)
	}

	if err := svc.VerifyEmail(ctx, id, q.Get("expires"), q.Get("signature")); err != nil {
		t.Fatalf("verify: %v", err)
	}
	user, _ := mem.GetUserByID(ctx, id)
	if user.EmailVerifiedAt == nil {
		t.Fatal("email not marked verified")
	}

	if err := svc.VerifyEmail(ctx, id, q.Get("expires"), "tampered"); apperr.KindOf(err) != apperr.KindExpired {
		t.Fatalf("tampered signature: want expired, got %v", err)
	}
}

func TestVerifyEmailExpiredLink(t *testing.T) {
	svc, _, mailer := newService(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, "Ann", "ann@example.com", "longenough")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	u, _ := url.Parse(mailer.urls[0])
	q := u.Query()

	svc.now = func() time.Time { return time.Now().Add(verifyTTL + time.Hour) }
	err = svc.VerifyEmail(ctx, sess.User.ID, q.Get("expires"), q.Get("signature"))
	if apperr.KindOf(err) != apperr.KindExpired {
		t.Fatalf("want expired, got %v", err)
	}
}

func TestMiddlewareAuthenticates(t *testing.T) {
	svc, mem, _ := newService(t)
	ctx := context.Background()
	sess, err := svc.Register(ctx, "Ann", "ann@example.com", "longenough")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	mw := NewMiddleware("jwt-secret", repository.MemoryUsers{Memory: mem})
	var gotID int64
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = UserID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || gotID != sess.User.ID {
		t.Fatalf("status = %d, user id = %d", rec.Code, gotID)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token status = %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(models.RoleSuperAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), &models.User{ID: 1, Role: models.RoleUser}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("plain user status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), &models.User{ID: 2, Role: models.RoleSuperAdmin}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin status = %d", rec.Code)
	}
}
