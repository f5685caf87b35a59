package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/devstudio/devstudio-server/internal/auth"
	"github.com/devstudio/devstudio-server/internal/config"
	"github.com/devstudio/devstudio-server/internal/db"
	"github.com/devstudio/devstudio-server/internal/db/repository"
	"github.com/devstudio/devstudio-server/internal/models"
	"github.com/devstudio/devstudio-server/internal/service"
	"github.com/pquerna/otp/totp"
)

type testServer struct {
	server *Server
	admins *repository.AdminRepository
	tokens *auth.TokenIssuer
	svc    *service.AdminService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	database, err := db.New(":memory:")
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := db.RunMigrations(database); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}

	cfg := config.Default()
	cfg.Auth.JWTSecret = "test-secret"

	admins := repository.NewAdminRepository(database.DB)
	invites := repository.NewInviteRepository(database.DB)
	audits := repository.NewAuditRepository(database.DB)
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.GetTokenTTL())
	svc := service.NewAdminService(admins, invites, tokens, cfg.GetInviteValidity())

	return &testServer{
		server: NewServer(cfg, database, svc, tokens, audits),
		admins: admins,
		tokens: tokens,
		svc:    svc,
	}
}

func (ts *testServer) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

// createBootstrapAdmin creates the first admin through the HTTP surface
func (ts *testServer) createBootstrapAdmin(t *testing.T) {
	t.Helper()
	w := ts.request(t, http.MethodPost, "/api/admin/create", "", map[string]string{
		"username": "root",
		"password": "secret1",
		"email":    "a@b.com",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("bootstrap create: status %d body %s", w.Code, w.Body.String())
	}
}

func (ts *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	w := ts.request(t, http.MethodPost, "/api/admin/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", w.Code, w.Body.String())
	}
	token, _ := decode(t, w)["token"].(string)
	if token == "" {
		t.Fatal("expected a token")
	}
	return token
}

func TestHealthAndReadiness(t *testing.T) {
	ts := newTestServer(t)

	if w := ts.request(t, http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Errorf("/health: status %d", w.Code)
	}
	if w := ts.request(t, http.MethodGet, "/api/readiness", "", nil); w.Code != http.StatusOK {
		t.Errorf("/api/readiness: status %d", w.Code)
	}
}

func TestCreateValidation(t *testing.T) {
	ts := newTestServer(t)

	w := ts.request(t, http.MethodPost, "/api/admin/create", "", map[string]string{
		"username": "ab",
		"password": "123",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", w.Code)
	}
	if _, ok := decode(t, w)["errors"]; !ok {
		t.Errorf("expected errors array, got %s", w.Body.String())
	}
}

func TestCreateSecondWithoutToken(t *testing.T) {
	ts := newTestServer(t)
	ts.createBootstrapAdmin(t)

	w := ts.request(t, http.MethodPost, "/api/admin/create", "", map[string]string{
		"username": "root2",
		"password": "secret1",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401 (body %s)", w.Code, w.Body.String())
	}
}

func TestCreateSecondWithAdminToken(t *testing.T) {
	ts := newTestServer(t)
	ts.createBootstrapAdmin(t)

	// The bootstrap admin has role "admin", which is not enough
	token := ts.login(t, "root", "secret1")
	w := ts.request(t, http.MethodPost, "/api/admin/create", token, map[string]string{
		"username": "root2",
		"password": "secret1",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want 403 (body %s)", w.Code, w.Body.String())
	}
}

func TestLoginFlow(t *testing.T) {
	ts := newTestServer(t)
	ts.createBootstrapAdmin(t)

	// Wrong password
	w := ts.request(t, http.MethodPost, "/api/admin/login", "", map[string]string{
		"username": "root",
		"password": "wrongpass",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: status %d", w.Code)
	}
	if msg := decode(t, w)["message"]; msg != "Invalid credentials" {
		t.Errorf("message: got %v", msg)
	}

	// Unknown user gets the identical response
	w = ts.request(t, http.MethodPost, "/api/admin/login", "", map[string]string{
		"username": "ghost",
		"password": "secret1",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user: status %d", w.Code)
	}
	if msg := decode(t, w)["message"]; msg != "Invalid credentials" {
		t.Errorf("message: got %v", msg)
	}

	// Correct credentials yield a verifiable token
	token := ts.login(t, "root", "secret1")
	claims, err := ts.tokens.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Username != "root" {
		t.Errorf("claims username: got %q", claims.Username)
	}
}

func TestMissingAuthHeader(t *testing.T) {
	ts := newTestServer(t)
	ts.createBootstrapAdmin(t)

	w := ts.request(t, http.MethodPost, "/api/admin/2fa/setup", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", w.Code)
	}
	if msg := decode(t, w)["message"]; msg != "Unauthorized" {
		t.Errorf("message: got %v", msg)
	}
}

func TestMalformedAuthHeader(t *testing.T) {
	ts := newTestServer(t)
	ts.createBootstrapAdmin(t)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/2fa/setup", nil)
	req.Header.Set("Authorization", "Token abcdef")
	w := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", w.Code)
	}
}

func TestForgedToken(t *testing.T) {
	ts := newTestServer(t)
	ts.createBootstrapAdmin(t)

	forged := auth.NewTokenIssuer("other-secret", time.Hour)
	token, err := forged.Issue(1, "root", models.RoleAdmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	w := ts.request(t, http.MethodPost, "/api/admin/2fa/setup", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", w.Code)
	}
}

func TestListRequiresSuperadmin(t *testing.T) {
	ts := newTestServer(t)
	ts.createBootstrapAdmin(t)

	// admin role is rejected, with no hierarchy shortcut
	token := ts.login(t, "root", "secret1")
	w := ts.request(t, http.MethodGet, "/api/admin/list", token, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("admin token on /list: status %d, want 403", w.Code)
	}

	// a superadmin token passes
	super, err := ts.tokens.Issue(99, "boss", models.RoleSuperadmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	w = ts.request(t, http.MethodGet, "/api/admin/list", super, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("superadmin token on /list: status %d body %s", w.Code, w.Body.String())
	}

	body := decode(t, w)
	data, ok := body["data"].([]interface{})
	if !ok || len(data) != 1 {
		t.Fatalf("expected one admin in data, got %s", w.Body.String())
	}

	// The projection must not leak hashes or secrets
	if strings.Contains(w.Body.String(), "password") || strings.Contains(w.Body.String(), "ecret") {
		t.Errorf("listing leaks sensitive fields: %s", w.Body.String())
	}
}

func TestTwoFactorOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	ts.createBootstrapAdmin(t)
	token := ts.login(t, "root", "secret1")

	// Setup
	w := ts.request(t, http.MethodPost, "/api/admin/2fa/setup", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("setup: status %d body %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	otpauth, _ := body["otpauth"].(string)
	qr, _ := body["qr"].(string)
	if !strings.HasPrefix(otpauth, "otpauth://totp/") {
		t.Errorf("otpauth: got %q", otpauth)
	}
	if !strings.HasPrefix(qr, "data:image/png;base64,") {
		t.Errorf("qr: got %q", qr)
	}

	// Setup twice is rejected only once enabled; while pending it reprovisions
	admin, err := ts.admins.GetByUsername("root")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	secret := admin.TwoFASecret

	// Enable with a bad code
	w = ts.request(t, http.MethodPost, "/api/admin/2fa/enable", token, map[string]string{"token": "000000"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("enable bad code: status %d", w.Code)
	}

	// Enable with a good code
	code, err := totp.GenerateCode(secret, time.Now())
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}
	w = ts.request(t, http.MethodPost, "/api/admin/2fa/enable", token, map[string]string{"token": code})
	if w.Code != http.StatusOK {
		t.Fatalf("enable: status %d body %s", w.Code, w.Body.String())
	}

	// Login now requires the second factor
	w = ts.request(t, http.MethodPost, "/api/admin/login", "", map[string]string{
		"username": "root",
		"password": "secret1",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("login without 2FA: status %d", w.Code)
	}
	if msg := decode(t, w)["message"]; msg != "2FA token required" {
		t.Errorf("message: got %v", msg)
	}

	code, _ = totp.GenerateCode(secret, time.Now())
	w = ts.request(t, http.MethodPost, "/api/admin/login", "", map[string]string{
		"username":   "root",
		"password":   "secret1",
		"twoFAToken": code,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login with 2FA: status %d body %s", w.Code, w.Body.String())
	}

	// Disable
	code, _ = totp.GenerateCode(secret, time.Now())
	w = ts.request(t, http.MethodPost, "/api/admin/2fa/disable", token, map[string]string{"token": code})
	if w.Code != http.StatusOK {
		t.Fatalf("disable: status %d body %s", w.Code, w.Body.String())
	}

	admin, _ = ts.admins.GetByUsername("root")
	if admin.TwoFAEnabled || admin.TwoFASecret != "" {
		t.Error("disable must clear the flag and the secret")
	}
}

func TestInviteOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	ts.createBootstrapAdmin(t)

	super, err := ts.tokens.Issue(1, "root", models.RoleSuperadmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Mint an invite as superadmin
	w := ts.request(t, http.MethodPost, "/api/admin/invite", super, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("invite: status %d body %s", w.Code, w.Body.String())
	}
	code, _ := decode(t, w)["invite"].(string)
	if len(code) != 6 {
		t.Fatalf("invite code: got %q", code)
	}

	// An admin-role token cannot mint invites
	admin := ts.login(t, "root", "secret1")
	if w := ts.request(t, http.MethodPost, "/api/admin/invite", admin, nil); w.Code != http.StatusForbidden {
		t.Fatalf("invite as admin: status %d, want 403", w.Code)
	}

	// Redeem the invite without any bearer token
	w = ts.request(t, http.MethodPost, "/api/admin/create", "", map[string]string{
		"username": "invited",
		"password": "secret1",
		"invite":   code,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create with invite: status %d body %s", w.Code, w.Body.String())
	}

	// The code is spent
	w = ts.request(t, http.MethodPost, "/api/admin/create", "", map[string]string{
		"username": "freeloader",
		"password": "secret1",
		"invite":   code,
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("reused invite: status %d, want 401", w.Code)
	}
}
