package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/travela-id/backend-travela/internal/common"
)

func testAuthService() *Service {
	return &Service{
		Secret:   []byte("test-secret-test-secret-test-secret!"),
		Issuer:   "travela-test",
		Audience: "travela-api",
		TTL:      time.Minute,
	}
}

func TestIssueAndParseRoundTrip(t *testing.T) {
	svc := testAuthService()

	token, expiresAt, err := svc.IssueAccessToken("user-123", []string{"admin"})
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("expected future expiry, got %s", expiresAt)
	}
	subject, roles, err := svc.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if subject != "user-123" {
		t.Fatalf("expected subject user-123, got %s", subject)
	}
	if len(roles) != 1 || roles[0] != "admin" {
		t.Fatalf("expected admin role, got %v", roles)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	svc := testAuthService()
	svc.Now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := svc.IssueAccessToken("user-123", nil)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	svc.Now = nil
	if _, _, err := svc.ParseAccessToken(token); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestParseRejectsForeignSecret(t *testing.T) {
	svc := testAuthService()
	token, _, err := svc.IssueAccessToken("user-123", nil)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	other := testAuthService()
	other.Secret = []byte("another-secret-another-secret-entirely")
	if _, _, err := other.ParseAccessToken(token); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestRequireRole(t *testing.T) {
	svc := testAuthService()
	mw := Middleware{Service: svc}
	handler := mw.RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := common.UserID(r.Context())
		w.Header().Set("X-Subject", userID)
		w.WriteHeader(http.StatusNoContent)
	}))

	adminToken, _, _ := svc.IssueAccessToken("admin-1", []string{"admin"})
	shopperToken, _, _ := svc.IssueAccessToken("shopper-1", nil)

	cases := []struct {
		name   string
		token  string
		status int
	}{
		{"admin allowed", adminToken, http.StatusNoContent},
		{"shopper forbidden", shopperToken, http.StatusForbidden},
		{"anonymous unauthorized", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/items", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
		})
	}
}
