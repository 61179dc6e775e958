package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const testSecret = "test-secret-key-for-unit-tests-only"

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func runMiddleware(t *testing.T, mw echo.MiddlewareFunc, header string, next echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/parent/cases", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/parent/cases")
	return rec, mw(next)(c)
}

func expectHTTPStatus(t *testing.T, err error, code int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected HTTP %d error, got nil", code)
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d", code, httpErr.Code)
	}
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	p := Principal{UserID: uuid.New(), Role: RoleClinic, ClinicID: "clinic-1"}

	tok, err := issuer.Issue(p)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if tok.JTI == "" {
		t.Error("expected jti to be set")
	}

	claims, err := issuer.Parse(tok.Token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.ID != tok.JTI {
		t.Errorf("expected jti %s, got %s", tok.JTI, claims.ID)
	}
	got, err := claims.Principal()
	if err != nil {
		t.Fatalf("Principal: %v", err)
	}
	if got != p {
		t.Errorf("expected %+v, got %+v", p, got)
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Minute)
	base := time.Now()
	issuer.now = func() time.Time { return base }

	tok, err := issuer.Issue(Principal{UserID: uuid.New(), Role: RoleParent})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	issuer.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := issuer.Parse(tok.Token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestTokenIssuer_WrongKeyAndAlg(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	other := NewTokenIssuer("another-secret-entirely-different", time.Hour)

	tok, _ := other.Issue(Principal{UserID: uuid.New(), Role: RoleParent})
	if _, err := issuer.Parse(tok.Token); err == nil {
		t.Error("expected token signed with another key to be rejected")
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "PARENT",
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := issuer.Parse(unsigned); err == nil {
		t.Error("expected alg=none token to be rejected")
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	_, err := runMiddleware(t, JWTMiddleware(issuer, nil, nil), "", okHandler)
	expectHTTPStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_InvalidFormat(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "Token abc123"},
		{"missing token", "Bearer"},
		{"empty value", "Bearer "},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer not-a-jwt"},
	}

	issuer := NewTokenIssuer(testSecret, time.Hour)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runMiddleware(t, JWTMiddleware(issuer, nil, nil), tt.header, okHandler)
			expectHTTPStatus(t, err, http.StatusUnauthorized)
		})
	}
}

func TestJWTMiddleware_SetsPrincipal(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	want := Principal{UserID: uuid.New(), Role: RoleParent}
	tok, _ := issuer.Issue(want)

	var got Principal
	var claims *Claims
	rec, err := runMiddleware(t, JWTMiddleware(issuer, nil, nil), "Bearer "+tok.Token, func(c echo.Context) error {
		got, _ = PrincipalFromContext(c.Request().Context())
		claims = ClaimsFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if got != want {
		t.Errorf("expected principal %+v, got %+v", want, got)
	}
	if claims == nil || claims.ID != tok.JTI {
		t.Errorf("expected claims with jti %s, got %+v", tok.JTI, claims)
	}
}

func TestJWTMiddleware_RevokedToken(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	store := NewMemoryRevocationStore()
	defer store.Close()

	tok, _ := issuer.Issue(Principal{UserID: uuid.New(), Role: RoleParent})
	_ = store.Revoke(context.Background(), tok.JTI, "", tok.ExpiresAt)

	_, err := runMiddleware(t, JWTMiddleware(issuer, store, nil), "Bearer "+tok.Token, okHandler)
	expectHTTPStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_UnknownRole(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "SUPERUSER",
	}
	signed, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))

	issuer := NewTokenIssuer(testSecret, time.Hour)
	_, err := runMiddleware(t, JWTMiddleware(issuer, nil, nil), "Bearer "+signed, okHandler)
	expectHTTPStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_Skipper(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/auth/login")

	if err := JWTMiddleware(issuer, nil, AuthSkipper)(okHandler)(c); err != nil {
		t.Fatalf("expected public path to skip auth, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestIsPublicPath(t *testing.T) {
	for _, p := range []string{"/health", "/health/db", "/api/auth/register", "/api/auth/login"} {
		if !IsPublicPath(p) {
			t.Errorf("expected %s to be public", p)
		}
	}
	for _, p := range []string{"/api/auth/logout", "/api/auth/me", "/api/parent/cases", "/api/public/clinics"} {
		if IsPublicPath(p) {
			t.Errorf("expected %s to require auth", p)
		}
	}
}
