package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/kindercare/kindercare/internal/platform/auth"
)

func jsonContext(e *echo.Echo, method, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_RegisterAndLogin(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	h := NewHandler(svc)
	e := echo.New()

	c, rec := jsonContext(e, http.MethodPost, `{"name":"Dana","email":"dana@kc.test","password":"password1","role":"PARENT"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("response must not expose the password hash")
	}

	c, rec = jsonContext(e, http.MethodPost, `{"email":"dana@kc.test","password":"password1"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Data Session `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Token == "" || body.Data.User == nil || body.Data.User.Role != auth.RoleParent {
		t.Errorf("unexpected session %+v", body.Data)
	}
}

func TestHandler_Me(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	h := NewHandler(svc)
	sess, _ := svc.Register(context.Background(), RegisterInput{Name: "Dana", Email: "dana@kc.test", Password: "password1", Role: "PARENT"})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(auth.WithPrincipal(req.Context(), sess.User.Principal()))
	rec := httptest.NewRecorder()
	if err := h.Me(echo.New().NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"email":"dana@kc.test"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHandler_ListClinics(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	h := NewHandler(svc)
	svc.Register(context.Background(), RegisterInput{Name: "Harbor Kids", Email: "h@kc.test", Password: "password1", Role: "CLINIC"})

	req := httptest.NewRequest(http.MethodGet, "/api/public/clinics?q=harbor", nil)
	rec := httptest.NewRecorder()
	if err := h.ListClinics(echo.New().NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"clinicName":"Harbor Kids"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}
