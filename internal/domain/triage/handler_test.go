package triage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kindercare/kindercare/internal/domain/child"
	"github.com/kindercare/kindercare/internal/platform/apperr"
	"github.com/kindercare/kindercare/internal/platform/auth"
)

type stubChildren map[uuid.UUID]*child.Child

func (s stubChildren) Get(_ context.Context, p auth.Principal, id uuid.UUID) (*child.Child, error) {
	c, ok := s[id]
	if !ok || c.ParentID != p.UserID {
		return nil, child.ErrNotFound
	}
	return c, nil
}

func preview(t *testing.T, h *Handler, p auth.Principal, body string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/parent/triage", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.WithPrincipal(req.Context(), p))
	rec := httptest.NewRecorder()
	return rec, h.Preview(e.NewContext(req, rec))
}

func TestPreview_UsesChildAge(t *testing.T) {
	p := auth.Principal{UserID: uuid.New(), Role: auth.RoleParent}
	kid := &child.Child{ID: uuid.New(), ParentID: p.UserID, AgeMonths: 24}
	h := NewHandler(stubChildren{kid.ID: kid})

	rec, err := preview(t, h, p, `{"childId":"`+kid.ID.String()+`","symptoms":["fever"],"severity":"mild","duration":"1 day"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var body struct {
		Data Assessment `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Verdict != VerdictEmergency {
		t.Errorf("expected emergency for a febrile two year old, got %q", body.Data.Verdict)
	}
	if !strings.Contains(body.Data.Summary, "O: Age: 2 years | Severity: Low | Duration: 1 day") {
		t.Errorf("unexpected summary %q", body.Data.Summary)
	}
}

func TestPreview_AgeMonths(t *testing.T) {
	h := NewHandler(stubChildren{})
	p := auth.Principal{UserID: uuid.New(), Role: auth.RoleParent}

	rec, err := preview(t, h, p, `{"ageMonths":120,"symptoms":["cough"," "],"severity":"moderate","duration":"2 days"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), VerdictGP) {
		t.Errorf("expected GP verdict in %s", rec.Body.String())
	}
}

func TestPreview_Errors(t *testing.T) {
	p := auth.Principal{UserID: uuid.New(), Role: auth.RoleParent}
	other := &child.Child{ID: uuid.New(), ParentID: uuid.New(), AgeMonths: 24}
	h := NewHandler(stubChildren{other.ID: other})

	tests := []struct {
		name string
		body string
		kind apperr.Kind
	}{
		{"no symptoms", `{"ageMonths":12,"symptoms":[" "]}`, apperr.KindValidation},
		{"no age", `{"symptoms":["cough"]}`, apperr.KindValidation},
		{"foreign child", `{"childId":"` + other.ID.String() + `","symptoms":["cough"]}`, apperr.KindForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := preview(t, h, p, tt.body)
			if !apperr.IsKind(err, tt.kind) {
				t.Errorf("expected %v, got %v", tt.kind, err)
			}
		})
	}
}
