package triage

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kindercare/kindercare/internal/domain/child"
	"github.com/kindercare/kindercare/internal/platform/apperr"
	"github.com/kindercare/kindercare/internal/platform/auth"
	"github.com/kindercare/kindercare/pkg/envelope"
)

// ChildFinder resolves a child owned by the caller.
type ChildFinder interface {
	Get(ctx context.Context, p auth.Principal, id uuid.UUID) (*child.Child, error)
}

// PreviewRequest is the intake form before a case is submitted. The age comes
// from the child profile when childId is set, otherwise from ageMonths.
type PreviewRequest struct {
	ChildID   *uuid.UUID `json:"childId"`
	AgeMonths *int       `json:"ageMonths"`
	Symptoms  []string   `json:"symptoms"`
	Severity  string     `json:"severity"`
	Duration  string     `json:"duration"`
}

type Handler struct {
	children ChildFinder
}

func NewHandler(children ChildFinder) *Handler {
	return &Handler{children: children}
}

func (h *Handler) RegisterRoutes(parent *echo.Group) {
	parent.POST("/triage", h.Preview)
}

// Preview classifies an intake without storing anything.
func (h *Handler) Preview(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	var req PreviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	symptoms := make([]string, 0, len(req.Symptoms))
	for _, s := range req.Symptoms {
		if s = strings.TrimSpace(s); s != "" {
			symptoms = append(symptoms, s)
		}
	}
	if len(symptoms) == 0 {
		return apperr.Field("symptoms", "at least one symptom is required")
	}

	var ageMonths int
	switch {
	case req.ChildID != nil:
		ch, err := h.children.Get(c.Request().Context(), p, *req.ChildID)
		if child.IsNotFound(err) {
			return apperr.Forbidden("Invalid child access")
		}
		if err != nil {
			return err
		}
		ageMonths = ch.AgeMonths
	case req.AgeMonths != nil && *req.AgeMonths >= 0:
		ageMonths = *req.AgeMonths
	default:
		return apperr.Validation("childId or ageMonths is required")
	}

	return envelope.OK(c, Assess(Input{
		AgeYears: AgeYears(ageMonths),
		Severity: SeverityLabel(req.Severity),
		Duration: strings.TrimSpace(req.Duration),
		Symptoms: strings.Join(symptoms, ", "),
	}))
}
