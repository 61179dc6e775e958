package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/kindercare/kindercare/internal/platform/auth"
)

// AuditEntry records who touched which case, appointment or child record.
type AuditEntry struct {
	RequestID  string
	UserID     string
	Role       string
	Scope      string // parent or clinic
	Resource   string // children, cases, appointments, triage
	ResourceID string
	Action     string // read, create, update, delete
	Method     string
	Path       string
	IPAddress  string
	StatusCode int
	Timestamp  time.Time
}

// Audit logs an access record for every request under /api/parent and
// /api/clinic after the handler has run.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			scope, rest, ok := auditScope(req.URL.Path)
			if !ok {
				return next(c)
			}

			err := next(c)

			entry := AuditEntry{
				RequestID:  requestID(c),
				Scope:      scope,
				Action:     actionFor(req.Method),
				Method:     req.Method,
				Path:       req.URL.Path,
				IPAddress:  c.RealIP(),
				StatusCode: c.Response().Status,
				Timestamp:  time.Now().UTC(),
			}
			if he, ok := err.(*echo.HTTPError); ok {
				entry.StatusCode = he.Code
			}
			entry.Resource, entry.ResourceID = splitResource(rest)
			if p, ok := auth.PrincipalFromContext(req.Context()); ok {
				entry.UserID = p.UserID.String()
				entry.Role = string(p.Role)
			}

			logger.Info().
				Str("type", "access_audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Str("role", entry.Role).
				Str("scope", entry.Scope).
				Str("resource", entry.Resource).
				Str("resource_id", entry.ResourceID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Time("at", entry.Timestamp).
				Msg("record_access")

			return err
		}
	}
}

// auditScope returns "parent" or "clinic" and the remainder of the path.
func auditScope(path string) (string, string, bool) {
	for _, scope := range []string{"parent", "clinic"} {
		prefix := "/api/" + scope + "/"
		if strings.HasPrefix(path, prefix) {
			return scope, strings.TrimPrefix(path, prefix), true
		}
	}
	return "", "", false
}

// splitResource maps "cases/<uuid>/notes" to ("cases", "<uuid>").
func splitResource(rest string) (string, string) {
	segments := strings.Split(strings.Trim(rest, "/"), "/")
	resource := segments[0]
	if resource == "" {
		resource = "unknown"
	}
	if len(segments) > 1 {
		if _, err := uuid.Parse(segments[1]); err == nil {
			return resource, segments[1]
		}
	}
	return resource, ""
}

func actionFor(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}
