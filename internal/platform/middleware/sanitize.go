package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/kindercare/kindercare/pkg/envelope"
)

const maxHeaderValueSize = 8192

var scriptPattern = regexp.MustCompile(`(?i)(<script|javascript\s*:|on\w+\s*=)`)

// Sanitize rejects requests with path traversal, null bytes, header
// injection or script payloads in query parameters.
func Sanitize(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			reject := func(reason string) error {
				logger.Warn().
					Str("request_id", requestID(c)).
					Str("path", req.URL.Path).
					Str("remote_ip", c.RealIP()).
					Str("reason", reason).
					Msg("request rejected by sanitizer")
				return envelope.Fail(c, http.StatusBadRequest, reason)
			}

			raw := req.URL.RawPath
			if raw == "" {
				raw = req.URL.Path
			}
			if hasTraversal(req.URL.Path) || hasTraversal(raw) {
				return reject("path traversal detected")
			}
			if hasNullByte(req.URL.Path) || hasNullByte(raw) {
				return reject("null byte detected in path")
			}

			for name, values := range req.Header {
				for _, v := range values {
					if len(v) > maxHeaderValueSize {
						return reject("header value too large: " + name)
					}
					if strings.ContainsAny(v, "\r\n") {
						return reject("header injection detected: " + name)
					}
				}
			}

			for key, values := range req.URL.Query() {
				if hasNullByte(key) || scriptPattern.MatchString(key) {
					return reject("invalid query parameter")
				}
				for _, v := range values {
					if hasNullByte(v) || scriptPattern.MatchString(v) {
						return reject("invalid query parameter: " + key)
					}
				}
			}

			return next(c)
		}
	}
}

func hasTraversal(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(s, "..") || strings.Contains(lower, "%2e%2e") || strings.Contains(lower, "%252e")
}

func hasNullByte(s string) bool {
	return strings.ContainsRune(s, '\x00') || strings.Contains(strings.ToLower(s), "%00")
}
