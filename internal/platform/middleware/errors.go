package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/kindercare/kindercare/internal/platform/apperr"
	"github.com/kindercare/kindercare/internal/platform/db"
	"github.com/kindercare/kindercare/pkg/envelope"
)

// ErrorHandler renders every error as {success:false, message}. Classified
// service errors map to their kind's status, echo errors keep their code and
// anything else is logged and reported as a generic 500.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, msg := resolveError(err)
		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).
				Str("request_id", requestID(c)).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = envelope.Fail(c, status, msg)
		}
		if werr != nil {
			logger.Error().Err(werr).Str("request_id", requestID(c)).Msg("write error response")
		}
	}
}

func resolveError(err error) (int, string) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		if ae.Kind == apperr.KindInternal {
			return http.StatusInternalServerError, "internal server error"
		}
		return ae.Kind.HTTPStatus(), ae.Error()
	}

	if db.IsStringTooLong(err) {
		return http.StatusBadRequest, "value too long"
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code == http.StatusInternalServerError {
			return he.Code, "internal server error"
		}
		if he.Code > http.StatusInternalServerError {
			return he.Code, http.StatusText(he.Code)
		}
		msg := fmt.Sprint(he.Message)
		if m, ok := he.Message.(string); ok {
			msg = m
		}
		return he.Code, msg
	}

	return http.StatusInternalServerError, "internal server error"
}
