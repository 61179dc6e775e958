package main

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/kindercare/kindercare/internal/config"
	"github.com/kindercare/kindercare/internal/domain/appointment"
	"github.com/kindercare/kindercare/internal/domain/cases"
	"github.com/kindercare/kindercare/internal/domain/child"
	"github.com/kindercare/kindercare/internal/domain/identity"
	"github.com/kindercare/kindercare/internal/domain/triage"
	"github.com/kindercare/kindercare/internal/platform/auth"
	"github.com/kindercare/kindercare/internal/platform/blobstore"
	"github.com/kindercare/kindercare/internal/platform/db"
	"github.com/kindercare/kindercare/internal/platform/middleware"
)

type deps struct {
	pool        *pgxpool.Pool
	tokens      *auth.TokenIssuer
	revocations auth.RevocationStore
	blobs       blobstore.Store
}

// newServer builds the echo instance with the middleware chain and every
// route registered. It does not touch the database.
func newServer(cfg *config.Config, logger zerolog.Logger, d deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)

	rl := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rl.RequestsPerSecond = cfg.RateLimitRPS
	}
	if cfg.RateLimitBurst > 0 {
		rl.BurstSize = cfg.RateLimitBurst
	}

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.Sanitize(logger))
	e.Use(middleware.SecurityHeaders(cfg.TLSEnabled))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization, echo.HeaderXRequestID},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit, cfg.UploadLimit))
	e.Use(middleware.RateLimit(rl))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(auth.JWTMiddleware(d.tokens, d.revocations, auth.AuthSkipper))
	e.Use(middleware.Audit(logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(d.pool))

	registerRoutes(e, d)
	return e
}

func registerRoutes(e *echo.Echo, d deps) {
	tx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.WithTx(ctx, d.pool, fn)
	}

	childSvc := child.NewService(child.NewRepoPG(d.pool))
	caseSvc := cases.NewService(cases.NewRepoPG(d.pool), childSvc, d.blobs, tx)
	apptSvc := appointment.NewService(appointment.NewRepoPG(d.pool), childSvc, caseSvc)
	identitySvc := identity.NewService(identity.NewRepoPG(d.pool), d.tokens, d.revocations)

	api := e.Group("/api")
	parent := api.Group("/parent", auth.RequireRole(auth.RoleParent))
	clinic := api.Group("/clinic", auth.RequireRole(auth.RoleClinic), auth.RequireClinicAccount())

	identity.NewHandler(identitySvc).RegisterRoutes(api)
	child.NewHandler(childSvc).RegisterRoutes(parent)
	triage.NewHandler(childSvc).RegisterRoutes(parent)
	cases.NewHandler(caseSvc).RegisterRoutes(parent, clinic)
	appointment.NewHandler(apptSvc).RegisterRoutes(parent, clinic)
}
