package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/user"
	"github.com/cmlabs-hris/hris-reconciliation/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-reconciliation/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	AppName        string
	Version        string
	Env            string
	AllowedOrigins []string
}

func NewRouter(opts RouterOptions, JWTService jwt.Service, reconciliationHandler ReconciliationHandler, mismatchHandler MismatchHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(opts.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", opts.AppName),
		slog.String("version", opts.Version),
		slog.String("env", opts.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Route("/reconciliations", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionReconciliationRun)).Post("/run", reconciliationHandler.Run)
			})

			r.Route("/mismatches", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionMismatchViewOwn)).Get("/", mismatchHandler.List)

				r.Route("/{id}", func(r chi.Router) {
					r.With(middleware.RequirePermission(user.PermissionMismatchViewOwn)).Get("/", mismatchHandler.Get)
					r.With(middleware.RequirePermission(user.PermissionMismatchExplain)).Post("/explanation", mismatchHandler.SubmitExplanation)
					r.With(middleware.RequirePermission(user.PermissionMismatchDecide)).Post("/decision", mismatchHandler.Decide)
				})
			})
		})
	})
	return r
}
