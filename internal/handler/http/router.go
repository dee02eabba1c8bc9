package http

import (
	"log/slog"
	"os"

	"github.com/corepay/payroll-engine-go/internal/handler/http/middleware"
	"github.com/corepay/payroll-engine-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	env string,
	jwtService jwt.Service,
	runHandler RunHandler,
	payslipHandler PayslipHandler,
	awardHandler AwardHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "payroll-engine"),
		slog.String("version", "v1.0.0"),
		slog.String("env", env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
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
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwtService.JWTAuth()))

			r.Route("/payroll-runs", func(r chi.Router) {
				r.Get("/", runHandler.List)
				r.Post("/", runHandler.Create)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", runHandler.Get)
					r.Patch("/", runHandler.Update)

					r.Post("/generate-draft", runHandler.GenerateDraft)
					r.Post("/submit-review", runHandler.SubmitForReview)
					r.Post("/approve", runHandler.ManagerApprove)
					r.Post("/finance-approve", runHandler.FinanceApprove)
					r.Post("/reject", runHandler.Reject)
					r.Post("/lock", runHandler.Lock)
					r.Post("/unlock", runHandler.Unlock)

					r.Route("/details", func(r chi.Router) {
						r.Get("/", runHandler.ListDetails)
						r.Route("/{employeeID}", func(r chi.Router) {
							r.Get("/", runHandler.GetDetail)
							r.Get("/exceptions", runHandler.ListEmployeeExceptions)
							r.Post("/exceptions/resolve", runHandler.ResolveException)
						})
					})
					r.Get("/exceptions", runHandler.ListExceptions)

					r.Route("/payslips", func(r chi.Router) {
						r.Get("/", payslipHandler.ListByRun)
						r.Post("/", payslipHandler.GenerateForRun)
						r.Get("/{employeeID}", payslipHandler.GetForEmployee)
					})
				})
			})

			r.Route("/awards", func(r chi.Router) {
				r.Get("/pending", awardHandler.ListPending)
				r.Post("/{kind}/{awardID}/decide", awardHandler.Decide)
			})
		})
	})
	return r
}
