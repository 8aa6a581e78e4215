package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/invmanager/invmanager-go/internal/middleware"
)

// RouterConfig holds the handlers and middleware mounted by NewRouter.
type RouterConfig struct {
	Auth       *AuthHandler
	Contact    *ContactHandler
	Gate       func(http.Handler) http.Handler
	RateLimit  func(http.Handler) http.Handler // nil: unlimited
	Logger     *slog.Logger
	CORSOrigin string
}

// NewRouter builds the HTTP routing tree.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Home Page"))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/users", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if cfg.RateLimit != nil {
				r.Use(cfg.RateLimit)
			}
			r.Post("/register", cfg.Auth.HandleRegister)
			r.Post("/login", cfg.Auth.HandleLogin)
			r.Post("/forgotpassword", cfg.Auth.HandleForgotPassword)
			r.Put("/resetpassword/{resetToken}", cfg.Auth.HandleResetPassword)
		})

		r.Get("/logout", cfg.Auth.HandleLogout)
		r.Get("/loginstatus", cfg.Auth.HandleLoginStatus)

		r.Group(func(r chi.Router) {
			r.Use(cfg.Gate)
			r.Get("/getuser", cfg.Auth.HandleGetUser)
			r.Patch("/updateuser", cfg.Auth.HandleUpdateUser)
			r.Patch("/changepassword", cfg.Auth.HandleChangePassword)
			if cfg.Auth.service.PhotoUploadEnabled() {
				r.Post("/uploadphoto", cfg.Auth.HandleUploadPhoto)
			}
		})
	})

	if cfg.Contact != nil {
		r.With(cfg.Gate).Post("/api/contactus", cfg.Contact.HandleContact)
	}

	return r
}
