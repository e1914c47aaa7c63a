package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/FACorreiaa/go-user-accounts/internal/types"
)

// Config contains dependencies needed for the router setup
type Config struct {
	AuthHandler interface {
		Login(w http.ResponseWriter, r *http.Request)
		Register(w http.ResponseWriter, r *http.Request)
		Me(w http.ResponseWriter, r *http.Request)
	}
	UserHandler interface {
		ListUsers(w http.ResponseWriter, r *http.Request)
		GetUser(w http.ResponseWriter, r *http.Request)
		CreateUser(w http.ResponseWriter, r *http.Request)
		UpdateUser(w http.ResponseWriter, r *http.Request)
		DeleteUser(w http.ResponseWriter, r *http.Request)
	}
	AuthenticateMiddleware func(http.Handler) http.Handler
	RequireRoleMiddleware  func(roles ...types.Role) func(http.Handler) http.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are expected to be
// applied before mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// --- Public Auth Routes ---
		r.Group(func(r chi.Router) {
			// Credential endpoints are brute-force targets
			r.Use(httprate.LimitByIP(10, 1*time.Minute))

			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/login", cfg.AuthHandler.Login)
		})

		// --- Protected Routes ---
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)

			r.Get("/auth/me", cfg.AuthHandler.Me)
			r.Get("/users/{userID}", cfg.UserHandler.GetUser)
			r.Put("/users/{userID}", cfg.UserHandler.UpdateUser)
		})

		// --- Admin Routes ---
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)
			r.Use(cfg.RequireRoleMiddleware(types.RoleAdmin))

			r.Get("/users", cfg.UserHandler.ListUsers)
			r.Post("/users", cfg.UserHandler.CreateUser)
			r.Delete("/users/{userID}", cfg.UserHandler.DeleteUser)
		})
	})

	return r
}
