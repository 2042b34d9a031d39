package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/avdeluca/inkwell-be/internal/api/handlers"
	"github.com/avdeluca/inkwell-be/internal/auth"
	"github.com/avdeluca/inkwell-be/internal/config"
	"github.com/avdeluca/inkwell-be/internal/services"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	cfg *config.Config,
	tokens *auth.Manager,
	userService services.UserServiceProvider,
	categoryService services.CategoryServiceProvider,
	postService services.PostServiceProvider,
	uploadService services.UploadServiceProvider,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, tokens)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	postHandler := handlers.NewPostHandler(postService, uploadService, cfg.DefaultPageSize, cfg.MaxPageSize)

	requireAuth := tokens.Require(userService)
	optionalAuth := tokens.Optional(userService)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"success":true,"data":{"status":"ok"}}`))
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.With(requireAuth).Get("/me", authHandler.Me)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categoryHandler.List)
			r.With(requireAuth).Post("/", categoryHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.With(requireAuth).Put("/", categoryHandler.Update)
				r.With(requireAuth).Delete("/", categoryHandler.Delete)
			})
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", postHandler.List)
			r.With(requireAuth).Post("/", postHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", postHandler.Get)
				r.With(requireAuth).Put("/", postHandler.Update)
				r.With(requireAuth).Delete("/", postHandler.Delete)
				r.With(optionalAuth).Post("/comments", postHandler.AddComment)
			})
		})
	})

	// Uploaded media is served read-only from a static path.
	fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir)))
	r.Get("/uploads/*", fileServer.ServeHTTP)

	return r
}
