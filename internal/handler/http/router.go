package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handlers struct {
	Auth    *AuthHandler
	Product *ProductHandler
	Order   *OrderHandler
	Cart    *CartHandler
	Report  *ReportHandler
}

type RouterOptions struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func NewRouter(guard *Guard, handlers Handlers, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	handlers.Auth.RegisterRoutes(r, guard)
	handlers.Product.RegisterRoutes(r, guard)
	handlers.Order.RegisterRoutes(r, guard)
	handlers.Cart.RegisterRoutes(r, guard)
	handlers.Report.RegisterRoutes(r, guard)

	return r
}
