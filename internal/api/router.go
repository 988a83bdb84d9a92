package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/ipsacon/registration-service/internal/api/handlers"
)

// NewRouter builds the HTTP router for the registration service.
func NewRouter(payments *handlers.PaymentHandler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	// the checkout frontend runs on a different origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/payments", func(r chi.Router) {
		r.Post("/quote", payments.Quote)
		r.Post("/validate-coupon", payments.ValidateCoupon)
		r.Post("/create-order", payments.CreateOrder)
		r.Post("/verify-payment", payments.VerifyPayment)
	})

	// health
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
