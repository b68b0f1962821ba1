package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/oauth2"

	"github.com/phenrril/skinstore/internal/adapters/events"
	"github.com/phenrril/skinstore/internal/domain"
	"github.com/phenrril/skinstore/internal/usecase"
)

// TokenVerifier resolves a bearer token to the uid it was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Brand is the fallback identity used when a product preview cannot be built.
type Brand struct {
	Name        string
	Image       string
	Description string
	BaseURL     string
}

type Deps struct {
	Products *usecase.ProductUC
	Content  *usecase.ContentUC
	Coupons  *usecase.CouponUC
	Checkout *usecase.CheckoutUC
	Payments *usecase.PaymentUC
	Orders   *usecase.OrderUC
	Users    *usecase.UserUC
	Notifier *usecase.Notifier

	Tokens TokenVerifier
	Hub    *events.Hub
	OAuth  *oauth2.Config

	Brand             Brand
	Currency          string
	PaystackPublicKey string
}

type Server struct {
	Deps
	router chi.Router
}

func New(d Deps) http.Handler {
	s := &Server{Deps: d, router: chi.NewRouter()}
	s.routes()
	return Chain(s.router,
		RequestID,
		chimw.RealIP,
		Logging,
		Recovery,
		SecurityHeaders,
	)
}

func (s *Server) routes() {
	r := s.router
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/auth/google/login", s.handleGoogleLogin)
	r.Get("/auth/google/callback", s.handleGoogleCallback)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.identify)

		r.Get("/public-config", s.handlePublicConfig)
		r.Get("/og-product", s.handleOGProduct)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/register", s.handleRegister)
		r.Post("/coupons/validate", s.handleValidateCoupon)
		r.Get("/products", s.handleListProducts)
		r.Get("/products/{id}", s.handleGetProduct)
		r.Get("/products/{id}/reviews", s.handleProductReviews)
		r.Get("/faqs", s.handleListFAQs)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Post("/paystack-verify", s.handlePaystackVerify)
			r.Post("/admin-create-user", s.handleAdminCreateUser)
			r.Post("/send-order-email", s.handleSendOrderEmail)
			r.Post("/products/{id}/reviews", s.handleSubmitReview)

			r.Post("/orders", s.handlePlaceOrder)
			r.Get("/orders", s.handleMyOrders)
			r.Get("/orders/{id}", s.handleGetOrder)
			r.Post("/orders/{id}/return", s.handleRequestReturn)

			r.Get("/me", s.handleMe)
			r.Put("/me", s.handleUpdateMe)
			r.Post("/me/wishlist/{productId}", s.handleToggleWishlist)
			r.Post("/me/points/redeem", s.handleRedeemPoints)
			r.Get("/me/notifications", s.handleNotifications)
			r.Post("/me/notifications/{id}/read", s.handleMarkNotificationRead)

			r.Get("/stream/{collection}", s.handleStream)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/orders", s.handleAdminOrders)
				r.Get("/orders/export.xlsx", s.handleExportOrders)
				r.Post("/orders/{id}/status", s.handleAdvanceOrder)
				r.Post("/orders/{id}/return", s.handleResolveReturn)
				r.Delete("/orders/{id}", s.handleDeleteOrder)

				r.Get("/coupons", s.handleListCoupons)
				r.Post("/coupons", s.handleSaveCoupon)
				r.Put("/coupons/{code}", s.handleSaveCoupon)
				r.Delete("/coupons/{code}", s.handleDeleteCoupon)

				r.Get("/products", s.handleAdminProducts)
				r.Post("/products", s.handleSaveProduct)
				r.Put("/products/{id}", s.handleSaveProduct)
				r.Delete("/products/{id}", s.handleDeleteProduct)

				r.Get("/reviews", s.handlePendingReviews)
				r.Post("/reviews/{id}/approve", s.handleApproveReview)
				r.Delete("/reviews/{id}", s.handleDeleteReview)

				r.Post("/faqs", s.handleSaveFAQ)
				r.Put("/faqs/{id}", s.handleSaveFAQ)
				r.Delete("/faqs/{id}", s.handleDeleteFAQ)

				r.Get("/users", s.handleListUsers)
				r.Post("/users/{id}/role", s.handleSetRole)
			})
		})
	})
}

type ctxKey int

const callerKey ctxKey = iota

func callerFrom(ctx context.Context) *domain.UserProfile {
	p, _ := ctx.Value(callerKey).(*domain.UserProfile)
	return p
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// identify attaches the caller's profile when a valid bearer token is sent.
// Anonymous or bad tokens pass through; requireAuth decides what that means.
func (s *Server) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := bearerToken(r)
		if tok == "" || s.Tokens == nil || s.Users == nil {
			next.ServeHTTP(w, r)
			return
		}
		uid, err := s.Tokens.Verify(tok)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		p, err := s.Users.Authenticate(r.Context(), uid)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey, p)))
	})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if callerFrom(r.Context()) == nil {
			writeError(w, r, domain.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handlePublicConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"paystackPublicKey": s.PaystackPublicKey,
		"currency":          s.Currency,
	})
}
