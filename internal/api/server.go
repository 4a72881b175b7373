package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"promoengine/internal/engine"
	"promoengine/internal/promo"
	"promoengine/internal/store"
	"promoengine/internal/telemetry"
)

// Server exposes the quote, coupon and admin catalog endpoints.
type Server struct {
	engine      *engine.Engine
	promotions  store.PromotionStore
	catalog     store.CatalogStore
	adminAPIKey string
	ratePerIP   int
	ratePerKey  int
	log         zerolog.Logger
}

// NewServer wires the HTTP surface over an already-constructed engine and
// its stores. ratePerIP bounds public traffic per client IP per minute;
// ratePerKey bounds admin traffic per bearer token per minute.
func NewServer(eng *engine.Engine, promotions store.PromotionStore, catalog store.CatalogStore, adminKey string, ratePerIP, ratePerKey int, log zerolog.Logger) *Server {
	return &Server{
		engine:      eng,
		promotions:  promotions,
		catalog:     catalog,
		adminAPIKey: adminKey,
		ratePerIP:   ratePerIP,
		ratePerKey:  ratePerKey,
		log:         log,
	}
}

// Router builds the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(chimw.Timeout(10 * time.Second))
	r.Use(telemetry.Middleware)

	// health
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// public: quote and coupon validation
	r.Group(func(r chi.Router) {
		if s.ratePerIP > 0 {
			r.Use(httprate.LimitByIP(s.ratePerIP, time.Minute))
		}
		r.Post("/v1/cart/promotions", s.handleQuote)
		r.Post("/v1/coupons/validate", s.handleValidateCoupon)
	})

	// admin (protected): promotion catalog CRUD
	r.Route("/v1/promotions", func(r chi.Router) {
		if s.ratePerKey > 0 {
			r.Use(httprate.Limit(s.ratePerKey, time.Minute, httprate.WithKeyFuncs(keyByBearerToken)))
		}
		r.Use(s.authAdmin)
		r.Get("/", s.handleListPromotions)
		r.Post("/", s.handleUpsertPromotion)
		r.Get("/{id}", s.handleGetPromotion)
		r.Delete("/{id}", s.handleDeletePromotion)
	})

	return r
}

// ---- public handlers ----

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req CartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON")
		return
	}

	c, err := s.buildCart(r.Context(), req)
	if err != nil {
		BadRequestError(w, r, ErrCodeInvalidCart, err.Error())
		return
	}

	result, err := s.engine.Apply(r.Context(), c, req.Coupon)
	if err != nil {
		s.log.Error().Err(err).Msg("promotion evaluation failed")
		InternalError(w, r, "promotion evaluation failed")
		return
	}

	recordResultMetrics(result)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var req CartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Coupon) == "" {
		BadRequestError(w, r, ErrCodeMissingField, "coupon is required")
		return
	}

	c, err := s.buildCart(r.Context(), req)
	if err != nil {
		BadRequestError(w, r, ErrCodeInvalidCart, err.Error())
		return
	}

	validation, err := s.engine.ValidateCoupon(r.Context(), c, req.Coupon)
	if err != nil {
		s.log.Error().Err(err).Msg("coupon validation failed")
		InternalError(w, r, "coupon validation failed")
		return
	}

	resp := CouponValidationResponse{Valid: validation.Valid}
	if validation.Valid {
		telemetry.CouponValidations.WithLabelValues("accepted").Inc()
		resp.Promotions = validation.Result.Promotions
		total := validation.Result.DiscountTotal
		resp.DiscountTotal = &total
	} else {
		telemetry.CouponValidations.WithLabelValues("rejected").Inc()
	}
	writeJSON(w, http.StatusOK, resp)
}

func recordResultMetrics(result engine.Result) {
	for _, d := range result.Promotions {
		telemetry.PromotionsApplied.WithLabelValues(string(d.Type)).Inc()
	}
	if n := len(result.FreeGifts); n > 0 {
		telemetry.FreeGiftsEmitted.Add(float64(n))
	}
}

// ---- admin handlers ----

func (s *Server) handleListPromotions(w http.ResponseWriter, r *http.Request) {
	promos, err := s.promotions.ListPromotions(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("list promotions failed")
		InternalError(w, r, "list promotions failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"promotions": promos})
}

func (s *Server) handleGetPromotion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := s.promotions.GetPromotion(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError(w, r, "promotion not found")
			return
		}
		s.log.Error().Err(err).Str("promotion", id).Msg("get promotion failed")
		InternalError(w, r, "get promotion failed")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpsertPromotion(w http.ResponseWriter, r *http.Request) {
	var p promo.Promotion
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON")
		return
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := promo.Validate(p); err != nil {
		BadRequestError(w, r, ErrCodeInvalidPromotion, err.Error())
		return
	}

	if err := s.promotions.UpsertPromotion(r.Context(), p); err != nil {
		s.log.Error().Err(err).Str("promotion", p.ID).Msg("upsert promotion failed")
		InternalError(w, r, "upsert promotion failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": p.ID})
}

func (s *Server) handleDeletePromotion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.promotions.DeletePromotion(r.Context(), id); err != nil {
		s.log.Error().Err(err).Str("promotion", id).Msg("delete promotion failed")
		InternalError(w, r, "delete promotion failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// ---- middleware & helpers ----

// keyByBearerToken buckets admin requests by their token so one noisy client
// cannot exhaust the admin quota for everyone behind the same proxy.
func keyByBearerToken(r *http.Request) (string, error) {
	return strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer")), nil
}

func (s *Server) authAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer"))
		if got == "" {
			UnauthorizedError(w, r, "missing bearer token")
			return
		}
		// constant-time compare
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.adminAPIKey)) != 1 {
			ForbiddenError(w, r, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
