package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Hicham558/HICHAM03041979--sub000/internal/cache"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/service"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/snapshot"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/store"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/xid"
)

// TenantHeader carries the tenant key on every business request.
const TenantHeader = "X-User-ID"

const maxBodyBytes = 1 << 20

var errMissingTenant = errors.New("missing " + TenantHeader + " header")

type tenantKey struct{}

type API struct {
	service       *service.Service
	logger        *zap.Logger
	validate      *validator.Validate
	allowedOrigin string
	authLimiter   *failureLimiter
}

func New(svc *service.Service, logger *zap.Logger, allowedOrigin string) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return &API{
		service:       svc,
		logger:        logger,
		validate:      newValidator(),
		allowedOrigin: allowedOrigin,
		authLimiter:   newFailureLimiter(8, time.Minute),
	}
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(a.requestID)
	r.Use(a.logRequests)
	r.Use(a.recoverer)
	r.Use(a.withHeaders)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, errors.New("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeMethodNotAllowed(w)
	})

	r.Get("/healthz", a.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(a.requireTenant)

		r.Group(func(r chi.Router) {
			r.Use(a.guardCredentials)

			r.Post("/valider_vente", a.handleCreateSale)
			r.Put("/modifier_vente/{id}", a.handleModifySale)
			r.Post("/annuler_vente", a.handleCancelSale)

			r.Post("/valider_reception", a.handleCreateReceipt)
			r.Put("/modifier_reception/{id}", a.handleModifyReceipt)
			r.Post("/annuler_reception", a.handleCancelReceipt)

			r.Post("/ajouter_versement", a.handleCreatePayment)
			r.Put("/modifier_versement", a.handleModifyPayment)
			r.Delete("/annuler_versement", a.handleCancelPayment)
		})

		r.Get("/vente/{id}", a.handleFetchSale)
		r.Get("/reception/{id}", a.handleFetchReceipt)

		r.Post("/produits", a.handleCreateProduct)
		r.Post("/produits/{id}/codebar", a.handleAddLinkedBarcode)
		r.Delete("/categories/{id}", a.handleDeleteCategory)

		r.Get("/ventes_jour", a.handleSalesOfDay)
		r.Get("/ventes_jour.xlsx", a.handleSalesOfDayWorkbook)
		r.Get("/receptions_jour", a.handleReceiptsOfDay)
		r.Get("/historique_versements", a.handlePaymentHistory)
		r.Get("/top_produits", a.handleTopProducts)
		r.Get("/benefice", a.handleProfitByDay)
		r.Get("/valeur_stock", a.handleStockValuation)
		r.Get("/valeur_stock.xlsx", a.handleStockValuationWorkbook)
		r.Get("/tableau_de_bord", a.handleDashboard)

		r.Get("/export", a.handleExport)
	})

	return r
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(middleware.RequestIDHeader))
		if id == "" {
			id = xid.New("req")
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *API) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		startedAt := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		a.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(startedAt)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("tenant", strings.TrimSpace(r.Header.Get(TenantHeader))),
		)
	})
}

func (a *API) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				a.logger.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.ByteString("stack", debug.Stack()),
				)
				writeError(w, http.StatusInternalServerError, errors.New("internal server error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (a *API) withHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+TenantHeader)
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodDelete {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) requireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant := strings.TrimSpace(r.Header.Get(TenantHeader))
		if tenant == "" {
			writeError(w, http.StatusUnauthorized, errMissingTenant)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), tenantKey{}, tenant)))
	})
}

// guardCredentials refuses requests from a client that keeps failing the
// seller credential check for a tenant.
func (a *API) guardCredentials(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.authLimiter.Blocked(credentialKey(r)) {
			writeError(w, http.StatusTooManyRequests, errors.New("too many failed credential checks"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func credentialKey(r *http.Request) string {
	return tenantFrom(r) + "|" + clientKey(r)
}

func tenantFrom(r *http.Request) string {
	tenant, _ := r.Context().Value(tenantKey{}).(string)
	return tenant
}

// fail maps an engine error onto its HTTP status and writes it.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if errors.Is(err, service.ErrAuth) {
		a.authLimiter.Fail(credentialKey(r))
	}
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("tenant", tenantFrom(r)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	writeError(w, status, err)
}

func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, service.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict), errors.Is(err, cache.ErrLocked):
		return http.StatusConflict
	case errors.Is(err, store.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, snapshot.ErrPayloadTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrExportDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// decode reads and validates a JSON body. Every failure it returns maps to
// 400 or 413.
func (a *API) decode(r *http.Request, dest any) error {
	if err := decodeJSON(r, dest); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		return fmt.Errorf("%w: invalid JSON body: %v", store.ErrInvalidInput, err)
	}
	if err := a.validate.Struct(dest); err != nil {
		return fmt.Errorf("%w: %s", store.ErrInvalidInput, describeViolations(err))
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func describeViolations(err error) string {
	var violations validator.ValidationErrors
	if !errors.As(err, &violations) {
		return err.Error()
	}
	parts := make([]string, 0, len(violations))
	for _, ve := range violations {
		parts = append(parts, ve.Field()+" "+ve.Tag())
	}
	return "invalid fields: " + strings.Join(parts, ", ")
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", store.ErrInvalidInput, name, raw)
	}
	return id, nil
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx bodies stay generic, except a stock shortfall which the caller
	// has to act on.
	msg := err.Error()
	if status >= http.StatusInternalServerError && !errors.Is(err, store.ErrInsufficientStock) {
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"erreur": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
