package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"pharmacare/domain"
	"pharmacare/internal/analytics"
	"pharmacare/internal/inventory"
	"pharmacare/internal/metrics"
	"pharmacare/internal/pos"
	"pharmacare/internal/session"
	"pharmacare/internal/store"
	"pharmacare/internal/users"
)

type ctxKey string

const (
	ctxUserID ctxKey = "userID"
	ctxRole   ctxKey = "role"
)

// Handler bundles dependencies for HTTP handlers. It owns no business logic:
// every route translates a command into a service call.
type Handler struct {
	sessions   *session.Store
	inventory  *inventory.Service
	pos        *pos.Service
	analytics  *analytics.Service
	users      *users.Service
	categories *store.CategoryStore
	metrics    *metrics.Metrics
	registry   *prometheus.Registry
	secret     string
	logger     *zap.Logger
}

// New constructs a Handler.
func New(sessions *session.Store, inv *inventory.Service, posSvc *pos.Service, stats *analytics.Service, admin *users.Service, categories *store.CategoryStore, m *metrics.Metrics, reg *prometheus.Registry, secret string, logger *zap.Logger) *Handler {
	return &Handler{
		sessions:   sessions,
		inventory:  inv,
		pos:        posSvc,
		analytics:  stats,
		users:      admin,
		categories: categories,
		metrics:    m,
		registry:   reg,
		secret:     secret,
		logger:     logger,
	}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(h.registry))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.login)
		r.Group(func(protected chi.Router) {
			protected.Use(h.authMiddleware)
			protected.Post("/logout", h.logout)
			protected.Get("/me", h.me)
		})
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.authMiddleware)

		pr.Route("/medicines", func(r chi.Router) {
			r.Get("/", h.listMedicines)
			r.Post("/", h.createMedicine)
			r.Get("/{id}", h.getMedicine)
			r.Put("/{id}", h.updateMedicine)
			r.Delete("/{id}", h.deleteMedicine)
			r.Post("/{id}/refill", h.refillMedicine)
		})

		pr.Get("/categories", h.listCategories)

		pr.Post("/sales", h.createSale)

		pr.Route("/reports", func(r chi.Router) {
			r.Get("/stats", h.dashboardStats)
			r.Get("/top-selling", h.topSelling)
		})

		pr.Route("/users", func(r chi.Router) {
			r.Get("/", h.listUsers)
			r.Post("/", h.createUser)
			r.Put("/{id}", h.updateUser)
			r.Delete("/{id}", h.deleteUser)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Authentication

type authClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (h *Handler) generateToken(userID string, role domain.Role) (string, error) {
	claims := authClaims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.secret))
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(h.secret), nil
		})
		if err != nil || !token.Valid {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		claims, ok := token.Claims.(*authClaims)
		if !ok {
			respondError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxRole, domain.Role(claims.Role))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requirePermission gates a handler on a domain role predicate. Authorization
// failures are surfaced here at the boundary; the services do not re-check.
func (h *Handler) requirePermission(w http.ResponseWriter, r *http.Request, allowed func(domain.Role) bool) bool {
	role, ok := r.Context().Value(ctxRole).(domain.Role)
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing role")
		return false
	}
	if !allowed(role) {
		respondError(w, http.StatusForbidden, "insufficient permissions")
		return false
	}
	return true
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.sessions.Login(r.Context(), req.Username, req.Password) {
		h.metrics.LoginFailures.Inc()
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	user, ok := h.sessions.CurrentUser(r.Context())
	if !ok {
		respondError(w, http.StatusInternalServerError, "session not established")
		return
	}
	token, err := h.generateToken(user.ID, user.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}
	h.metrics.Logins.Inc()
	respondJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(r.Context())
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.sessions.CurrentUser(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "no active session")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// Medicines

type medicineRequest struct {
	Name          string `json:"name"`
	GenericName   string `json:"generic_name"`
	BatchNumber   string `json:"batch_number"`
	Manufacturer  string `json:"manufacturer"`
	CategoryID    string `json:"category_id"`
	Price         string `json:"price"`
	StockQuantity string `json:"stock_quantity"`
	ExpiryDate    string `json:"expiry_date"`
	Barcode       string `json:"barcode"`
	ImageRef      string `json:"image_ref"`
}

func (req medicineRequest) toInput() inventory.Input {
	return inventory.Input{
		Name:          req.Name,
		GenericName:   req.GenericName,
		BatchNumber:   req.BatchNumber,
		Manufacturer:  req.Manufacturer,
		CategoryID:    req.CategoryID,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		ExpiryDate:    req.ExpiryDate,
		Barcode:       req.Barcode,
		ImageRef:      req.ImageRef,
	}
}

// medicineView decorates a medicine with its derived classifications so the
// presentation layer never recomputes them.
type medicineView struct {
	domain.Medicine
	StockStatus  domain.StockStatus  `json:"stock_status"`
	ExpiryStatus domain.ExpiryStatus `json:"expiry_status"`
}

func newMedicineView(m domain.Medicine, now time.Time) medicineView {
	return medicineView{
		Medicine:     m,
		StockStatus:  m.StockStatus(),
		ExpiryStatus: m.ExpiryStatus(now),
	}
}

func (h *Handler) listMedicines(w http.ResponseWriter, r *http.Request) {
	filter := inventory.Filter{
		Text:       r.URL.Query().Get("query"),
		CategoryID: r.URL.Query().Get("category_id"),
	}
	medicines, err := h.inventory.List(r.Context(), filter)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	now := time.Now()
	views := make([]medicineView, 0, len(medicines))
	for _, m := range medicines {
		views = append(views, newMedicineView(m, now))
	}
	respondJSON(w, http.StatusOK, views)
}

func (h *Handler) getMedicine(w http.ResponseWriter, r *http.Request) {
	m, err := h.inventory.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newMedicineView(m, time.Now()))
}

func (h *Handler) createMedicine(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, domain.CanManageMedicines) {
		return
	}
	var req medicineRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := h.inventory.Create(r.Context(), req.toInput())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.metrics.MedicinesCreated.Inc()
	respondJSON(w, http.StatusCreated, newMedicineView(m, time.Now()))
}

func (h *Handler) updateMedicine(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, domain.CanManageMedicines) {
		return
	}
	var req medicineRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := h.inventory.Update(r.Context(), chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newMedicineView(m, time.Now()))
}

func (h *Handler) deleteMedicine(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, domain.CanManageMedicines) {
		return
	}
	if err := h.inventory.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type refillRequest struct {
	Quantity   int    `json:"quantity"`
	RefillDate string `json:"refill_date"`
	EndDate    string `json:"end_date,omitempty"`
}

func (h *Handler) refillMedicine(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, domain.CanManageMedicines) {
		return
	}
	var req refillRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	refillDate := time.Now()
	if strings.TrimSpace(req.RefillDate) != "" {
		parsed, err := time.Parse("2006-01-02", strings.TrimSpace(req.RefillDate))
		if err != nil {
			respondError(w, http.StatusBadRequest, "refill_date must be in YYYY-MM-DD format")
			return
		}
		refillDate = parsed
	}
	var endDate *time.Time
	if strings.TrimSpace(req.EndDate) != "" {
		parsed, err := time.Parse("2006-01-02", strings.TrimSpace(req.EndDate))
		if err != nil {
			respondError(w, http.StatusBadRequest, "end_date must be in YYYY-MM-DD format")
			return
		}
		endDate = &parsed
	}
	m, err := h.inventory.Refill(r.Context(), chi.URLParam(r, "id"), req.Quantity, refillDate, endDate)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.metrics.Refills.Inc()
	respondJSON(w, http.StatusOK, newMedicineView(m, time.Now()))
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

// Sales

type saleItemRequest struct {
	MedicineID string `json:"medicine_id"`
	Quantity   int    `json:"quantity"`
}

type saleRequest struct {
	Items           []saleItemRequest `json:"items"`
	DiscountPercent float64           `json:"discount_percent"`
	CustomerName    string            `json:"customer_name,omitempty"`
	CustomerPhone   string            `json:"customer_phone,omitempty"`
}

type saleResponse struct {
	Sale  domain.Sale       `json:"sale"`
	Items []domain.SaleItem `json:"items"`
}

// createSale builds a cart from the request and checks it out. A requested
// quantity beyond the medicine's stock is the cart's silent refusal, surfaced
// here as a 400 so the caller learns why the line was not honored.
func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, domain.CanSell) {
		return
	}
	var req saleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Items) == 0 {
		respondError(w, http.StatusBadRequest, "at least one item is required")
		return
	}

	cart := pos.NewCart()
	for _, item := range req.Items {
		if item.MedicineID == "" || item.Quantity <= 0 {
			respondError(w, http.StatusBadRequest, "medicine_id and quantity are required for each item")
			return
		}
		medicine, err := h.inventory.Get(r.Context(), item.MedicineID)
		if err != nil {
			h.respondServiceError(w, err)
			return
		}
		if !cart.AddItem(medicine) || !cart.SetQuantity(medicine.ID, item.Quantity) {
			respondError(w, http.StatusBadRequest, "insufficient stock for "+medicine.Name)
			return
		}
	}
	cart.SetCustomer(req.CustomerName, req.CustomerPhone)
	cart.SetDiscountPercent(req.DiscountPercent)

	cashierID, _ := r.Context().Value(ctxUserID).(string)
	sale, items, err := h.pos.Checkout(r.Context(), cart, cashierID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.metrics.SalesCompleted.Inc()
	h.metrics.SalesRevenue.Add(sale.TotalAmount)
	respondJSON(w, http.StatusCreated, saleResponse{Sale: sale, Items: items})
}

// Reports

func (h *Handler) dashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.Stats(r.Context(), time.Now())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *Handler) topSelling(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 5
	}
	ranking, err := h.analytics.TopSelling(r.Context(), limit)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ranking)
}

// User administration

type userRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

func (req userRequest) toInput() users.Input {
	return users.Input{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Role:     req.Role,
		Password: req.Password,
	}
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, domain.CanManageUsers) {
		return
	}
	filter := users.Filter{
		Text: r.URL.Query().Get("query"),
		Role: r.URL.Query().Get("role"),
	}
	roster, err := h.users.List(r.Context(), filter)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, roster)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, domain.CanManageUsers) {
		return
	}
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	u, err := h.users.Create(r.Context(), req.toInput())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, u)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, domain.CanManageUsers) {
		return
	}
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	u, err := h.users.Update(r.Context(), chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if !h.requirePermission(w, r, domain.CanManageUsers) {
		return
	}
	if err := h.users.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Helpers

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err), errors.Is(err, domain.ErrEmptyCart), errors.Is(err, store.ErrInsufficientStock):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
