package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	app "github.com/fastfood-labs/order_service/internal/app"
	"github.com/fastfood-labs/order_service/internal/app/auth"
	"github.com/fastfood-labs/order_service/internal/app/domain/order"
	"github.com/fastfood-labs/order_service/internal/app/metrics"
	"github.com/fastfood-labs/order_service/internal/app/services/clients"
	"github.com/fastfood-labs/order_service/internal/app/services/orders"
	"github.com/fastfood-labs/order_service/internal/app/services/products"
	"github.com/fastfood-labs/order_service/internal/errors"
	"github.com/fastfood-labs/order_service/internal/httputil"
	"github.com/fastfood-labs/order_service/internal/logging"
	mw "github.com/fastfood-labs/order_service/internal/middleware"
)

// Options configures the HTTP surface around the application.
type Options struct {
	// PathPrefix is prepended to every API route; /metrics stays at the root.
	PathPrefix     string
	AllowedOrigins []string
	// RateLimiter is optional; nil disables limiting.
	RateLimiter *mw.RateLimiter
	// Audit records mutating requests; nil keeps an in-memory trail only.
	Audit *AuditLog
	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool
	Logger            *logging.Logger
}

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app      *app.Application
	gate     *mw.AuthMiddleware
	validate *validator.Validate
	audit    *AuditLog
	log      *logging.Logger
}

// NewHandler returns the full HTTP handler: the REST API under the path
// prefix, health check and Prometheus metrics.
func NewHandler(application *app.Application, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = logging.NewDefault("httpapi")
	}
	if opts.PathPrefix == "" {
		opts.PathPrefix = "/api"
	}
	if opts.Audit == nil {
		opts.Audit = NewAuditLog(0, nil)
	}
	h := &handler{
		app:      application,
		gate:     mw.NewAuthMiddleware(application.Tokens, opts.Logger.Named("auth"), nil),
		validate: newValidator(),
		audit:    opts.Audit,
		log:      opts.Logger,
	}

	root := mux.NewRouter()
	root.Use(mw.MetricsMiddleware())
	root.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := root.PathPrefix(strings.TrimRight(opts.PathPrefix, "/")).Subrouter()
	if opts.RateLimiter != nil {
		api.Use(opts.RateLimiter.Handler)
	}
	h.routes(api)

	var out http.Handler = root
	out = mw.NewCORSMiddleware(opts.AllowedOrigins).Handler(out)
	out = mw.LoggingMiddleware(opts.Logger)(out)
	out = mw.Tracing(out)
	if opts.TrustProxyHeaders {
		out = middleware.RealIP(out)
	}
	out = middleware.Recoverer(out)
	return out
}

func (h *handler) routes(r *mux.Router) {
	authed := func(fn http.HandlerFunc) http.Handler { return h.gate.Handler(h.audit.Middleware(fn)) }
	admin := func(fn http.HandlerFunc) http.Handler {
		return h.gate.Handler(h.gate.RequireRoleHandler(auth.RoleAdministrator)(h.audit.Middleware(fn)))
	}

	r.HandleFunc("/health_check", h.health).Methods(http.MethodGet)

	r.HandleFunc("/products", h.listProducts).Methods(http.MethodGet)
	r.HandleFunc("/products/{id}", h.getProduct).Methods(http.MethodGet)
	r.Handle("/products", authed(h.createProduct)).Methods(http.MethodPost)
	r.Handle("/products/{id}", authed(h.updateProduct)).Methods(http.MethodPut)

	r.Handle("/clients", authed(h.listClients)).Methods(http.MethodGet)
	r.HandleFunc("/clients/filter", h.filterClient).Methods(http.MethodGet)
	r.Handle("/clients/{id}", authed(h.getClient)).Methods(http.MethodGet)
	r.Handle("/clients", authed(h.createClient)).Methods(http.MethodPost)
	r.Handle("/clients/{id}", authed(h.updateClient)).Methods(http.MethodPut)

	r.Handle("/orders", authed(h.listOrders)).Methods(http.MethodGet)
	r.Handle("/orders", authed(h.createOrder)).Methods(http.MethodPost)
	r.Handle("/orders/payment/confirm", authed(h.confirmPayment)).Methods(http.MethodPost)
	r.Handle("/orders/{id}", authed(h.getOrder)).Methods(http.MethodGet)
	r.Handle("/orders/{id}/status", authed(h.updateOrderStatus)).Methods(http.MethodPatch)
	r.Handle("/orders/{id}/payment", authed(h.paymentCode)).Methods(http.MethodPost)

	r.Handle("/audit", admin(h.listAudit)).Methods(http.MethodGet)
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- products ---------------------------------------------------------------

func (h *handler) listProducts(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Products.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.app.Products.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var payload products.Create
	if !h.decode(w, r, &payload) {
		return
	}
	p, err := h.app.Products.Create(r.Context(), payload)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var payload products.Create
	if !h.decode(w, r, &payload) {
		return
	}
	p, err := h.app.Products.Update(r.Context(), id, payload)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

// --- clients ----------------------------------------------------------------

func (h *handler) listClients(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Clients.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *handler) filterClient(w http.ResponseWriter, r *http.Request) {
	cpf := strings.TrimSpace(r.URL.Query().Get("cpf"))
	if cpf == "" {
		httputil.Unprocessable(w, "cpf: query parameter required")
		return
	}
	resp, err := h.app.Clients.AuthenticateByCPF(r.Context(), cpf)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *handler) getClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.app.Clients.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *handler) createClient(w http.ResponseWriter, r *http.Request) {
	var payload clients.Create
	if !h.decode(w, r, &payload) {
		return
	}
	c, err := h.app.Clients.Create(r.Context(), payload)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

func (h *handler) updateClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var payload clients.Update
	if !h.decode(w, r, &payload) {
		return
	}
	c, err := h.app.Clients.UpdateName(r.Context(), id, payload)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

// --- orders -----------------------------------------------------------------

func (h *handler) listOrders(w http.ResponseWriter, r *http.Request) {
	var (
		list orders.ListResponse
		err  error
	)
	if raw, filtered := r.URL.Query()["status"]; filtered {
		status := order.Status(firstValue(raw))
		if !status.Valid() {
			httputil.Unprocessable(w, "status: must be one of "+joinStatuses())
			return
		}
		list, err = h.app.Orders.ListByStatus(r.Context(), status)
	} else {
		list, err = h.app.Orders.List(r.Context())
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	o, err := h.app.Orders.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, o)
}

func (h *handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var payload orders.Create
	if !h.decode(w, r, &payload) {
		return
	}
	o, err := h.app.Orders.Create(r.Context(), payload)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, o)
}

func (h *handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var payload orders.StatusUpdate
	if !h.decode(w, r, &payload) {
		return
	}
	o, err := h.app.Orders.UpdateStatus(r.Context(), id, payload.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, o)
}

func (h *handler) paymentCode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	method := orders.PaymentMethod(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("method"))))
	resp, err := h.app.Orders.PaymentCode(r.Context(), id, method)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *handler) confirmPayment(w http.ResponseWriter, r *http.Request) {
	var payload orders.PaymentConfirm
	if !h.decode(w, r, &payload) {
		return
	}
	o, err := h.app.Orders.ConfirmPayment(r.Context(), payload.Code)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, o)
}

// --- audit ------------------------------------------------------------------

func (h *handler) listAudit(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httputil.Unprocessable(w, "limit: must be a non-negative integer")
			return
		}
		limit = n
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"entries": h.audit.ListLimit(limit)})
}

// --- helpers ----------------------------------------------------------------

// decode reads and validates the request body, writing a 422 on failure.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if !httputil.DecodeJSON(w, r, dst) {
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		httputil.WriteError(w, validationError(err))
		return false
	}
	return true
}

// fail writes err, logging anything that maps to a 5xx.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.HTTPStatus(err) >= http.StatusInternalServerError {
		h.log.WithContext(r.Context()).WithError(err).Error("request failed")
	}
	httputil.WriteError(w, err)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		httputil.Unprocessable(w, "id: value is not a valid integer")
		return 0, false
	}
	return id, true
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
