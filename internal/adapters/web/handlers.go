package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"stockbook/internal/app"

	"github.com/go-chi/chi/v5"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	jwtSecret string
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string) http.Handler {
	h := &Handler{
		svc:       svc,
		jwtSecret: jwtSecret,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	// Health and auth are public.
	r.Get("/api/health", h.health)
	r.Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/api/auth/me", h.me)

		r.Route("/api/orgs/{code}", func(r chi.Router) {
			r.Use(h.RequireOrgAccess)

			// Stock reconciliation
			r.Post("/stock/adjust", h.apiAdjustStock)
			r.Get("/stock/levels", h.apiStockLevels)

			// Reports
			r.Get("/reports/stock", h.apiStockReport)
			r.Get("/reports/balance", h.apiBalanceReport)

			// Warehouses
			r.Get("/warehouses", h.apiListWarehouses)
			r.Post("/warehouses", h.apiCreateWarehouse)

			// Catalog
			r.Get("/items", h.apiListItems)
			r.Post("/items", h.apiCreateItem)
			r.Get("/items/{itemID}", h.apiGetItem)
			r.Put("/items/{itemID}", h.apiUpdateItem)
			r.Delete("/items/{itemID}", h.apiDeactivateItem)
			r.Get("/items/{itemID}/ledger", h.apiStockLedger)
			r.Get("/items/{itemID}/stock", h.apiItemStock)

			// Customers
			r.Get("/customers", h.apiListCustomers)
			r.Post("/customers", h.apiCreateCustomer)

			// Invoicing
			r.Get("/invoices", h.apiListInvoices)
			r.Post("/invoices", h.apiCreateInvoice)
			r.Get("/invoices/{invoiceID}", h.apiGetInvoice)
			r.Post("/invoices/{invoiceID}/issue", h.apiIssueInvoice)
			r.Post("/invoices/{invoiceID}/payments", h.apiRecordPayment)
			r.Post("/invoices/{invoiceID}/cancel", h.apiCancelInvoice)
		})
	})

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// orgCode extracts the {code} URL parameter.
func orgCode(r *http.Request) string {
	return chi.URLParam(r, "code")
}

// urlInt extracts a named URL parameter as an int; returns false after
// writing a 400 when the parameter is not numeric.
func urlInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		writeError(w, r, "invalid "+name+" parameter", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return v, true
}

// decodeJSON decodes the request body into v and returns false + writes an
// appropriate error response on failure. Returns HTTP 413 when the body
// exceeds the middleware size limit; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
