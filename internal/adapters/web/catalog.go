package web

import (
	"net/http"
	"strconv"

	"stockbook/internal/core"

	"github.com/shopspring/decimal"
)

type itemRequest struct {
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Unit          string          `json:"unit"`
	PackUnit      string          `json:"pack_unit"`
	PackSize      decimal.Decimal `json:"pack_size"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	GSTRate       decimal.Decimal `json:"gst_rate"`
	MinStock      decimal.Decimal `json:"min_stock"`
	MaxStock      decimal.Decimal `json:"max_stock"`
}

func (req itemRequest) toInput() core.ItemInput {
	return core.ItemInput{
		Code:          req.Code,
		Name:          req.Name,
		Category:      req.Category,
		Unit:          req.Unit,
		PackUnit:      req.PackUnit,
		PackSize:      req.PackSize,
		PurchasePrice: req.PurchasePrice,
		SalePrice:     req.SalePrice,
		GSTRate:       req.GSTRate,
		MinStock:      req.MinStock,
		MaxStock:      req.MaxStock,
	}
}

// apiListItems handles GET /api/orgs/{code}/items with keyset cursor
// parameters after_name, after_id, and limit.
func (h *Handler) apiListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	afterID, _ := strconv.Atoi(q.Get("after_id"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	result, err := h.svc.ListItems(r.Context(), orgCode(r), q.Get("after_name"), afterID, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	type response struct {
		Items         []core.Item `json:"items"`
		NextAfterName string      `json:"next_after_name,omitempty"`
		NextAfterID   int         `json:"next_after_id,omitempty"`
	}
	writeJSON(w, response{
		Items:         result.Items,
		NextAfterName: result.NextAfterName,
		NextAfterID:   result.NextAfterID,
	})
}

// apiCreateItem handles POST /api/orgs/{code}/items.
func (h *Handler) apiCreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	item, err := h.svc.CreateItem(r.Context(), orgCode(r), req.toInput())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, item)
}

// apiGetItem handles GET /api/orgs/{code}/items/{itemID}.
func (h *Handler) apiGetItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := urlInt(w, r, "itemID")
	if !ok {
		return
	}
	item, err := h.svc.GetItem(r.Context(), orgCode(r), itemID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, item)
}

// apiUpdateItem handles PUT /api/orgs/{code}/items/{itemID}.
func (h *Handler) apiUpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := urlInt(w, r, "itemID")
	if !ok {
		return
	}
	var req itemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	item, err := h.svc.UpdateItem(r.Context(), orgCode(r), itemID, req.toInput())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, item)
}

// apiDeactivateItem handles DELETE /api/orgs/{code}/items/{itemID}.
// Items are soft-deleted; ledger history stays intact.
func (h *Handler) apiDeactivateItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := urlInt(w, r, "itemID")
	if !ok {
		return
	}
	if err := h.svc.DeactivateItem(r.Context(), orgCode(r), itemID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiListCustomers handles GET /api/orgs/{code}/customers.
func (h *Handler) apiListCustomers(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListCustomers(r.Context(), orgCode(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Customers)
}

// apiCreateCustomer handles POST /api/orgs/{code}/customers.
func (h *Handler) apiCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code      string `json:"code"`
		Name      string `json:"name"`
		GSTIN     string `json:"gstin"`
		StateCode string `json:"state_code"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
		Address   string `json:"address"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	customer, err := h.svc.CreateCustomer(r.Context(), orgCode(r), core.CustomerInput{
		Code:      req.Code,
		Name:      req.Name,
		GSTIN:     req.GSTIN,
		StateCode: req.StateCode,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, customer)
}
