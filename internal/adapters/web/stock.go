package web

import (
	"net/http"

	"stockbook/internal/app"

	"github.com/shopspring/decimal"
)

// apiAdjustStock handles POST /api/orgs/{code}/stock/adjust.
func (h *Handler) apiAdjustStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID      int             `json:"item_id"`
		WarehouseID int             `json:"warehouse_id"`
		Quantity    decimal.Decimal `json:"quantity"`
		Operation   string          `json:"operation_type"`
		EntryUnit   string          `json:"entry_unit"`
		Reason      string          `json:"reason"`
		Notes       string          `json:"notes"`
		ReferenceNo string          `json:"reference_no"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var actorID *int
	if claims := authFromContext(r.Context()); claims != nil {
		actorID = &claims.UserID
	}

	result, err := h.svc.AdjustStock(r.Context(), app.AdjustStockRequest{
		OrgCode:     orgCode(r),
		ItemID:      req.ItemID,
		WarehouseID: req.WarehouseID,
		Quantity:    req.Quantity,
		Operation:   req.Operation,
		EntryUnit:   req.EntryUnit,
		Reason:      req.Reason,
		Notes:       req.Notes,
		ReferenceNo: req.ReferenceNo,
		ActorID:     actorID,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Adjustment)
}

// apiStockLevels handles GET /api/orgs/{code}/stock/levels.
func (h *Handler) apiStockLevels(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetStockLevels(r.Context(), orgCode(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Levels)
}

// apiStockLedger handles GET /api/orgs/{code}/items/{itemID}/ledger.
// Optional from/to query parameters bound the date range.
func (h *Handler) apiStockLedger(w http.ResponseWriter, r *http.Request) {
	itemID, ok := urlInt(w, r, "itemID")
	if !ok {
		return
	}
	q := r.URL.Query()
	result, err := h.svc.GetStockLedger(r.Context(), orgCode(r), itemID, q.Get("from"), q.Get("to"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Entries)
}

// apiItemStock handles GET /api/orgs/{code}/items/{itemID}/stock with the
// per-warehouse breakdown for one item.
func (h *Handler) apiItemStock(w http.ResponseWriter, r *http.Request) {
	itemID, ok := urlInt(w, r, "itemID")
	if !ok {
		return
	}
	stock, err := h.svc.GetItemStock(r.Context(), orgCode(r), itemID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, stock)
}

// apiListWarehouses handles GET /api/orgs/{code}/warehouses.
func (h *Handler) apiListWarehouses(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListWarehouses(r.Context(), orgCode(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Warehouses)
}

// apiCreateWarehouse handles POST /api/orgs/{code}/warehouses.
func (h *Handler) apiCreateWarehouse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	warehouse, err := h.svc.CreateWarehouse(r.Context(), orgCode(r), req.Code, req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, warehouse)
}
