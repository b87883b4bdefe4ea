package web

import (
	"net/http"
	"strconv"
	"strings"

	"stockbook/internal/app"
)

// apiStockReport handles GET /api/orgs/{code}/reports/stock.
//
// Query parameters: as_of_date (YYYY-MM-DD), include_zero_stock (bool),
// warehouse_ids (comma-separated ids), categories (comma-separated),
// stock_status (all|low|high), search_term.
func (h *Handler) apiStockReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var warehouseIDs []int
	for _, raw := range splitAndTrim(q.Get("warehouse_ids")) {
		id, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, "invalid warehouse_ids parameter", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		warehouseIDs = append(warehouseIDs, id)
	}

	report, err := h.svc.GetStockReport(r.Context(), app.StockReportRequest{
		OrgCode:          orgCode(r),
		AsOfDate:         q.Get("as_of_date"),
		IncludeZeroStock: parseBool(q.Get("include_zero_stock")),
		WarehouseIDs:     warehouseIDs,
		Categories:       splitAndTrim(q.Get("categories")),
		StockStatus:      q.Get("stock_status"),
		SearchTerm:       q.Get("search_term"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, report)
}

// apiBalanceReport handles GET /api/orgs/{code}/reports/balance.
func (h *Handler) apiBalanceReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.GetBalanceReport(r.Context(), orgCode(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, report)
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes":
		return true
	}
	return false
}
