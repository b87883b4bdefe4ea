package web

import (
	"net/http"

	"stockbook/internal/app"
	"stockbook/internal/core"

	"github.com/shopspring/decimal"
)

// apiListInvoices handles GET /api/orgs/{code}/invoices with an optional
// status query parameter.
func (h *Handler) apiListInvoices(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListInvoices(r.Context(), orgCode(r), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Invoices)
}

// apiCreateInvoice handles POST /api/orgs/{code}/invoices.
func (h *Handler) apiCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerCode string `json:"customer_code"`
		InvoiceDate  string `json:"invoice_date"`
		UpdateStock  bool   `json:"update_stock"`
		WarehouseID  int    `json:"warehouse_id"`
		Notes        string `json:"notes"`
		Lines        []struct {
			ItemCode  string          `json:"item_code"`
			Quantity  decimal.Decimal `json:"quantity"`
			UnitPrice decimal.Decimal `json:"unit_price"`
		} `json:"lines"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	in := core.InvoiceInput{
		CustomerCode: req.CustomerCode,
		InvoiceDate:  req.InvoiceDate,
		UpdateStock:  req.UpdateStock,
		WarehouseID:  req.WarehouseID,
		Notes:        req.Notes,
	}
	for _, l := range req.Lines {
		in.Lines = append(in.Lines, core.InvoiceLineInput{
			ItemCode:  l.ItemCode,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	if claims := authFromContext(r.Context()); claims != nil {
		in.ActorID = &claims.UserID
	}

	invoice, err := h.svc.CreateInvoice(r.Context(), orgCode(r), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, invoice)
}

// apiGetInvoice handles GET /api/orgs/{code}/invoices/{invoiceID}.
func (h *Handler) apiGetInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceID, ok := urlInt(w, r, "invoiceID")
	if !ok {
		return
	}
	invoice, err := h.svc.GetInvoice(r.Context(), orgCode(r), invoiceID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, invoice)
}

// apiIssueInvoice handles POST /api/orgs/{code}/invoices/{invoiceID}/issue.
func (h *Handler) apiIssueInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceID, ok := urlInt(w, r, "invoiceID")
	if !ok {
		return
	}
	var actorID *int
	if claims := authFromContext(r.Context()); claims != nil {
		actorID = &claims.UserID
	}
	invoice, err := h.svc.IssueInvoice(r.Context(), orgCode(r), invoiceID, actorID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, invoice)
}

// apiRecordPayment handles POST /api/orgs/{code}/invoices/{invoiceID}/payments.
func (h *Handler) apiRecordPayment(w http.ResponseWriter, r *http.Request) {
	invoiceID, ok := urlInt(w, r, "invoiceID")
	if !ok {
		return
	}
	var req struct {
		Amount    decimal.Decimal `json:"amount"`
		Mode      string          `json:"mode"`
		PaidOn    string          `json:"paid_on"`
		Reference string          `json:"reference"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	payment, err := h.svc.RecordPayment(r.Context(), app.RecordPaymentRequest{
		OrgCode:   orgCode(r),
		InvoiceID: invoiceID,
		Amount:    req.Amount,
		Mode:      req.Mode,
		PaidOn:    req.PaidOn,
		Reference: req.Reference,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, payment)
}

// apiCancelInvoice handles POST /api/orgs/{code}/invoices/{invoiceID}/cancel.
func (h *Handler) apiCancelInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceID, ok := urlInt(w, r, "invoiceID")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	var actorID *int
	if claims := authFromContext(r.Context()); claims != nil {
		actorID = &claims.UserID
	}
	invoice, err := h.svc.CancelInvoice(r.Context(), orgCode(r), invoiceID, req.Reason, actorID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, invoice)
}
