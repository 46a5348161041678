package api

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/s2s-retail/s2s/internal/mailer"
	"github.com/s2s-retail/s2s/internal/metrics"
	"github.com/s2s-retail/s2s/internal/model"
	"github.com/s2s-retail/s2s/internal/store"
)

// RequestsHandler handles the transfer request ledger.
type RequestsHandler struct {
	DB       *sql.DB
	Notifier mailer.Notifier
}

type createRequestRequest struct {
	FromStoreID     string `json:"fromStoreId"`
	ToStoreID       string `json:"toStoreId"`
	Item            string `json:"item"`
	Quantity        int    `json:"quantity"`
	RequesterName   string `json:"requesterName"`
	AdminName       string `json:"adminName"`
	Status          string `json:"status"`
	NeedsInspection bool   `json:"needsInspection"`
	Note            string `json:"note"`
}

type createRequestResponse struct {
	Request    *model.TransferRequest `json:"request"`
	EmailSent  bool                   `json:"emailSent"`
	EmailError string                 `json:"emailError,omitempty"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// updateStatusResponse flattens the request record with an optional
// warnings list, so callers that ignore warnings see the plain record.
type updateStatusResponse struct {
	*model.TransferRequest
	Warnings []string `json:"warnings,omitempty"`
}

// Create handles POST /api/requests.
func (h *RequestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.FromStoreID == "" || req.ToStoreID == "" || req.Item == "" || req.Quantity <= 0 {
		jsonError(w, http.StatusBadRequest, "fromStoreId, toStoreId, item, and a positive quantity are required")
		return
	}
	if req.FromStoreID == req.ToStoreID {
		jsonError(w, http.StatusBadRequest, "cannot request stock from the same store")
		return
	}

	created, err := store.CreateRequest(r.Context(), h.DB, store.CreateRequestInput{
		FromStoreID:     req.FromStoreID,
		ToStoreID:       req.ToStoreID,
		Item:            req.Item,
		Quantity:        req.Quantity,
		RequesterName:   req.RequesterName,
		AdminName:       req.AdminName,
		Status:          req.Status,
		NeedsInspection: req.NeedsInspection,
		Note:            req.Note,
	})
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "store not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Notify the shipping store. Delivery failure never fails the
	// request; it is just reported back.
	resp := createRequestResponse{Request: created}
	shipper, _ := store.GetStore(r.Context(), h.DB, created.ToStoreID)
	if shipper != nil {
		subject, body := requestEmail(created)
		if err := h.Notifier.Send(r.Context(), shipper.Email, subject, body); err != nil {
			resp.EmailError = err.Error()
			slog.Warn("request notification failed", "request", created.ID, "error", err)
		} else {
			resp.EmailSent = true
		}
		if err := store.MarkRequestEmailSent(r.Context(), h.DB, created.ID, resp.EmailSent); err != nil {
			slog.Warn("marking email sent failed", "request", created.ID, "error", err)
		}
		created.EmailSent = resp.EmailSent
	}

	slog.Info("transfer request created",
		"request", created.ID, "from", created.FromStoreID, "to", created.ToStoreID,
		"item", created.Item, "quantity", created.Quantity)
	jsonResponse(w, http.StatusCreated, resp)
}

// UpdateStatus handles PATCH /api/requests/{id}. The optional
// strict=true query parameter turns reconciliation warnings into a 409
// and rolls the transition back.
func (h *RequestsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status == "" {
		jsonError(w, http.StatusBadRequest, "status required")
		return
	}

	opts := store.TransitionOptions{Strict: r.URL.Query().Get("strict") == "true"}
	updated, warnings, err := store.UpdateRequestStatus(r.Context(), h.DB, r.PathValue("id"), req.Status, opts)

	for _, warn := range warnings {
		metrics.ReconciliationSkips.WithLabelValues(warn.Reason).Inc()
		slog.Warn("reconciliation skipped",
			"request", r.PathValue("id"), "status", req.Status,
			"reason", warn.Reason, "detail", warn.Message)
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, "request not found")
		return
	case errors.Is(err, store.ErrInvalidTransition):
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, store.ErrStockConflict):
		jsonError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		jsonError(w, http.StatusInternalServerError, "failed to update request")
		return
	}

	metrics.TransferTransitions.WithLabelValues(updated.Status).Inc()
	slog.Info("transfer request status updated",
		"request", updated.ID, "status", updated.Status)

	resp := updateStatusResponse{TransferRequest: updated}
	for _, warn := range warnings {
		resp.Warnings = append(resp.Warnings, warn.Message)
	}
	jsonResponse(w, http.StatusOK, resp)
}

// List handles GET /api/requests.
func (h *RequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	requests, err := store.ListRequests(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list requests")
		return
	}
	if requests == nil {
		requests = []model.TransferRequest{}
	}
	jsonResponse(w, http.StatusOK, requests)
}

// Incoming handles GET /api/requests/incoming/{storeId}: requests the
// store raised, i.e. stock headed toward it.
func (h *RequestsHandler) Incoming(w http.ResponseWriter, r *http.Request) {
	requests, err := store.ListIncoming(r.Context(), h.DB, r.PathValue("storeId"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list incoming requests")
		return
	}
	if requests == nil {
		requests = []model.TransferRequest{}
	}
	jsonResponse(w, http.StatusOK, requests)
}

// Outgoing handles GET /api/requests/outgoing/{storeId}: requests other
// stores raised against this store's stock.
func (h *RequestsHandler) Outgoing(w http.ResponseWriter, r *http.Request) {
	requests, err := store.ListOutgoing(r.Context(), h.DB, r.PathValue("storeId"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list outgoing requests")
		return
	}
	if requests == nil {
		requests = []model.TransferRequest{}
	}
	jsonResponse(w, http.StatusOK, requests)
}

type sendRequestEmailRequest struct {
	To             string `json:"to"`
	Subject        string `json:"subject"`
	Content        string `json:"content"`
	FromStore      string `json:"fromStore"`
	ToStore        string `json:"toStore"`
	Item           string `json:"item"`
	Quantity       int    `json:"quantity"`
	IncludeDisplay bool   `json:"includeDisplay"`
	SpecialNote    string `json:"specialNote"`
	AdminName      string `json:"adminName"`
}

// SendRequestEmail handles POST /api/send-request-email: stores a
// request built from a caller-composed email payload, then sends the
// email as given.
func (h *RequestsHandler) SendRequestEmail(w http.ResponseWriter, r *http.Request) {
	var req sendRequestEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FromStore == "" || req.ToStore == "" || req.Item == "" || req.Quantity <= 0 {
		jsonError(w, http.StatusBadRequest, "fromStore, toStore, item, and a positive quantity are required")
		return
	}

	created, err := store.CreateRequest(r.Context(), h.DB, store.CreateRequestInput{
		FromStoreID:     req.FromStore,
		ToStoreID:       req.ToStore,
		Item:            req.Item,
		Quantity:        req.Quantity,
		RequesterName:   req.AdminName,
		AdminName:       req.AdminName,
		NeedsInspection: req.IncludeDisplay,
		Note:            req.SpecialNote,
	})
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "store not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	to := req.To
	if to == "" {
		if shipper, _ := store.GetStore(r.Context(), h.DB, created.ToStoreID); shipper != nil {
			to = shipper.Email
		}
	}

	body := strings.ReplaceAll(req.Content, "\n", "<br>")
	sendErr := h.Notifier.Send(r.Context(), to, req.Subject, body)
	if err := store.MarkRequestEmailSent(r.Context(), h.DB, created.ID, sendErr == nil); err != nil {
		slog.Warn("marking email sent failed", "request", created.ID, "error", err)
	}

	if sendErr != nil {
		slog.Warn("request notification failed", "request", created.ID, "error", sendErr)
		jsonResponse(w, http.StatusOK, map[string]any{
			"success":    true,
			"message":    "재고 요청이 저장되었습니다. (이메일 발송 실패)",
			"requestId":  created.ID,
			"emailError": sendErr.Error(),
		})
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "재고 요청 이메일이 발송되었습니다.",
		"requestId": created.ID,
	})
}

// requestEmail composes the notification sent to the shipping store
// when a request is raised.
func requestEmail(req *model.TransferRequest) (subject, body string) {
	subject = fmt.Sprintf("[재고 요청] %s에서 재고를 요청했습니다", req.FromStoreName)

	var b strings.Builder
	b.WriteString("<h2>재고 요청</h2>")
	fmt.Fprintf(&b, "<p><strong>요청 매장:</strong> %s</p>", req.FromStoreName)
	fmt.Fprintf(&b, "<p><strong>상품명:</strong> %s</p>", req.Item)
	fmt.Fprintf(&b, "<p><strong>수량:</strong> %d개</p>", req.Quantity)
	if req.NeedsInspection {
		b.WriteString("<p><strong>특이사항:</strong> 진열 상품 포함 - 검수 필요</p>")
	}
	fmt.Fprintf(&b, "<p><strong>요청 날짜:</strong> %s</p>", req.CreatedAt.Format(time.DateTime))
	b.WriteString("<br><p>앱에서 요청을 승인하거나 거절할 수 있습니다.</p>")
	return subject, b.String()
}
