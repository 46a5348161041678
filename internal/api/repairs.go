package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/s2s-retail/s2s/internal/model"
	"github.com/s2s-retail/s2s/internal/store"
)

// RepairsHandler handles the tailoring/repair queue.
type RepairsHandler struct {
	DB *sql.DB
}

type createRepairRequest struct {
	StoreID          string          `json:"storeId"`
	CustomerName     string          `json:"customerName"`
	ProductID        string          `json:"productId"`
	RepairContent    string          `json:"repairContent"`
	Cost             decimal.Decimal `json:"cost"`
	PaymentStatus    string          `json:"paymentStatus"`
	RepairStatus     string          `json:"repairStatus"`
	EstimatedMinutes int             `json:"estimatedMinutes"`
}

type updateRepairRequest struct {
	CustomerName     *string          `json:"customerName"`
	ProductID        *string          `json:"productId"`
	RepairContent    *string          `json:"repairContent"`
	Cost             *decimal.Decimal `json:"cost"`
	PaymentStatus    *string          `json:"paymentStatus"`
	RepairStatus     *string          `json:"repairStatus"`
	Delivered        *bool            `json:"delivered"`
	NotificationSent *bool            `json:"notificationSent"`
	EstimatedMinutes *int             `json:"estimatedMinutes"`
}

// List handles GET /api/repairs.
func (h *RepairsHandler) List(w http.ResponseWriter, r *http.Request) {
	repairs, err := store.ListRepairs(r.Context(), h.DB, "")
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list repairs")
		return
	}
	if repairs == nil {
		repairs = []model.RepairTicket{}
	}
	jsonResponse(w, http.StatusOK, repairs)
}

// ListByStore handles GET /api/repairs/store/{storeId}.
func (h *RepairsHandler) ListByStore(w http.ResponseWriter, r *http.Request) {
	repairs, err := store.ListRepairs(r.Context(), h.DB, r.PathValue("storeId"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list repairs")
		return
	}
	if repairs == nil {
		repairs = []model.RepairTicket{}
	}
	jsonResponse(w, http.StatusOK, repairs)
}

// Create handles POST /api/repairs.
func (h *RepairsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRepairRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.StoreID == "" || req.CustomerName == "" {
		jsonError(w, http.StatusBadRequest, "storeId and customerName required")
		return
	}

	s, err := store.GetStore(r.Context(), h.DB, req.StoreID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if s == nil {
		jsonError(w, http.StatusNotFound, "store not found")
		return
	}

	repair, err := store.CreateRepair(r.Context(), h.DB, model.RepairTicket{
		StoreID:          req.StoreID,
		CustomerName:     req.CustomerName,
		ProductID:        req.ProductID,
		RepairContent:    req.RepairContent,
		Cost:             req.Cost,
		PaymentStatus:    req.PaymentStatus,
		RepairStatus:     req.RepairStatus,
		EstimatedMinutes: req.EstimatedMinutes,
	})
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	slog.Info("repair created", "repair", repair.ID, "store", repair.StoreID)
	jsonResponse(w, http.StatusCreated, repair)
}

// Update handles PATCH /api/repairs/{id}. Only the fields present in
// the body change. Marking the repair done stamps completedAt, and
// marking the notification sent stamps sentAt.
func (h *RepairsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRepairRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.PaymentStatus != nil &&
		*req.PaymentStatus != model.PaymentUnpaid && *req.PaymentStatus != model.PaymentPaid {
		jsonError(w, http.StatusBadRequest, "invalid payment status")
		return
	}
	if req.RepairStatus != nil &&
		*req.RepairStatus != model.RepairPending &&
		*req.RepairStatus != model.RepairInProgress &&
		*req.RepairStatus != model.RepairDone {
		jsonError(w, http.StatusBadRequest, "invalid repair status")
		return
	}

	upd := store.RepairUpdate{
		CustomerName:     req.CustomerName,
		ProductID:        req.ProductID,
		RepairContent:    req.RepairContent,
		Cost:             req.Cost,
		PaymentStatus:    req.PaymentStatus,
		RepairStatus:     req.RepairStatus,
		Delivered:        req.Delivered,
		NotificationSent: req.NotificationSent,
		EstimatedMinutes: req.EstimatedMinutes,
	}

	now := time.Now().UTC()
	if req.RepairStatus != nil && *req.RepairStatus == model.RepairDone {
		upd.CompletedAt = &now
	}
	if req.NotificationSent != nil && *req.NotificationSent {
		upd.SentAt = &now
	}

	repair, err := store.UpdateRepair(r.Context(), h.DB, r.PathValue("id"), upd)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "repair not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	jsonResponse(w, http.StatusOK, repair)
}

// Delete handles DELETE /api/repairs/{id}.
func (h *RepairsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := store.DeleteRepair(r.Context(), h.DB, r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "repair not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete repair")
		return
	}

	slog.Info("repair deleted", "repair", r.PathValue("id"))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "repair deleted"})
}
