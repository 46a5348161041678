package api

import (
	"database/sql"
	"net/http"

	"github.com/s2s-retail/s2s/internal/model"
	"github.com/s2s-retail/s2s/internal/store"
)

// StoresHandler handles store read endpoints. Stores are seeded at init
// time and never created or deleted over the API.
type StoresHandler struct {
	DB *sql.DB
}

// List handles GET /api/stores.
func (h *StoresHandler) List(w http.ResponseWriter, r *http.Request) {
	stores, err := store.ListStores(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list stores")
		return
	}
	if stores == nil {
		stores = []model.Store{}
	}
	jsonResponse(w, http.StatusOK, stores)
}

// Get handles GET /api/stores/{id}.
func (h *StoresHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := store.GetStore(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get store")
		return
	}
	if s == nil {
		jsonError(w, http.StatusNotFound, "store not found")
		return
	}
	jsonResponse(w, http.StatusOK, s)
}
