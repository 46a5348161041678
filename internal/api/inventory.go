package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/s2s-retail/s2s/internal/imaging"
	"github.com/s2s-retail/s2s/internal/model"
	"github.com/s2s-retail/s2s/internal/store"
)

// InventoryHandler handles per-store inventory endpoints.
type InventoryHandler struct {
	DB *sql.DB
}

type addItemRequest struct {
	ID              string `json:"id"`
	Category        string `json:"category"`
	Name            string `json:"name"`
	Color           string `json:"color"`
	Size            string `json:"size"`
	StockQuantity   int    `json:"stockQuantity"`
	DisplayQuantity int    `json:"displayQuantity"`
}

type updateItemRequest struct {
	Name            *string `json:"name"`
	StockQuantity   *int    `json:"stockQuantity"`
	DisplayQuantity *int    `json:"displayQuantity"`
}

type searchRequest struct {
	Keyword string `json:"keyword"`
}

// ListForStore handles GET /api/stores/{id}/inventory.
func (h *InventoryHandler) ListForStore(w http.ResponseWriter, r *http.Request) {
	storeID := r.PathValue("id")
	s, err := store.GetStore(r.Context(), h.DB, storeID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get store")
		return
	}
	if s == nil {
		jsonError(w, http.StatusNotFound, "store not found")
		return
	}

	items, err := store.GetStoreInventory(r.Context(), h.DB, storeID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list inventory")
		return
	}
	if items == nil {
		items = []model.InventoryItem{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// AddItem handles POST /api/stores/{id}/inventory.
func (h *InventoryHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	item, err := store.AddInventoryItem(r.Context(), h.DB, r.PathValue("id"), model.InventoryItem{
		ID:              req.ID,
		Category:        req.Category,
		Name:            req.Name,
		Color:           req.Color,
		Size:            req.Size,
		StockQuantity:   req.StockQuantity,
		DisplayQuantity: req.DisplayQuantity,
	})
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "store not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	jsonResponse(w, http.StatusCreated, item)
}

// UpdateItem handles PATCH /api/stores/{storeId}/inventory/{itemId}.
// The item is addressed by id or by the legacy name_color key.
func (h *InventoryHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := store.UpdateInventoryItem(r.Context(), h.DB,
		r.PathValue("storeId"), r.PathValue("itemId"),
		store.InventoryItemUpdate{
			Name:            req.Name,
			StockQuantity:   req.StockQuantity,
			DisplayQuantity: req.DisplayQuantity,
		})
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	jsonResponse(w, http.StatusOK, item)
}

// Search handles POST /api/inventory/search, used by the chat assistant
// to find which stores carry a product.
func (h *InventoryHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Keyword == "" {
		jsonError(w, http.StatusBadRequest, "keyword required")
		return
	}

	results, err := store.SearchInventory(r.Context(), h.DB, req.Keyword)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to search inventory")
		return
	}
	if results == nil {
		results = []model.SearchResult{}
	}
	jsonResponse(w, http.StatusOK, results)
}

// UploadImage handles PUT /api/stores/{storeId}/inventory/{itemId}/image.
func (h *InventoryHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	// Limit to 5 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	result, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = store.SetItemImage(r.Context(), h.DB,
		r.PathValue("storeId"), r.PathValue("itemId"), result.Data, result.MIME)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to save image")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/stores/{storeId}/inventory/{itemId}/image.
func (h *InventoryHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	data, mime, err := store.GetItemImage(r.Context(), h.DB,
		r.PathValue("storeId"), r.PathValue("itemId"))
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}
