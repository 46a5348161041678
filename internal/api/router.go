package api

import (
	"database/sql"
	"net/http"

	"github.com/s2s-retail/s2s/internal/mailer"
	"github.com/s2s-retail/s2s/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, notifier mailer.Notifier) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	storesHandler := &StoresHandler{DB: db}
	inventoryHandler := &InventoryHandler{DB: db}
	requestsHandler := &RequestsHandler{DB: db, Notifier: notifier}
	repairsHandler := &RepairsHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	// Public: login and health.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/health", Health)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Stores: read only, seeded at init.
	mux.HandleFunc("GET /api/stores", storesHandler.List)
	mux.HandleFunc("GET /api/stores/{id}", storesHandler.Get)

	// Inventory: read (public, the clients poll it), write (manager+).
	mux.HandleFunc("GET /api/stores/{id}/inventory", inventoryHandler.ListForStore)
	mux.Handle("POST /api/stores/{id}/inventory", authMW(requireManager(http.HandlerFunc(inventoryHandler.AddItem))))
	mux.Handle("PATCH /api/stores/{storeId}/inventory/{itemId}", authMW(requireManager(http.HandlerFunc(inventoryHandler.UpdateItem))))
	mux.Handle("PUT /api/stores/{storeId}/inventory/{itemId}/image", authMW(requireManager(http.HandlerFunc(inventoryHandler.UploadImage))))
	mux.HandleFunc("GET /api/stores/{storeId}/inventory/{itemId}/image", inventoryHandler.GetImage)
	mux.HandleFunc("POST /api/inventory/search", inventoryHandler.Search)

	// Transfer requests.
	mux.Handle("POST /api/requests", authMW(http.HandlerFunc(requestsHandler.Create)))
	mux.HandleFunc("GET /api/requests", requestsHandler.List)
	mux.HandleFunc("GET /api/requests/incoming/{storeId}", requestsHandler.Incoming)
	mux.HandleFunc("GET /api/requests/outgoing/{storeId}", requestsHandler.Outgoing)
	mux.Handle("PATCH /api/requests/{id}", authMW(http.HandlerFunc(requestsHandler.UpdateStatus)))
	mux.Handle("POST /api/send-request-email", authMW(http.HandlerFunc(requestsHandler.SendRequestEmail)))

	// Repairs: read (all), write (authenticated).
	mux.HandleFunc("GET /api/repairs", repairsHandler.List)
	mux.HandleFunc("GET /api/repairs/store/{storeId}", repairsHandler.ListByStore)
	mux.Handle("POST /api/repairs", authMW(http.HandlerFunc(repairsHandler.Create)))
	mux.Handle("PATCH /api/repairs/{id}", authMW(http.HandlerFunc(repairsHandler.Update)))
	mux.Handle("DELETE /api/repairs/{id}", authMW(http.HandlerFunc(repairsHandler.Delete)))

	return mux
}

// Health reports service liveness. Registered at /api/health and reused
// by the root banner routes.
func Health(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "S2S Backend is running",
	})
}
