package rest

import (
	"net/http"

	"impostorparty/internal/game"
	"impostorparty/internal/service"
	"impostorparty/internal/shutdown"
	"impostorparty/internal/transport/rest/handler"
	"impostorparty/internal/transport/rest/middleware"
	"impostorparty/internal/transport/ws"

	"github.com/gorilla/mux"
)

// Container holds all dependencies for the router.
type Container struct {
	AuthService *service.AuthService
	Registry    *game.Registry
	Coordinator *shutdown.Coordinator
	WSHub       *ws.Hub
	JoinBaseURL string
	AdminKey    string
}

// NewRouter creates the API router with all endpoints.
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	authHandler := handler.NewAuthHandler(c.AuthService)
	roomHandler := handler.NewRoomHandler(c.Registry, c.JoinBaseURL)
	adminHandler := handler.NewAdminHandler(c.Coordinator, c.AdminKey)
	dispatcher := ws.NewDispatcher(c.WSHub, c.Registry)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, dispatcher, c.Registry)

	authMW := middleware.NewAuthMiddleware(c.AuthService)

	r.Use(corsMiddleware)

	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/guest", authHandler.Guest).Methods("POST", "OPTIONS")
	v1.HandleFunc("/rooms/{code}", roomHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/rooms/{code}/qr", roomHandler.QR).Methods("GET")

	// WebSocket (token in query param)
	v1.HandleFunc("/ws", wsHandler.Connect).Methods("GET")

	// Maintenance controls (admin key)
	v1.HandleFunc("/admin/shutdown", adminHandler.BeginShutdown).Methods("POST")
	v1.HandleFunc("/admin/shutdown", adminHandler.CancelShutdown).Methods("DELETE")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Identity routes
	identityRoutes := v1.NewRoute().Subrouter()
	identityRoutes.Use(authMW.RequireIdentity)
	identityRoutes.HandleFunc("/rooms", roomHandler.Create).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Admin-Key")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
