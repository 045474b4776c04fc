// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/villa-vote/aggregate"
	"github.com/danielhkuo/villa-vote/cliparse"
	"github.com/danielhkuo/villa-vote/handlers"
	"github.com/danielhkuo/villa-vote/middleware"
	"github.com/danielhkuo/villa-vote/session"
	"github.com/danielhkuo/villa-vote/store"
)

func NewRouter(st *store.Store, sessions *session.Manager, engine *aggregate.Engine, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(sessions)
	catalogHandler := handlers.NewCatalogHandler(st)
	groupHandler := handlers.NewGroupHandler(st, engine, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := st.DB().PingContext(r.Context()); err != nil {
			middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Session flow (identity token in X-Identity-Token)
	mux.HandleFunc("POST /session/login", middleware.WithLogging(sessionHandler.Login))
	mux.HandleFunc("GET /session", middleware.WithLogging(sessionHandler.GetSession))
	mux.HandleFunc("POST /session/groups", middleware.WithLogging(sessionHandler.CreateGroup))
	mux.HandleFunc("POST /session/join", middleware.WithLogging(sessionHandler.JoinGroup))
	mux.HandleFunc("POST /session/leave", middleware.WithLogging(sessionHandler.LeaveGroup))
	mux.HandleFunc("POST /session/members/refresh", middleware.WithLogging(sessionHandler.RefreshMembers))
	mux.HandleFunc("POST /session/start", middleware.WithLogging(sessionHandler.StartRating))
	mux.HandleFunc("POST /session/ratings", middleware.WithLogging(sessionHandler.SubmitRating))
	mux.HandleFunc("POST /session/next", middleware.WithLogging(sessionHandler.Next))
	mux.HandleFunc("POST /session/refresh", middleware.WithLogging(sessionHandler.Refresh))
	mux.HandleFunc("POST /session/items/{id}", middleware.WithLogging(sessionHandler.ViewItem))
	mux.HandleFunc("POST /session/back", middleware.WithLogging(sessionHandler.Back))
	mux.HandleFunc("POST /session/home", middleware.WithLogging(sessionHandler.Home))
	mux.HandleFunc("POST /session/logout", middleware.WithLogging(sessionHandler.Logout))

	// Catalog (public)
	mux.HandleFunc("GET /villas", middleware.WithLogging(catalogHandler.ListVillas))
	mux.HandleFunc("GET /villas/{id}", middleware.WithLogging(catalogHandler.GetVilla))

	// Group views (public)
	mux.HandleFunc("GET /groups/{code}", middleware.WithLogging(groupHandler.GetByJoinCode))
	mux.HandleFunc("GET /groups/{id}/members", middleware.WithLogging(groupHandler.GetMembers))
	mux.HandleFunc("GET /groups/{id}/progress", middleware.WithLogging(groupHandler.GetProgress))
	mux.HandleFunc("GET /groups/{id}/results", middleware.WithLogging(groupHandler.GetResults))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("villa-vote API v1"))
	})

	return mux
}
