// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/villa-vote/auth"
	"github.com/danielhkuo/villa-vote/middleware"
	"github.com/danielhkuo/villa-vote/models"
	"github.com/danielhkuo/villa-vote/session"
)

type SessionHandler struct {
	sessions *session.Manager
}

func NewSessionHandler(sessions *session.Manager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// sessionEvent is one controller event driven by a request
type sessionEvent func(ctrl *session.Controller, ctx context.Context) (models.SessionView, error)

// Login handles POST /session/login
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	token, view, err := h.sessions.Login(r.Context(), req.Username)
	if err != nil {
		writeSessionError(w, err, "Failed to create profile")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.LoginResponse{
		IdentityToken: token,
		Profile:       *view.Profile,
		Session:       view,
	})
}

// GetSession handles GET /session
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "Failed to load session", func(ctrl *session.Controller, ctx context.Context) (models.SessionView, error) {
		return ctrl.View(), nil
	})
}

// CreateGroup handles POST /session/groups
func (h *SessionHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req models.CreateGroupRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	h.run(w, r, "Failed to create group", func(ctrl *session.Controller, ctx context.Context) (models.SessionView, error) {
		return ctrl.CreateGroup(ctx, req.Name)
	})
}

// JoinGroup handles POST /session/join
func (h *SessionHandler) JoinGroup(w http.ResponseWriter, r *http.Request) {
	var req models.JoinGroupRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	h.run(w, r, "Failed to join group", func(ctrl *session.Controller, ctx context.Context) (models.SessionView, error) {
		return ctrl.JoinGroup(ctx, req.JoinCode)
	})
}

// LeaveGroup handles POST /session/leave
func (h *SessionHandler) LeaveGroup(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "Failed to leave group", (*session.Controller).LeaveGroup)
}

// RefreshMembers handles POST /session/members/refresh
func (h *SessionHandler) RefreshMembers(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "Failed to load members", (*session.Controller).RefreshMembers)
}

// StartRating handles POST /session/start
func (h *SessionHandler) StartRating(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "Failed to start rating", (*session.Controller).StartRating)
}

// SubmitRating handles POST /session/ratings
func (h *SessionHandler) SubmitRating(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitRatingRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	h.run(w, r, "Failed to save rating", func(ctrl *session.Controller, ctx context.Context) (models.SessionView, error) {
		return ctrl.SubmitRating(ctx, req.Stars)
	})
}

// Next handles POST /session/next
func (h *SessionHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "Failed to advance", (*session.Controller).Next)
}

// Refresh handles POST /session/refresh
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "Failed to refresh results", (*session.Controller).Refresh)
}

// ViewItem handles POST /session/items/{id}
func (h *SessionHandler) ViewItem(w http.ResponseWriter, r *http.Request) {
	villaID := r.PathValue("id")
	if villaID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "villa id is required")
		return
	}

	h.run(w, r, "Failed to open villa", func(ctrl *session.Controller, ctx context.Context) (models.SessionView, error) {
		return ctrl.ViewItem(ctx, villaID)
	})
}

// Back handles POST /session/back
func (h *SessionHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "Failed to go back", (*session.Controller).Back)
}

// Home handles POST /session/home
func (h *SessionHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "Failed to go home", (*session.Controller).Home)
}

// Logout handles POST /session/logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.IdentityToken(r)
	if token == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Identity token required")
		return
	}

	view, err := h.sessions.Logout(r.Context(), token)
	if err != nil {
		writeSessionError(w, err, "Failed to sign out")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, view)
}

// run resolves the caller's controller and applies one event to it
func (h *SessionHandler) run(w http.ResponseWriter, r *http.Request, failure string, event sessionEvent) {
	token := middleware.IdentityToken(r)
	if token == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Identity token required")
		return
	}

	ctrl, err := h.sessions.Get(r.Context(), token)
	if err != nil {
		writeSessionError(w, err, "Failed to load session")
		return
	}

	view, err := event(ctrl, r.Context())
	if err != nil {
		writeSessionError(w, err, failure)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, view)
}

// writeSessionError maps session errors to a status and a user-facing message.
// Anything unrecognised is logged and reported with failure.
func writeSessionError(w http.ResponseWriter, err error, failure string) {
	switch {
	case errors.Is(err, auth.ErrNoSession):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "No active session")
	case errors.Is(err, session.ErrInvalidTransition):
		middleware.ErrorResponse(w, http.StatusConflict, "Action not available on this screen")
	case errors.Is(err, session.ErrInvalidUsername):
		middleware.ErrorResponse(w, http.StatusBadRequest, "Username is required")
	case errors.Is(err, session.ErrInvalidGroupName):
		middleware.ErrorResponse(w, http.StatusBadRequest, "Group name is required")
	case errors.Is(err, auth.ErrInvalidJoinCode):
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid join code")
	case errors.Is(err, session.ErrGroupNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Invalid join code")
	case errors.Is(err, session.ErrInvalidStars):
		middleware.ErrorResponse(w, http.StatusBadRequest, "Rating must be between 1 and 5 stars")
	case errors.Is(err, session.ErrNotRated):
		middleware.ErrorResponse(w, http.StatusConflict, "Rate this villa before moving on")
	case errors.Is(err, session.ErrUnknownVilla):
		middleware.ErrorResponse(w, http.StatusNotFound, "Villa not found")
	default:
		slog.Error(failure, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, failure)
	}
}
