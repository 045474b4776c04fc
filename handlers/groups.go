// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/villa-vote/aggregate"
	"github.com/danielhkuo/villa-vote/auth"
	"github.com/danielhkuo/villa-vote/cliparse"
	"github.com/danielhkuo/villa-vote/completion"
	"github.com/danielhkuo/villa-vote/middleware"
	"github.com/danielhkuo/villa-vote/models"
	"github.com/danielhkuo/villa-vote/store"
)

// GroupHandler serves read-only group views: lookup, members, progress
// and results
type GroupHandler struct {
	store  *store.Store
	engine *aggregate.Engine
	cfg    cliparse.Config
}

func NewGroupHandler(st *store.Store, engine *aggregate.Engine, cfg cliparse.Config) *GroupHandler {
	return &GroupHandler{store: st, engine: engine, cfg: cfg}
}

// GetByJoinCode handles GET /groups/{code}
func (h *GroupHandler) GetByJoinCode(w http.ResponseWriter, r *http.Request) {
	code := auth.NormalizeJoinCode(r.PathValue("code"))
	if err := auth.ValidateJoinCode(code); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid join code")
		return
	}

	group, err := h.store.GroupByJoinCode(r.Context(), code)
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Invalid join code")
		return
	}
	if err != nil {
		slog.Error("failed to look up group", "join_code", code, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, group)
}

// GetMembers handles GET /groups/{id}/members
func (h *GroupHandler) GetMembers(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.requireGroup(w, r)
	if !ok {
		return
	}

	members, err := h.store.ListMembers(r.Context(), groupID)
	if err != nil {
		slog.Error("failed to list members", "group_id", groupID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load members")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MembersResponse{
		GroupID: groupID,
		Members: members,
	})
}

// GetProgress handles GET /groups/{id}/progress
// Runs one completion evaluation against the current catalog size.
func (h *GroupHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.requireGroup(w, r)
	if !ok {
		return
	}

	items, err := h.store.CountVillas(r.Context())
	if err != nil {
		slog.Error("failed to count villas", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	poller := completion.NewPoller(h.store, groupID, items, h.cfg.PollInterval, h.cfg.PollMaxBackoff)
	progress, err := poller.Evaluate(r.Context())
	if err != nil {
		slog.Error("failed to evaluate progress", "group_id", groupID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load progress")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ProgressResponse{
		GroupID:     groupID,
		Finished:    progress.Finished,
		FinishedCnt: progress.FinishedCount(),
		MemberCount: progress.MemberCount,
		ItemCount:   progress.ItemCount,
		Complete:    progress.Complete,
	})
}

// GetResults handles GET /groups/{id}/results
func (h *GroupHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.requireGroup(w, r)
	if !ok {
		return
	}

	results, err := h.engine.Compute(r.Context(), groupID)
	if err != nil {
		slog.Error("failed to compute results", "group_id", groupID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to compute results")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ResultsResponse{
		GroupID: groupID,
		Results: results,
	})
}

// requireGroup checks the {id} path value names an existing group
func (h *GroupHandler) requireGroup(w http.ResponseWriter, r *http.Request) (string, bool) {
	groupID := r.PathValue("id")
	if groupID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "group id is required")
		return "", false
	}

	_, err := h.store.GroupByID(r.Context(), groupID)
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Group not found")
		return "", false
	}
	if err != nil {
		slog.Error("failed to query group", "group_id", groupID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return "", false
	}
	return groupID, true
}
