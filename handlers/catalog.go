// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/villa-vote/middleware"
	"github.com/danielhkuo/villa-vote/models"
	"github.com/danielhkuo/villa-vote/store"
)

// VillaStore is the catalog read side
type VillaStore interface {
	ListVillas(ctx context.Context) ([]models.Villa, error)
	VillaByID(ctx context.Context, id string) (models.Villa, error)
}

type CatalogHandler struct {
	villas VillaStore
}

func NewCatalogHandler(villas VillaStore) *CatalogHandler {
	return &CatalogHandler{villas: villas}
}

// ListVillas handles GET /villas
func (h *CatalogHandler) ListVillas(w http.ResponseWriter, r *http.Request) {
	villas, err := h.villas.ListVillas(r.Context())
	if err != nil {
		slog.Error("failed to list villas", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load villas")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, villas)
}

// GetVilla handles GET /villas/{id}
func (h *CatalogHandler) GetVilla(w http.ResponseWriter, r *http.Request) {
	villaID := r.PathValue("id")
	if villaID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "villa id is required")
		return
	}

	villa, err := h.villas.VillaByID(r.Context(), villaID)
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Villa not found")
		return
	}
	if err != nil {
		slog.Error("failed to load villa", "villa_id", villaID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load villa")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, villa)
}
