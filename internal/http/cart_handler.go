package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"xolvetech/internal/cart"
)

// CartHandler exposes the authenticated user's shopping cart.
type CartHandler struct {
	service *cart.Service
	logger  *slog.Logger
}

// NewCartHandler creates a CartHandler.
func NewCartHandler(service *cart.Service, logger *slog.Logger) *CartHandler {
	return &CartHandler{service: service, logger: logger}
}

// Get returns the cart with resolved kits and totals.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	view, err := h.service.Get(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("load cart", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// AddItem upserts a kit into the cart; an existing line accumulates quantity.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	var payload struct {
		KitID    string `json:"kitId"`
		Quantity int    `json:"quantity"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	kitID, err := uuid.Parse(payload.KitID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid kit id")
		return
	}

	quantity := payload.Quantity
	if quantity == 0 {
		quantity = 1
	}

	view, err := h.service.AddItem(r.Context(), user.ID, kitID, quantity)
	if err != nil {
		h.handleCartError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SetQuantity replaces a line's quantity; zero or less removes the line.
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	kitID, ok := parseUUIDParam(w, r, "kitID")
	if !ok {
		return
	}

	var payload struct {
		Quantity int `json:"quantity"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	view, err := h.service.SetQuantity(r.Context(), user.ID, kitID, payload.Quantity)
	if err != nil {
		h.handleCartError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// RemoveItem drops a kit from the cart.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	kitID, ok := parseUUIDParam(w, r, "kitID")
	if !ok {
		return
	}

	view, err := h.service.RemoveItem(r.Context(), user.ID, kitID)
	if err != nil {
		h.handleCartError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Clear empties the cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	view, err := h.service.Clear(r.Context(), user.ID)
	if err != nil {
		h.handleCartError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CartHandler) handleCartError(w http.ResponseWriter, err error) {
	var verr *cart.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Message)
		return
	}
	h.logger.Error("cart operation failed", "error", err)
	writeError(w, http.StatusInternalServerError, "unexpected error")
}
