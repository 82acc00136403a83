package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/campusnotes/campusnotes/internal/identity/service"
	"github.com/campusnotes/campusnotes/pkg/httpx"
	"github.com/campusnotes/campusnotes/pkg/slogx"
)

type PromoteHandler struct {
	UserService *service.UserService
}

type promoteRequest struct {
	Code string `json:"code"`
}

func (h *PromoteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	userID := httpx.UserIDFromContext(ctx)

	var req promoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Missing promotion code.")
		return
	}

	err := h.UserService.Promote(ctx, userID, req.Code)
	switch {
	case errors.Is(err, service.ErrPromotionDisabled):
		httpx.WriteError(w, http.StatusForbidden, "promotion_disabled", "Admin promotion is not enabled.")
	case errors.Is(err, service.ErrBadPromotionCode):
		log.Warn("bad admin promotion code", "user_id", userID)
		httpx.WriteError(w, http.StatusForbidden, "bad_code", "Promotion code does not match.")
	case err != nil:
		log.Error("admin promotion failed", "user_id", userID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Promotion failed.")
	default:
		log.Info("user promoted to admin", "user_id", userID)
		httpx.WriteJSON(w, http.StatusOK, map[string]bool{"is_admin": true})
	}
}
