package http

import (
	"net/http"

	"github.com/campusnotes/campusnotes/internal/identity/service"
	"github.com/campusnotes/campusnotes/pkg/httpx"
	"github.com/campusnotes/campusnotes/pkg/slogx"
)

type UserInfoHandler struct {
	UserService *service.UserService
}

// UserInfoResponse is the authenticated profile view: the user row plus the
// provider identities linked to it. Tokens never leave the store.
type UserInfoResponse struct {
	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name"`
	IsAdmin     bool     `json:"is_admin"`
	Providers   []string `json:"providers"`
}

func (h *UserInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)

	user, err := h.UserService.GetUserByID(ctx, userID)
	if err != nil {
		log.Warn("failed to load user", "user_id", userID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to load profile.")
		return
	}

	identities, err := h.UserService.ListIdentities(ctx, userID)
	if err != nil {
		log.Warn("failed to load identities", "user_id", userID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to load profile.")
		return
	}

	providers := make([]string, 0, len(identities))
	for _, li := range identities {
		providers = append(providers, li.Provider)
	}

	httpx.WriteJSON(w, http.StatusOK, UserInfoResponse{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		IsAdmin:     user.IsAdmin,
		Providers:   providers,
	})
}
