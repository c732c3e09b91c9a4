package handler

import (
	"net/http"

	"github.com/templui/storyloom/internal/ctxkeys"
	"github.com/templui/storyloom/internal/service"
)

type BadgeHandler struct {
	badgeService *service.BadgeService
	userService  *service.UserService
}

func NewBadgeHandler(badgeService *service.BadgeService, userService *service.UserService) *BadgeHandler {
	return &BadgeHandler{badgeService: badgeService, userService: userService}
}

func (h *BadgeHandler) List(w http.ResponseWriter, r *http.Request) {
	badges, err := h.badgeService.All()
	if err != nil {
		writeServiceError(w, r, err, "load badges")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"badges": badges})
}

func (h *BadgeHandler) UserBadges(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.ByUsername(r.PathValue("username"))
	if err != nil {
		writeServiceError(w, r, err, "load badges")
		return
	}

	badges, err := h.badgeService.Earned(user.ID)
	if err != nil {
		writeServiceError(w, r, err, "load badges")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"username": user.Username, "badges": badges})
}

// Evaluate checks the logged-in user's badges and returns the newly awarded ones.
func (h *BadgeHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	awarded, err := h.badgeService.Evaluate(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err, "evaluate badges")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"awarded": awarded})
}
