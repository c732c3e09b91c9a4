package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/templui/storyloom/internal/ctxkeys"
	"github.com/templui/storyloom/internal/repository"
	"github.com/templui/storyloom/internal/service"
	"github.com/templui/storyloom/internal/ui"
)

type ProfileHandler struct {
	userService  *service.UserService
	storyService *service.StoryService
	badgeService *service.BadgeService
}

func NewProfileHandler(userService *service.UserService, storyService *service.StoryService, badgeService *service.BadgeService) *ProfileHandler {
	return &ProfileHandler{
		userService:  userService,
		storyService: storyService,
		badgeService: badgeService,
	}
}

func (h *ProfileHandler) ProfilePage(w http.ResponseWriter, r *http.Request) {
	profile, err := h.userService.ByUsername(r.PathValue("username"))
	if errors.Is(err, repository.ErrUserNotFound) {
		ui.RenderStatus(w, r, http.StatusNotFound, ui.NotFound())
		return
	}
	if err != nil {
		slog.Error("failed to load profile", "error", err, "username", r.PathValue("username"))
		http.Error(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	stories, err := h.storyService.ByUser(profile.ID, page)
	if err != nil {
		slog.Error("failed to load user stories", "error", err, "user_id", profile.ID)
		http.Error(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}

	badges, err := h.badgeService.Earned(profile.ID)
	if err != nil {
		slog.Warn("failed to load badges", "error", err, "user_id", profile.ID)
	}

	viewer := ctxkeys.User(r.Context())
	ui.Render(w, r, ui.Profile(ui.ProfileData{
		Profile: profile,
		Stories: stories,
		Badges:  badges,
		IsSelf:  viewer != nil && viewer.ID == profile.ID,
	}))
}

type bioRequest struct {
	Bio string `json:"bio"`
}

// UpdateBio changes the logged-in user's bio.
func (h *ProfileHandler) UpdateBio(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req bioRequest
	err := decodeJSON(r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	bio := strings.TrimSpace(req.Bio)
	err = h.userService.UpdateBio(user.ID, bio)
	if err != nil {
		writeServiceError(w, r, err, "update bio")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bio": bio})
}
