package handler

import (
	"net/http"

	"github.com/templui/storyloom/internal/ctxkeys"
	"github.com/templui/storyloom/internal/service"
)

type SocialHandler struct {
	socialService *service.SocialService
}

func NewSocialHandler(socialService *service.SocialService) *SocialHandler {
	return &SocialHandler{socialService: socialService}
}

func (h *SocialHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	liked, count, err := h.socialService.ToggleLike(r.Context(), r.PathValue("id"), user.ID)
	if err != nil {
		writeServiceError(w, r, err, "update like")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"liked": liked, "count": count})
}

type reactionRequest struct {
	Emoji string `json:"emoji"`
}

func (h *SocialHandler) ToggleReaction(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req reactionRequest
	err := decodeJSON(r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	reacted, counts, err := h.socialService.ToggleReaction(r.PathValue("id"), user.ID, req.Emoji)
	if err != nil {
		writeServiceError(w, r, err, "update reaction")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reacted": reacted, "counts": counts})
}

func (h *SocialHandler) Comments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.socialService.Comments(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "load comments")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": comments})
}

type commentRequest struct {
	Content  string `json:"content"`
	ParentID string `json:"parent_id"`
}

func (h *SocialHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req commentRequest
	err := decodeJSON(r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	comment, err := h.socialService.AddComment(r.Context(), r.PathValue("id"), user.ID, req.ParentID, req.Content)
	if err != nil {
		writeServiceError(w, r, err, "add comment")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"comment": comment})
}
