package handler

import (
	"net/http"
	"strconv"

	"github.com/templui/storyloom/internal/service"
)

type TagHandler struct {
	tagService *service.TagService
}

func NewTagHandler(tagService *service.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

func (h *TagHandler) Popular(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	tags, err := h.tagService.Popular(limit)
	if err != nil {
		writeServiceError(w, r, err, "load tags")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

func (h *TagHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tagService.ByCategory(r.URL.Query().Get("category"))
	if err != nil {
		writeServiceError(w, r, err, "load tags")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

type suggestTagsRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Region  string `json:"region"`
}

func (h *TagHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req suggestTagsRequest
	err := decodeJSON(r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tags, err := h.tagService.Suggest(r.Context(), req.Title, req.Content, req.Region)
	if err != nil {
		writeServiceError(w, r, err, "suggest tags")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}
