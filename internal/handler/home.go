package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/templui/storyloom/internal/model"
	"github.com/templui/storyloom/internal/service"
	"github.com/templui/storyloom/internal/ui"
)

type HomeHandler struct {
	storyService *service.StoryService
	tagService   *service.TagService
}

func NewHomeHandler(storyService *service.StoryService, tagService *service.TagService) *HomeHandler {
	return &HomeHandler{storyService: storyService, tagService: tagService}
}

func (h *HomeHandler) HomePage(w http.ResponseWriter, r *http.Request) {
	data := ui.HomeData{Regions: model.Regions}

	page, err := h.storyService.Gallery(service.GalleryFilter{PageSize: 6})
	if err != nil {
		slog.Error("failed to load recent stories", "error", err)
	} else {
		data.Recent = page.Stories
	}

	data.PopularTags, err = h.tagService.Popular(12)
	if err != nil {
		slog.Warn("failed to load popular tags", "error", err)
	}

	ui.Render(w, r, ui.Home(data))
}

func (h *HomeHandler) NotFoundPage(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	ui.RenderStatus(w, r, http.StatusNotFound, ui.NotFound())
}
