package handler

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/templui/storyloom/internal/adapter"
	"github.com/templui/storyloom/internal/model"
	"github.com/templui/storyloom/internal/repository"
	"github.com/templui/storyloom/internal/service"
	"github.com/templui/storyloom/internal/ui"
)

// reactionEmojis are the quick reactions offered on the story page.
var reactionEmojis = []string{"❤️", "😂", "😮", "🙏", "🎉"}

type StoryHandler struct {
	storyService  *service.StoryService
	socialService *service.SocialService
	tagService    *service.TagService
}

func NewStoryHandler(storyService *service.StoryService, socialService *service.SocialService, tagService *service.TagService) *StoryHandler {
	return &StoryHandler{
		storyService:  storyService,
		socialService: socialService,
		tagService:    tagService,
	}
}

// galleryFilter reads the gallery query parameters.
func galleryFilter(r *http.Request) service.GalleryFilter {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	return service.GalleryFilter{
		Region:   strings.TrimSpace(q.Get("region")),
		Theme:    strings.TrimSpace(q.Get("theme")),
		Tag:      strings.TrimSpace(q.Get("tag")),
		Sort:     q.Get("sort"),
		Page:     page,
		PageSize: pageSize,
	}
}

func (h *StoryHandler) GalleryPage(w http.ResponseWriter, r *http.Request) {
	filter := galleryFilter(r)

	page, err := h.storyService.Gallery(filter)
	if err != nil {
		slog.Error("failed to load gallery", "error", err)
		http.Error(w, "Failed to load gallery", http.StatusInternalServerError)
		return
	}

	regions, err := h.storyService.Regions()
	if err != nil {
		slog.Warn("failed to load regions", "error", err)
		regions = model.Regions
	}

	popular, err := h.tagService.Popular(15)
	if err != nil {
		slog.Warn("failed to load popular tags", "error", err)
	}

	ui.Render(w, r, ui.Gallery(ui.GalleryData{
		Page:        page,
		Filter:      filter,
		Regions:     regions,
		Themes:      model.Themes,
		PopularTags: popular,
	}))
}

func (h *StoryHandler) StoryPage(w http.ResponseWriter, r *http.Request) {
	viewer := viewerID(r)

	story, err := h.storyService.ByID(r.PathValue("id"), viewer)
	if errors.Is(err, repository.ErrStoryNotFound) {
		ui.RenderStatus(w, r, http.StatusNotFound, ui.NotFound())
		return
	}
	if err != nil {
		slog.Error("failed to load story", "error", err, "story_id", r.PathValue("id"))
		http.Error(w, "Failed to load story", http.StatusInternalServerError)
		return
	}

	content, err := h.storyService.RenderContent(story)
	if err != nil {
		slog.Error("failed to render story", "error", err, "story_id", story.ID)
		http.Error(w, "Failed to load story", http.StatusInternalServerError)
		return
	}

	comments, err := h.socialService.Comments(story.ID)
	if err != nil {
		slog.Warn("failed to load comments", "error", err, "story_id", story.ID)
	}
	reactions, err := h.socialService.ReactionCounts(story.ID)
	if err != nil {
		slog.Warn("failed to load reactions", "error", err, "story_id", story.ID)
	}

	ui.Render(w, r, ui.StoryDetail(ui.StoryData{
		Story: story,
		// Rendered by goldmark without raw HTML passthrough
		ContentHTML:   template.HTML(content),
		Comments:      comments,
		Reactions:     reactions,
		IsOwner:       viewer != "" && viewer == story.UserID,
		ExportFormats: adapter.ExportFormats,
		Reactable:     reactionEmojis,
	}))
}

// List returns a gallery page as JSON.
func (h *StoryHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.storyService.Gallery(galleryFilter(r))
	if err != nil {
		writeServiceError(w, r, err, "load stories")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"page": page})
}

func (h *StoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	story, err := h.storyService.ByID(r.PathValue("id"), viewerID(r))
	if err != nil {
		writeServiceError(w, r, err, "load story")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"story": story})
}

func (h *StoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.storyService.Delete(r.Context(), r.PathValue("id"), viewerID(r))
	if err != nil {
		writeServiceError(w, r, err, "delete story")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Story deleted"})
}

// Export streams the story as a download in the requested format.
func (h *StoryHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = adapter.FormatTXT
	}

	doc, err := h.storyService.Export(r.Context(), r.PathValue("id"), viewerID(r), format)
	if err != nil {
		writeServiceError(w, r, err, "export story")
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	_, err = w.Write(doc.Data)
	if err != nil {
		slog.Warn("failed to write export", "error", err, "story_id", r.PathValue("id"))
	}
}
