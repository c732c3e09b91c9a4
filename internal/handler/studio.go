package handler

import (
	"net/http"

	"github.com/templui/storyloom/internal/adapter"
	"github.com/templui/storyloom/internal/service"
)

type StudioHandler struct {
	studioService *service.StudioService
}

func NewStudioHandler(studioService *service.StudioService) *StudioHandler {
	return &StudioHandler{studioService: studioService}
}

type generateStoryRequest struct {
	Title    string   `json:"title"`
	Theme    string   `json:"theme"`
	Region   string   `json:"region"`
	Keywords []string `json:"keywords"`
}

func (h *StudioHandler) GenerateStory(w http.ResponseWriter, r *http.Request) {
	var req generateStoryRequest
	err := decodeJSON(r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	story, err := h.studioService.GenerateStory(r.Context(), adapter.StoryInput(req))
	if err != nil {
		writeServiceError(w, r, err, "generate story")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"story": story})
}

type storyboardRequest struct {
	Content string `json:"content"`
	Scenes  int    `json:"scenes"`
}

func (h *StudioHandler) Storyboard(w http.ResponseWriter, r *http.Request) {
	var req storyboardRequest
	err := decodeJSON(r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	board, err := h.studioService.Storyboard(r.Context(), adapter.StoryboardInput(req))
	if err != nil {
		writeServiceError(w, r, err, "create storyboard")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scenes": board.Scenes})
}

type analysisRequest struct {
	Content string `json:"content"`
	Region  string `json:"region"`
	Theme   string `json:"theme"`
}

func (h *StudioHandler) CulturalContext(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	err := decodeJSON(r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	analysis, err := h.studioService.CulturalContext(r.Context(), adapter.ContextInput(req))
	if err != nil {
		writeServiceError(w, r, err, "analyze cultural context")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"analysis": analysis.Analysis, "resources": analysis.Resources})
}

func (h *StudioHandler) Sensitivity(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	err := decodeJSON(r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := h.studioService.CheckSensitivity(r.Context(), adapter.SensitivityInput(req))
	if err != nil {
		writeServiceError(w, r, err, "check sensitivity")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"report": report})
}
