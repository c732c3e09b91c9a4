package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/templui/storyloom/internal/adapter"
	"github.com/templui/storyloom/internal/capability"
	"github.com/templui/storyloom/internal/ctxkeys"
	"github.com/templui/storyloom/internal/model"
	"github.com/templui/storyloom/internal/service"
	"github.com/templui/storyloom/internal/ui"
	"github.com/templui/storyloom/internal/validation"
)

// maxUploadMemory is how much of a multipart form is kept in memory; the rest spills to disk.
const maxUploadMemory = 32 << 20

type SubmitHandler struct {
	submissionService *service.SubmissionService
	storyService      *service.StoryService
	registry          *capability.Registry
}

func NewSubmitHandler(submissionService *service.SubmissionService, storyService *service.StoryService, registry *capability.Registry) *SubmitHandler {
	return &SubmitHandler{
		submissionService: submissionService,
		storyService:      storyService,
		registry:          registry,
	}
}

func (h *SubmitHandler) SubmitPage(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, ui.Submit(h.submitData(ui.SubmitForm{ImageStyle: "vivid", Voice: adapter.VoiceNames[0]})))
}

// Submit handles the HTML form. Enhancement problems are shown as warnings next to the published story.
func (h *SubmitHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := r.ParseMultipartForm(maxUploadMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		data := h.submitData(ui.SubmitForm{})
		data.Error = "Failed to read the form"
		ui.RenderStatus(w, r, http.StatusBadRequest, ui.Submit(data))
		return
	}

	form := ui.SubmitForm{
		Title:              r.FormValue("title"),
		Content:            r.FormValue("content"),
		Region:             r.FormValue("region"),
		Theme:              r.FormValue("theme"),
		Tags:               r.FormValue("tags"),
		GenerateImage:      checked(r, "generate_image"),
		ImageStyle:         r.FormValue("image_style"),
		GenerateAudio:      checked(r, "generate_audio"),
		Voice:              r.FormValue("voice"),
		GenerateSoundtrack: checked(r, "generate_soundtrack"),
		SuggestTags:        checked(r, "suggest_tags"),
		GenerateVideo:      checked(r, "generate_video"),
	}

	media, err := mediaUpload(r, "media")
	if err != nil {
		data := h.submitData(form)
		data.Errors = map[string]string{"media": err.Error()}
		ui.RenderStatus(w, r, http.StatusBadRequest, ui.Submit(data))
		return
	}

	in := submissionInput(user.ID, form)
	in.Media = media

	result, err := h.submissionService.Submit(r.Context(), in)
	if err != nil {
		data := h.submitData(form)
		status := http.StatusBadRequest
		var fields validation.FieldErrors
		if errors.As(err, &fields) {
			data.Errors = fields
		} else {
			slog.Error("failed to submit story", "error", err, "user_id", user.ID)
			data.Error = "We could not publish your story. Please try again."
			status = http.StatusInternalServerError
		}
		ui.RenderStatus(w, r, status, ui.Submit(data))
		return
	}

	if len(result.Warnings) == 0 && len(result.Badges) == 0 {
		http.Redirect(w, r, "/stories/"+result.Story.ID, http.StatusSeeOther)
		return
	}

	data := h.submitData(ui.SubmitForm{ImageStyle: form.ImageStyle, Voice: form.Voice})
	data.Result = result
	ui.Render(w, r, ui.Submit(data))
}

type submitRequest struct {
	Title              string `json:"title"`
	Content            string `json:"content"`
	Region             string `json:"region"`
	Theme              string `json:"theme"`
	Tags               string `json:"tags"`
	GenerateImage      bool   `json:"generate_image"`
	ImageStyle         string `json:"image_style"`
	GenerateAudio      bool   `json:"generate_audio"`
	Voice              string `json:"voice"`
	GenerateSoundtrack bool   `json:"generate_soundtrack"`
	SuggestTags        bool   `json:"suggest_tags"`
	GenerateVideo      bool   `json:"generate_video"`
	VideoDuration      int    `json:"video_duration"`
}

// SubmitAPI accepts either a JSON body or a multipart form with an optional media file.
func (h *SubmitHandler) SubmitAPI(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var (
		req   submitRequest
		media *service.MediaUpload
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err := r.ParseMultipartForm(maxUploadMemory)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid multipart form")
			return
		}
		duration, _ := strconv.Atoi(r.FormValue("video_duration"))
		req = submitRequest{
			Title:              r.FormValue("title"),
			Content:            r.FormValue("content"),
			Region:             r.FormValue("region"),
			Theme:              r.FormValue("theme"),
			Tags:               r.FormValue("tags"),
			GenerateImage:      checked(r, "generate_image"),
			ImageStyle:         r.FormValue("image_style"),
			GenerateAudio:      checked(r, "generate_audio"),
			Voice:              r.FormValue("voice"),
			GenerateSoundtrack: checked(r, "generate_soundtrack"),
			SuggestTags:        checked(r, "suggest_tags"),
			GenerateVideo:      checked(r, "generate_video"),
			VideoDuration:      duration,
		}
		media, err = mediaUpload(r, "media")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), map[string]any{"fields": map[string]string{"media": err.Error()}})
			return
		}
	} else {
		err := decodeJSON(r, &req)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	result, err := h.submissionService.Submit(r.Context(), service.SubmissionInput{
		UserID:             user.ID,
		Title:              req.Title,
		Content:            req.Content,
		Region:             req.Region,
		Theme:              req.Theme,
		Tags:               req.Tags,
		Media:              media,
		GenerateImage:      req.GenerateImage,
		ImageStyle:         req.ImageStyle,
		GenerateAudio:      req.GenerateAudio,
		Voice:              req.Voice,
		GenerateSoundtrack: req.GenerateSoundtrack,
		SuggestTags:        req.SuggestTags,
		GenerateVideo:      req.GenerateVideo,
		VideoDuration:      req.VideoDuration,
	})
	if err != nil {
		writeServiceError(w, r, err, "submit story")
		return
	}

	writeSubmission(w, result)
}

// Import publishes a story from an uploaded markdown file with frontmatter.
func (h *SubmitHandler) Import(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := r.ParseMultipartForm(validation.MarkdownConstraints.MaxSize + 1<<10)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer closeFile(file)

	data, err := io.ReadAll(io.LimitReader(file, validation.MarkdownConstraints.MaxSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	_, err = validation.ValidateFile(header.Filename, data, validation.MarkdownConstraints)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.storyService.Import(r.Context(), user.ID, data)
	if err != nil {
		writeServiceError(w, r, err, "import story")
		return
	}

	writeSubmission(w, result)
}

func writeSubmission(w http.ResponseWriter, result *service.SubmissionResult) {
	writeJSON(w, http.StatusCreated, map[string]any{
		"story":        result.Story,
		"enhancements": result.Outcomes,
		"warnings":     result.Warnings,
		"badges":       result.Badges,
		"tags":         result.Tags,
	})
}

func (h *SubmitHandler) submitData(form ui.SubmitForm) ui.SubmitData {
	regions, err := h.storyService.Regions()
	if err != nil {
		slog.Warn("failed to load regions", "error", err)
		regions = model.Regions
	}

	available := make(map[string]bool)
	for _, s := range h.registry.Statuses() {
		available[string(s.Name)] = s.Available
	}

	return ui.SubmitData{
		Form:         form,
		Regions:      regions,
		Themes:       model.Themes,
		Voices:       adapter.VoiceNames,
		Capabilities: available,
	}
}

func submissionInput(userID string, form ui.SubmitForm) service.SubmissionInput {
	return service.SubmissionInput{
		UserID:             userID,
		Title:              form.Title,
		Content:            form.Content,
		Region:             form.Region,
		Theme:              form.Theme,
		Tags:               form.Tags,
		GenerateImage:      form.GenerateImage,
		ImageStyle:         form.ImageStyle,
		GenerateAudio:      form.GenerateAudio,
		Voice:              form.Voice,
		GenerateSoundtrack: form.GenerateSoundtrack,
		SuggestTags:        form.SuggestTags,
		GenerateVideo:      form.GenerateVideo,
	}
}

// mediaUpload reads and validates an optional file field. No file yields nil.
func mediaUpload(r *http.Request, field string) (*service.MediaUpload, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read upload")
	}
	defer closeFile(file)

	data, err := io.ReadAll(io.LimitReader(file, validation.MediaConstraints.MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload")
	}

	contentType, err := validation.ValidateFile(header.Filename, data, validation.MediaConstraints)
	if err != nil {
		return nil, err
	}

	return &service.MediaUpload{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

func closeFile(file multipart.File) {
	err := file.Close()
	if err != nil {
		slog.Error("failed to close file", "error", err)
	}
}

func checked(r *http.Request, field string) bool {
	switch strings.ToLower(r.FormValue(field)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
