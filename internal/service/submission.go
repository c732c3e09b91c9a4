package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/storyloom/internal/adapter"
	"github.com/templui/storyloom/internal/capability"
	"github.com/templui/storyloom/internal/metrics"
	"github.com/templui/storyloom/internal/model"
	"github.com/templui/storyloom/internal/repository"
	"github.com/templui/storyloom/internal/validation"
	"golang.org/x/sync/errgroup"
)

type Enhancement string

// Enhancements in reporting order.
const (
	EnhancementMedia      Enhancement = "media"
	EnhancementImage      Enhancement = "image"
	EnhancementAudio      Enhancement = "audio"
	EnhancementSoundtrack Enhancement = "soundtrack"
	EnhancementTags       Enhancement = "tags"
	EnhancementVideo      Enhancement = "video"
)

var enhancementOrder = []Enhancement{
	EnhancementMedia,
	EnhancementImage,
	EnhancementAudio,
	EnhancementSoundtrack,
	EnhancementTags,
	EnhancementVideo,
}

var enhancementLabels = map[Enhancement]string{
	EnhancementMedia:      "Media upload",
	EnhancementImage:      "Illustration",
	EnhancementAudio:      "Narration",
	EnhancementSoundtrack: "Soundtrack",
	EnhancementTags:       "Tag suggestion",
	EnhancementVideo:      "Video",
}

type EnhancementStatus string

const (
	StatusSucceeded EnhancementStatus = "succeeded"
	StatusFailed    EnhancementStatus = "failed"
	StatusSkipped   EnhancementStatus = "skipped"
)

type EnhancementOutcome struct {
	Enhancement Enhancement       `json:"enhancement"`
	Status      EnhancementStatus `json:"status"`
	Message     string            `json:"message,omitempty"`
}

// MediaUpload is a user-supplied file, already validated by the caller.
type MediaUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type SubmissionInput struct {
	UserID  string
	Title   string
	Content string
	Region  string
	Theme   string
	// Tags is the comma-separated user input.
	Tags string

	Media              *MediaUpload
	GenerateImage      bool
	ImageStyle         string
	GenerateAudio      bool
	Voice              string
	GenerateSoundtrack bool
	SuggestTags        bool
	GenerateVideo      bool
	VideoDuration      int
}

type SubmissionResult struct {
	Story    *model.Story         `json:"story"`
	Outcomes []EnhancementOutcome `json:"enhancements"`
	Warnings []string             `json:"warnings"`
	Badges   []*model.Badge       `json:"badges"`
	Tags     []string             `json:"tags"`
}

// enhancementResult is what one enhancement contributes to the final commit.
type enhancementResult struct {
	requested bool
	outcome   EnhancementOutcome
	ref       string
	object    *StoredObject
	tags      []string
}

type SubmissionService struct {
	registry  *capability.Registry
	storyRepo repository.StoryRepository
	tagRepo   repository.TagRepository
	tx        repository.TxRunner
	files     *FileService
	badges    *BadgeService
}

func NewSubmissionService(
	registry *capability.Registry,
	storyRepo repository.StoryRepository,
	tagRepo repository.TagRepository,
	tx repository.TxRunner,
	files *FileService,
	badges *BadgeService,
) *SubmissionService {
	return &SubmissionService{
		registry:  registry,
		storyRepo: storyRepo,
		tagRepo:   tagRepo,
		tx:        tx,
		files:     files,
		badges:    badges,
	}
}

// Submit persists a story, runs the requested enhancements and publishes it.
// Enhancement failures become warnings; only persistence errors fail the submission.
func (s *SubmissionService) Submit(ctx context.Context, in SubmissionInput) (*SubmissionResult, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Region = strings.TrimSpace(in.Region)
	in.Theme = strings.TrimSpace(in.Theme)

	err := validation.ValidateStory(in.Title, in.Content, in.Region, in.Theme)
	if err != nil {
		return nil, err
	}

	// A client disconnect must not abort a submission that already wrote its draft
	ctx = context.WithoutCancel(ctx)

	now := time.Now()
	story := &model.Story{
		ID:        uuid.New().String(),
		UserID:    in.UserID,
		Title:     in.Title,
		Content:   in.Content,
		Region:    in.Region,
		Theme:     in.Theme,
		Status:    model.StoryStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.storyRepo.Create(story)
	if err != nil {
		metrics.Submissions.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to create story: %w", err)
	}

	results := s.enhance(ctx, story, in)

	result := &SubmissionResult{
		Warnings: []string{},
		Outcomes: []EnhancementOutcome{},
		Badges:   []*model.Badge{},
	}

	var (
		objects   []StoredObject
		suggested []string
	)
	for i, name := range enhancementOrder {
		r := results[i]
		if !r.requested {
			continue
		}
		result.Outcomes = append(result.Outcomes, r.outcome)
		if r.outcome.Status != StatusSucceeded {
			result.Warnings = append(result.Warnings, r.outcome.Message)
			continue
		}

		if r.object != nil {
			objects = append(objects, *r.object)
		}
		if r.ref != "" {
			ref := r.ref
			switch name {
			case EnhancementMedia:
				story.MediaRef = &ref
			case EnhancementImage:
				story.ImageRef = &ref
			case EnhancementAudio:
				story.AudioRef = &ref
			case EnhancementSoundtrack:
				story.SoundtrackRef = &ref
			case EnhancementVideo:
				story.VideoRef = &ref
			}
		}
		if name == EnhancementTags {
			suggested = r.tags
		}
	}

	result.Tags = MergeTags(ParseTags(in.Tags), suggested)

	tags, err := s.commit(story, result.Tags, objects)
	if err != nil {
		s.compensate(ctx, story, objects)
		metrics.Submissions.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to publish story: %w", err)
	}

	slog.Info("story published",
		"story_id", story.ID,
		"user_id", story.UserID,
		"tags", len(tags),
		"warnings", len(result.Warnings),
	)

	awarded, err := s.badges.Evaluate(ctx, story.UserID)
	if err != nil {
		slog.Error("failed to evaluate badges", "error", err, "user_id", story.UserID, "story_id", story.ID)
		result.Warnings = append(result.Warnings, "Badge evaluation failed; badges will be checked again later")
	} else {
		result.Badges = awarded
	}

	published, err := s.storyRepo.ByID(story.ID)
	if err != nil {
		slog.Warn("failed to reload published story", "error", err, "story_id", story.ID)
		published = story
	}
	published.Tags = tags
	s.files.ResolveURLs(published)
	result.Story = published

	outcome := "published"
	if len(result.Warnings) > 0 {
		outcome = "published_with_warnings"
	}
	metrics.Submissions.WithLabelValues(outcome).Inc()

	return result, nil
}

// enhance runs the requested enhancements concurrently. Results are indexed by enhancementOrder.
func (s *SubmissionService) enhance(ctx context.Context, story *model.Story, in SubmissionInput) []enhancementResult {
	results := make([]enhancementResult, len(enhancementOrder))

	runs := map[Enhancement]func(context.Context) enhancementResult{}
	if in.Media != nil && len(in.Media.Data) > 0 {
		runs[EnhancementMedia] = func(ctx context.Context) enhancementResult { return s.uploadMedia(ctx, story, in.Media) }
	}
	if in.GenerateImage {
		runs[EnhancementImage] = func(ctx context.Context) enhancementResult { return s.illustrate(ctx, story, in.ImageStyle) }
	}
	if in.GenerateAudio {
		runs[EnhancementAudio] = func(ctx context.Context) enhancementResult { return s.narrate(ctx, story, in.Voice) }
	}
	if in.GenerateSoundtrack {
		runs[EnhancementSoundtrack] = func(ctx context.Context) enhancementResult { return s.soundtrack(ctx, story) }
	}
	if in.SuggestTags {
		runs[EnhancementTags] = func(ctx context.Context) enhancementResult { return s.suggestTags(ctx, story) }
	}
	if in.GenerateVideo {
		runs[EnhancementVideo] = func(ctx context.Context) enhancementResult { return s.video(ctx, story, in.VideoDuration) }
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range enhancementOrder {
		run, ok := runs[name]
		if !ok {
			continue
		}
		g.Go(func() error {
			results[i] = run(gctx)
			results[i].requested = true
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (s *SubmissionService) uploadMedia(ctx context.Context, story *model.Story, media *MediaUpload) enhancementResult {
	out, err := invoke[adapter.StorageInput, adapter.StorageOutput](ctx, s.registry, capability.Storage, adapter.StorageInput{
		Folder:      "stories/media",
		Filename:    media.Filename,
		ContentType: media.ContentType,
		Body:        media.Data,
	})
	if err != nil {
		return failed(EnhancementMedia, story, err)
	}

	return enhancementResult{
		outcome: succeeded(EnhancementMedia),
		ref:     out.Key,
		object: &StoredObject{
			Type:         model.FileTypeMedia,
			Key:          out.Key,
			OriginalName: media.Filename,
			MimeType:     media.ContentType,
			Size:         out.Size,
		},
	}
}

func (s *SubmissionService) illustrate(ctx context.Context, story *model.Story, style string) enhancementResult {
	out, err := invoke[adapter.ImageInput, adapter.ImageOutput](ctx, s.registry, capability.Image, adapter.ImageInput{
		Prompt: illustrationPrompt(story),
		Style:  style,
	})
	if err != nil {
		return failed(EnhancementImage, story, err)
	}

	return enhancementResult{outcome: succeeded(EnhancementImage), ref: out.URL}
}

func (s *SubmissionService) narrate(ctx context.Context, story *model.Story, voice string) enhancementResult {
	if !s.registry.IsAvailable(capability.Storage) {
		return failed(EnhancementAudio, story, ErrCapabilityUnavailable)
	}

	out, err := invoke[adapter.AudioInput, adapter.AudioOutput](ctx, s.registry, capability.Audio, adapter.AudioInput{
		Text:  story.Title + ".\n\n" + story.Content,
		Voice: voice,
	})
	if err != nil {
		return failed(EnhancementAudio, story, err)
	}

	return s.storeAudio(ctx, EnhancementAudio, model.FileTypeAudio, story, out)
}

func (s *SubmissionService) soundtrack(ctx context.Context, story *model.Story) enhancementResult {
	if !s.registry.IsAvailable(capability.Storage) {
		return failed(EnhancementSoundtrack, story, ErrCapabilityUnavailable)
	}

	out, err := invoke[adapter.SoundtrackInput, adapter.SoundtrackOutput](ctx, s.registry, capability.Soundtrack, adapter.SoundtrackInput{
		Region: story.Region,
		Theme:  story.Theme,
		Title:  story.Title,
	})
	if err != nil {
		return failed(EnhancementSoundtrack, story, err)
	}

	return s.storeAudio(ctx, EnhancementSoundtrack, model.FileTypeSoundtrack, story, out.AudioOutput)
}

// storeAudio uploads generated audio so the story can reference it by storage key.
func (s *SubmissionService) storeAudio(ctx context.Context, name Enhancement, fileType string, story *model.Story, audio adapter.AudioOutput) enhancementResult {
	filename := fileType + ".mp3"
	out, err := invoke[adapter.StorageInput, adapter.StorageOutput](ctx, s.registry, capability.Storage, adapter.StorageInput{
		Folder:      "stories/" + fileType,
		Filename:    filename,
		ContentType: audio.ContentType,
		Body:        audio.Data,
	})
	if err != nil {
		return failed(name, story, err)
	}

	return enhancementResult{
		outcome: succeeded(name),
		ref:     out.Key,
		object: &StoredObject{
			Type:         fileType,
			Key:          out.Key,
			OriginalName: filename,
			MimeType:     audio.ContentType,
			Size:         out.Size,
		},
	}
}

func (s *SubmissionService) suggestTags(ctx context.Context, story *model.Story) enhancementResult {
	tags, err := invoke[adapter.TagInput, []string](ctx, s.registry, capability.Tag, adapter.TagInput{
		Title:   story.Title,
		Content: story.Content,
		Region:  story.Region,
	})
	if err != nil {
		return failed(EnhancementTags, story, err)
	}

	return enhancementResult{outcome: succeeded(EnhancementTags), tags: tags}
}

func (s *SubmissionService) video(ctx context.Context, story *model.Story, duration int) enhancementResult {
	out, err := invoke[adapter.VideoInput, adapter.VideoOutput](ctx, s.registry, capability.Video, adapter.VideoInput{
		Title:       story.Title,
		Description: story.Excerpt(400),
		Duration:    duration,
	})
	if err != nil {
		return failed(EnhancementVideo, story, err)
	}

	return enhancementResult{outcome: succeeded(EnhancementVideo), ref: out.URL}
}

// commit publishes the story with its references, tags and file rows in one transaction.
func (s *SubmissionService) commit(story *model.Story, tagNames []string, objects []StoredObject) ([]*model.Tag, error) {
	var tags []*model.Tag

	err := s.tx.InTx(func(tx repository.Querier) error {
		tags = tags[:0]

		story.Status = model.StoryStatusPublished
		err := s.storyRepo.WithTx(tx).Finalize(story)
		if err != nil {
			return fmt.Errorf("failed to finalize story: %w", err)
		}

		tagRepo := s.tagRepo.WithTx(tx)
		for _, name := range tagNames {
			tag, err := tagRepo.Upsert(name, model.TagCategoryGeneral)
			if err != nil {
				return fmt.Errorf("failed to upsert tag %q: %w", name, err)
			}
			err = tagRepo.Attach(story.ID, tag.ID)
			if err != nil {
				return fmt.Errorf("failed to attach tag %q: %w", name, err)
			}
			tags = append(tags, tag)
		}

		return s.files.Record(tx, story.UserID, story.ID, objects)
	})
	if err != nil {
		story.Status = model.StoryStatusDraft
		return nil, err
	}

	return tags, nil
}

// compensate removes the draft story and any objects uploaded for it.
func (s *SubmissionService) compensate(ctx context.Context, story *model.Story, objects []StoredObject) {
	err := s.storyRepo.Delete(story.ID)
	if err != nil && !errors.Is(err, repository.ErrStoryNotFound) {
		slog.Error("failed to delete draft story", "error", err, "story_id", story.ID)
	}

	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		keys = append(keys, obj.Key)
	}
	s.files.DeleteObjects(ctx, keys)
}

func succeeded(name Enhancement) EnhancementOutcome {
	return EnhancementOutcome{Enhancement: name, Status: StatusSucceeded}
}

func failed(name Enhancement, story *model.Story, err error) enhancementResult {
	label := enhancementLabels[name]

	if errors.Is(err, ErrCapabilityUnavailable) {
		slog.Warn("enhancement skipped", "enhancement", name, "story_id", story.ID)
		return enhancementResult{outcome: EnhancementOutcome{
			Enhancement: name,
			Status:      StatusSkipped,
			Message:     label + " skipped: the service is currently unavailable",
		}}
	}

	slog.Warn("enhancement failed", "enhancement", name, "story_id", story.ID, "error", err)

	msg := err.Error()
	var capErr *CapabilityError
	if errors.As(err, &capErr) {
		msg = capErr.Message
	}
	return enhancementResult{outcome: EnhancementOutcome{
		Enhancement: name,
		Status:      StatusFailed,
		Message:     label + " failed: " + msg,
	}}
}

func illustrationPrompt(story *model.Story) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s, a story from %s", story.Title, story.Region)
	if story.Theme != "" {
		fmt.Fprintf(&b, " about %s", strings.ToLower(story.Theme))
	}
	b.WriteString(". ")
	b.WriteString(story.Excerpt(400))
	return b.String()
}
