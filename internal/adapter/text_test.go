package adapter

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/templui/storyloom/internal/capability"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
		wantErr bool
	}{
		{
			name:    "lowercases and trims",
			content: `{"tags": [" Diwali ", "LIGHTS"]}`,
			want:    []string{"diwali", "lights"},
		},
		{
			name:    "drops blanks and duplicates",
			content: `{"tags": ["food", "", "Food", "spice"]}`,
			want:    []string{"food", "spice"},
		},
		{
			name:    "caps at eight",
			content: `{"tags": ["a","b","c","d","e","f","g","h","i","j"]}`,
			want:    []string{"a", "b", "c", "d", "e", "f", "g", "h"},
		},
		{
			name:    "missing key",
			content: `{"labels": ["x"]}`,
			want:    []string{},
		},
		{
			name:    "not json",
			content: `diwali, lights`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTags(tt.content)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseTags() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTagAdapterSuggests(t *testing.T) {
	client := &mockChatClient{}
	client.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(chatResponse(`{"tags": ["Festival", "Lights"]}`), nil)

	a := NewTagAdapter(client, "", fastRetry(1))
	res := a.Invoke(context.Background(), TagInput{Title: "Diwali", Content: "Lamps everywhere", Region: "Asia"})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, []string{"festival", "lights"}, res.Payload)
}

func TestTagAdapterProviderFailure(t *testing.T) {
	client := &mockChatClient{}
	client.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(openai.ChatCompletionResponse{}, &openai.APIError{HTTPStatusCode: http.StatusBadRequest, Message: "bad"})

	a := NewTagAdapter(client, "", fastRetry(3))
	res := a.Invoke(context.Background(), TagInput{Content: "text"})

	assert.False(t, res.Success)
	client.AssertNumberOfCalls(t, "CreateChatCompletion", 1)
}

func TestHasSeriousIssues(t *testing.T) {
	tests := []struct {
		name string
		out  SensitivityOutput
		want bool
	}{
		{"high rating no issues", SensitivityOutput{Rating: 9}, false},
		{"low rating", SensitivityOutput{Rating: 6}, true},
		{"boundary rating", SensitivityOutput{Rating: 7}, false},
		{"minor issue", SensitivityOutput{Rating: 8, Issues: []SensitivityIssue{{Type: "terminology", Severity: "minor"}}}, false},
		{"major severity", SensitivityOutput{Rating: 8, Issues: []SensitivityIssue{{Type: "stereotyping", Severity: "Major"}}}, true},
		{"critical type", SensitivityOutput{Rating: 9, Issues: []SensitivityIssue{{Type: "critical"}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hasSeriousIssues(tt.out))
		})
	}
}

func TestSensitivityAdapterParsesAnalysis(t *testing.T) {
	client := &mockChatClient{}
	client.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(chatResponse(`{
		"overall_rating": 8,
		"issues": [{"type": "terminology", "severity": "severe", "description": "outdated term", "suggestion": "use the local name"}],
		"positive_aspects": ["authentic food"],
		"improvement_suggestions": "name the dish"
	}`), nil)

	a := NewSensitivityAdapter(client, "", fastRetry(1))
	res := a.Invoke(context.Background(), SensitivityInput{Content: "story", Region: "Asia", Theme: "Food"})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, 8, res.Payload.Rating)
	assert.True(t, res.Payload.HasIssues)
	assert.Equal(t, []string{"authentic food"}, res.Payload.PositiveAspects)
	require.Len(t, res.Payload.Issues, 1)
	assert.Equal(t, "use the local name", res.Payload.Issues[0].Suggestion)
}

func TestSensitivityAdapterInvalidJSON(t *testing.T) {
	client := &mockChatClient{}
	client.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(chatResponse(`looks fine`), nil)

	a := NewSensitivityAdapter(client, "", fastRetry(1))
	res := a.Invoke(context.Background(), SensitivityInput{Content: "story"})

	assert.False(t, res.Success)
}

func TestParseResources(t *testing.T) {
	text := "Here are some resources\n" +
		"1. **Diwali**: The festival of lights\n" +
		"- Rangoli: Floor art made from colored powder\n" +
		"Empty:\n"

	want := []LearningResource{
		{Topic: "Diwali", Description: "The festival of lights"},
		{Topic: "Rangoli", Description: "Floor art made from colored powder"},
	}
	if diff := cmp.Diff(want, parseResources(text)); diff != "" {
		t.Errorf("parseResources() mismatch (-want +got):\n%s", diff)
	}
}

func TestCulturalContextAdapterToleratesResourceFailure(t *testing.T) {
	client := &mockChatClient{}
	client.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(chatResponse("Deep analysis"), nil).Once()
	client.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(openai.ChatCompletionResponse{}, &openai.APIError{HTTPStatusCode: http.StatusBadRequest}).Once()

	a := NewCulturalContextAdapter(client, "", fastRetry(1))
	res := a.Invoke(context.Background(), ContextInput{Content: "story", Region: "Europe", Theme: "Music"})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "Deep analysis", res.Payload.Analysis)
	assert.Empty(t, res.Payload.Resources)
}

func TestStoryAdapterGenerates(t *testing.T) {
	client := &mockChatClient{}
	client.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return strings.Contains(req.Messages[1].Content, "Oceania") &&
			strings.Contains(req.Messages[1].Content, "canoe, stars")
	})).Return(chatResponse(`{"title": "Wayfinders", "content": "The canoe left at dawn.", "image_prompt": "A canoe under stars"}`), nil)

	a := NewStoryAdapter(client, "", fastRetry(1))
	res := a.Invoke(context.Background(), StoryInput{Theme: "Traditions", Region: "Oceania", Keywords: []string{"canoe", "stars"}})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "Wayfinders", res.Payload.Title)
	assert.Equal(t, "A canoe under stars", res.Payload.ImagePrompt)
}

func TestStoryAdapterRequiresRegion(t *testing.T) {
	client := &mockChatClient{}
	a := NewStoryAdapter(client, "", fastRetry(1))

	res := a.Invoke(context.Background(), StoryInput{Theme: "Food"})

	assert.False(t, res.Success)
	client.AssertNotCalled(t, "CreateChatCompletion", mock.Anything, mock.Anything)
}

func TestParseScenes(t *testing.T) {
	text := "1. A village at dawn\n\n2) Drums in the square\n- Lanterns rise\nExtra scene"

	scenes := parseScenes(text, 3)

	want := []Scene{
		{Index: 1, Description: "A village at dawn"},
		{Index: 2, Description: "Drums in the square"},
		{Index: 3, Description: "Lanterns rise"},
	}
	if diff := cmp.Diff(want, scenes); diff != "" {
		t.Errorf("parseScenes() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseScenes_KeepsLeadingNumbers(t *testing.T) {
	text := "1. 1920s Shanghai street at dusk\n2. 3 sisters light lanterns\n* 108 steps to the temple\n12 drummers march"

	scenes := parseScenes(text, 5)

	want := []Scene{
		{Index: 1, Description: "1920s Shanghai street at dusk"},
		{Index: 2, Description: "3 sisters light lanterns"},
		{Index: 3, Description: "108 steps to the temple"},
		{Index: 4, Description: "12 drummers march"},
	}
	if diff := cmp.Diff(want, scenes); diff != "" {
		t.Errorf("parseScenes() mismatch (-want +got):\n%s", diff)
	}
}

type fakeImages struct {
	capability.Base
	mu    sync.Mutex
	calls []ImageInput
	fail  string
}

func (f *fakeImages) Invoke(_ context.Context, in ImageInput) capability.Result[ImageOutput] {
	f.mu.Lock()
	f.calls = append(f.calls, in)
	f.mu.Unlock()

	if strings.Contains(in.Prompt, f.fail) {
		return capability.Fail[ImageOutput](errors.New("content policy"))
	}
	return capability.OK(ImageOutput{URL: "https://img.example/" + in.Prompt[len(in.Prompt)-1:]})
}

func TestStoryboardAdapterIllustratesScenes(t *testing.T) {
	client := &mockChatClient{}
	client.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(chatResponse("Scene A\nScene B\nScene C"), nil)

	images := &fakeImages{Base: capability.NewBase(capability.Image, true), fail: "Scene B"}
	a := NewStoryboardAdapter(client, "", fastRetry(1), images)

	res := a.Invoke(context.Background(), StoryboardInput{Content: "story", Scenes: 3})

	require.True(t, res.Success, res.Error)
	require.Len(t, res.Payload.Scenes, 3)
	assert.Equal(t, "https://img.example/A", res.Payload.Scenes[0].ImageURL)
	assert.Empty(t, res.Payload.Scenes[1].ImageURL)
	assert.Equal(t, "https://img.example/C", res.Payload.Scenes[2].ImageURL)

	require.Len(t, images.calls, 3)
	for _, call := range images.calls {
		assert.Equal(t, openai.CreateImageSize512x512, call.Size)
		assert.True(t, call.Raw)
	}
}

func TestStoryboardAdapterClampsSceneCount(t *testing.T) {
	client := &mockChatClient{}
	client.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return strings.Contains(req.Messages[1].Content, "into 8 key visual scenes")
	})).Return(chatResponse(strings.Repeat("scene\n", 12)), nil)

	a := NewStoryboardAdapter(client, "", fastRetry(1), nil)
	res := a.Invoke(context.Background(), StoryboardInput{Content: "story", Scenes: 20})

	require.True(t, res.Success, res.Error)
	assert.Len(t, res.Payload.Scenes, MaxStoryboardScenes)
	assert.Empty(t, res.Payload.Scenes[0].ImageURL)
}
