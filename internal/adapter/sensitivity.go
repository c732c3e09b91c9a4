package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/templui/storyloom/internal/capability"
)

const minSensitivityRating = 7

type SensitivityInput struct {
	Content string
	Region  string
	Theme   string
}

type SensitivityIssue struct {
	Type        string `json:"type"`
	Severity    string `json:"severity,omitempty"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion"`
}

type SensitivityOutput struct {
	Rating          int                `json:"overall_rating"`
	Issues          []SensitivityIssue `json:"issues"`
	PositiveAspects []string           `json:"positive_aspects"`
	Suggestions     string             `json:"improvement_suggestions"`
	HasIssues       bool               `json:"has_issues"`
}

// SensitivityAdapter reviews text for stereotyping, appropriation and misrepresentation.
type SensitivityAdapter struct {
	capability.Base
	llm llm
}

func NewSensitivityAdapter(client ChatClient, model string, retry capability.RetryPolicy) *SensitivityAdapter {
	return &SensitivityAdapter{
		Base: capability.NewBase(capability.Sensitivity, client != nil),
		llm:  newLLM(client, model, retry),
	}
}

func (a *SensitivityAdapter) Invoke(ctx context.Context, in SensitivityInput) capability.Result[SensitivityOutput] {
	start := time.Now()
	return capability.Observe(a.Name(), start, a.check(ctx, in))
}

func (a *SensitivityAdapter) check(ctx context.Context, in SensitivityInput) capability.Result[SensitivityOutput] {
	if !a.IsAvailable() {
		return capability.Fail[SensitivityOutput](capability.ErrUnavailable)
	}
	if strings.TrimSpace(in.Content) == "" {
		return capability.Failf[SensitivityOutput]("no content provided")
	}

	content, err := a.llm.complete(ctx, a.Name(), chatRequest{
		System: "You are a cultural sensitivity expert with deep knowledge of global cultures, traditions and social norms. " +
			"Analyze content for cultural appropriation, stereotyping, misrepresentation of traditions, " +
			"inappropriate language or terminology and historical inaccuracies.",
		User: fmt.Sprintf("Analyze this content about %s from %s:\n\n%s\n\n"+
			"Respond in JSON with the structure "+
			`{"overall_rating": 1-10 (10 being most culturally sensitive), `+
			`"issues": [{"type": "...", "severity": "minor|moderate|major|severe|critical", "description": "...", "suggestion": "..."}], `+
			`"positive_aspects": ["..."], "improvement_suggestions": "..."}`,
			orDefault(in.Theme, "an unknown theme"), orDefault(in.Region, "an unknown region"), in.Content),
		Temperature: 0.3,
		JSON:        true,
	})
	if err != nil {
		slog.Error("sensitivity check failed", "error", err)
		return capability.Failf[SensitivityOutput]("failed to complete sensitivity analysis: %v", err)
	}

	out, err := parseSensitivity(content)
	if err != nil {
		slog.Error("sensitivity check returned invalid JSON", "error", err)
		return capability.Failf[SensitivityOutput]("failed to complete sensitivity analysis: %v", err)
	}

	return capability.OK(out)
}

func parseSensitivity(content string) (SensitivityOutput, error) {
	var out SensitivityOutput
	err := json.Unmarshal([]byte(content), &out)
	if err != nil {
		return SensitivityOutput{}, fmt.Errorf("invalid sensitivity response: %w", err)
	}
	if out.Issues == nil {
		out.Issues = []SensitivityIssue{}
	}
	out.HasIssues = hasSeriousIssues(out)
	return out, nil
}

// hasSeriousIssues is true when the rating is below the threshold or any issue is critical, severe or major.
func hasSeriousIssues(out SensitivityOutput) bool {
	if out.Rating < minSensitivityRating {
		return true
	}
	for _, issue := range out.Issues {
		for _, level := range []string{issue.Severity, issue.Type} {
			switch strings.ToLower(strings.TrimSpace(level)) {
			case "critical", "severe", "major":
				return true
			}
		}
	}
	return false
}
