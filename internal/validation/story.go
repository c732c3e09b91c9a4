package validation

import (
	"fmt"
	"unicode/utf8"
)

const (
	MaxTitleLength   = 200
	MaxContentLength = 20000
	MaxCommentLength = 2000
	MaxLabelLength   = 100
)

// FieldErrors maps form fields to messages.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	for _, field := range []string{"title", "content", "region", "theme"} {
		if msg, ok := e[field]; ok {
			return msg
		}
	}
	for _, msg := range e {
		return msg
	}
	return "invalid input"
}

// ValidateStory checks trimmed story fields. Theme is optional.
func ValidateStory(title, content, region, theme string) error {
	errs := FieldErrors{}

	switch {
	case title == "":
		errs["title"] = "title is required"
	case utf8.RuneCountInString(title) > MaxTitleLength:
		errs["title"] = fmt.Sprintf("title is too long (max %d characters)", MaxTitleLength)
	}

	switch {
	case content == "":
		errs["content"] = "story content is required"
	case utf8.RuneCountInString(content) > MaxContentLength:
		errs["content"] = fmt.Sprintf("story is too long (max %d characters)", MaxContentLength)
	}

	switch {
	case region == "":
		errs["region"] = "region is required"
	case utf8.RuneCountInString(region) > MaxLabelLength:
		errs["region"] = fmt.Sprintf("region is too long (max %d characters)", MaxLabelLength)
	}

	if utf8.RuneCountInString(theme) > MaxLabelLength {
		errs["theme"] = fmt.Sprintf("theme is too long (max %d characters)", MaxLabelLength)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateComment checks a trimmed comment body.
func ValidateComment(content string) error {
	if content == "" {
		return FieldErrors{"content": "comment cannot be empty"}
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return FieldErrors{"content": fmt.Sprintf("comment is too long (max %d characters)", MaxCommentLength)}
	}
	return nil
}
