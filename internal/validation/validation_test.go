package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		username string
		want     error
	}{
		{"mei_lin", nil},
		{"abc", nil},
		{"", ErrUsernameRequired},
		{"ab", ErrUsernameLength},
		{strings.Repeat("a", 31), ErrUsernameLength},
		{"mei lin", ErrUsernameChars},
		{"Mei", ErrUsernameChars},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			assert.ErrorIs(t, ValidateUsername(tt.username), tt.want)
		})
	}
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("mei@example.com"))
	assert.ErrorIs(t, ValidateEmail(""), ErrEmailRequired)
	assert.ErrorIs(t, ValidateEmail("not-an-email"), ErrEmailInvalid)
	assert.ErrorIs(t, ValidateEmail("Mei <mei@example.com>"), ErrEmailInvalid)
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("river-lantern-7"))
	assert.ErrorIs(t, ValidatePassword("short"), ErrPasswordShort)
	assert.ErrorIs(t, ValidatePassword(strings.Repeat("x", 73)), ErrPasswordLong)
	assert.ErrorIs(t, ValidatePassword("mypassword1"), ErrPasswordCommon)
}

func TestValidateStory(t *testing.T) {
	require.NoError(t, ValidateStory("Diwali", "Lamps everywhere", "Asia", ""))

	err := ValidateStory("", "", "", "")
	require.Error(t, err)

	var fields FieldErrors
	require.True(t, errors.As(err, &fields))
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "content")
	assert.Contains(t, fields, "region")
	assert.Equal(t, "title is required", err.Error())

	err = ValidateStory(strings.Repeat("t", MaxTitleLength+1), "c", "Asia", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title is too long")
}

func TestValidateComment(t *testing.T) {
	assert.NoError(t, ValidateComment("Beautiful story"))
	assert.Error(t, ValidateComment(""))
	assert.Error(t, ValidateComment(strings.Repeat("c", MaxCommentLength+1)))
}

func TestValidateFile(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	mime, err := ValidateFile("photo.PNG", png, MediaConstraints)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	_, err = ValidateFile("photo.exe", png, MediaConstraints)
	assert.ErrorContains(t, err, "invalid file extension")

	_, err = ValidateFile("notes.png", []byte("just text"), MediaConstraints)
	assert.ErrorContains(t, err, "invalid file type")

	_, err = ValidateFile("empty.png", nil, MediaConstraints)
	assert.Error(t, err)

	mime, err = ValidateFile("story.md", []byte("---\ntitle: Diwali\n---\nLamps"), MarkdownConstraints)
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=utf-8", mime)
}
