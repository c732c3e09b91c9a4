package validation

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
)

// FileConstraints defines validation rules for uploads
type FileConstraints struct {
	AllowedMimeTypes  map[string]bool
	AllowedExtensions map[string]bool
	MaxSize           int64
}

var (
	// MediaConstraints covers the image, audio and video files a story may carry
	MediaConstraints = FileConstraints{
		AllowedMimeTypes: map[string]bool{
			"image/jpeg": true,
			"image/png":  true,
			"image/gif":  true,
			"image/webp": true,
			"audio/mpeg": true,
			"audio/wave": true,
			"video/mp4":  true,
			"video/webm": true,
		},
		AllowedExtensions: map[string]bool{
			".jpg":  true,
			".jpeg": true,
			".png":  true,
			".gif":  true,
			".webp": true,
			".mp3":  true,
			".wav":  true,
			".mp4":  true,
			".webm": true,
		},
		MaxSize: 50 << 20, // 50MB
	}

	// MarkdownConstraints covers story import files
	MarkdownConstraints = FileConstraints{
		AllowedMimeTypes: map[string]bool{
			"text/plain; charset=utf-8": true,
		},
		AllowedExtensions: map[string]bool{
			".md":       true,
			".markdown": true,
			".txt":      true,
		},
		MaxSize: 1 << 20, // 1MB
	}
)

// ValidateFile checks an uploaded file's size, detected content type and extension.
// It returns the detected MIME type.
func ValidateFile(filename string, data []byte, constraints FileConstraints) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("file is empty")
	}

	if int64(len(data)) > constraints.MaxSize {
		maxMB := constraints.MaxSize / (1 << 20)
		return "", fmt.Errorf("file too large: maximum size is %d MB", maxMB)
	}

	// Detect from magic numbers; the client's Content-Type header is not trusted
	detectedType := http.DetectContentType(data)
	if !constraints.AllowedMimeTypes[detectedType] {
		return "", fmt.Errorf("invalid file type (detected: %s)", detectedType)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !constraints.AllowedExtensions[ext] {
		return "", fmt.Errorf("invalid file extension: %s", ext)
	}

	return detectedType, nil
}
