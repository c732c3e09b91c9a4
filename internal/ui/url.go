package ui

import (
	"net/url"
	"strconv"

	"github.com/templui/storyloom/internal/service"
)

func galleryURL(f service.GalleryFilter, page int) string {
	q := url.Values{}
	if f.Region != "" {
		q.Set("region", f.Region)
	}
	if f.Theme != "" {
		q.Set("theme", f.Theme)
	}
	if f.Tag != "" {
		q.Set("tag", f.Tag)
	}
	if f.Sort != "" {
		q.Set("sort", f.Sort)
	}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	if len(q) == 0 {
		return "/gallery"
	}
	return "/gallery?" + q.Encode()
}
