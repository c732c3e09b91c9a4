package ui

import (
	"html/template"

	"github.com/a-h/templ"
	"github.com/templui/storyloom/internal/model"
	"github.com/templui/storyloom/internal/service"
)

type HomeData struct {
	Recent      []*model.Story
	PopularTags []*model.Tag
	Regions     []string
}

func Home(data HomeData) templ.Component {
	return page("home", "Share the stories of your culture", data)
}

type GalleryData struct {
	Page        *service.GalleryPage
	Filter      service.GalleryFilter
	Regions     []string
	Themes      []string
	PopularTags []*model.Tag
}

// PageURL keeps the current filters and switches the page.
func (d GalleryData) PageURL(page int) string {
	return galleryURL(d.Filter, page)
}

func Gallery(data GalleryData) templ.Component {
	return page("gallery", "Gallery", data)
}

type StoryData struct {
	Story         *model.Story
	ContentHTML   template.HTML
	Comments      []*model.Comment
	Reactions     []model.ReactionCount
	IsOwner       bool
	ExportFormats []string
	Reactable     []string
}

func StoryDetail(data StoryData) templ.Component {
	return page("story", data.Story.Title, data)
}

// SubmitForm echoes the submitted values back after a failed submission.
type SubmitForm struct {
	Title              string
	Content            string
	Region             string
	Theme              string
	Tags               string
	GenerateImage      bool
	ImageStyle         string
	GenerateAudio      bool
	Voice              string
	GenerateSoundtrack bool
	SuggestTags        bool
	GenerateVideo      bool
}

type SubmitData struct {
	Form         SubmitForm
	Errors       map[string]string
	Error        string
	Regions      []string
	Themes       []string
	Voices       []string
	Capabilities map[string]bool
	Result       *service.SubmissionResult
}

func Submit(data SubmitData) templ.Component {
	return page("submit", "Share a story", data)
}

type AuthData struct {
	Username   string
	Email      string
	Identifier string
	Next       string
	Error      string
}

func Login(data AuthData) templ.Component {
	return page("login", "Log in", data)
}

func Register(data AuthData) templ.Component {
	return page("register", "Create an account", data)
}

type ProfileData struct {
	Profile *model.User
	Stories *service.GalleryPage
	Badges  []*model.EarnedBadge
	IsSelf  bool
}

func Profile(data ProfileData) templ.Component {
	return page("profile", data.Profile.Username, data)
}

func NotFound() templ.Component {
	return page("notfound", "Not found", nil)
}
