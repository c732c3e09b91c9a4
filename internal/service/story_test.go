package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/storyloom/internal/adapter"
	"github.com/templui/storyloom/internal/capability"
	"github.com/templui/storyloom/internal/markdown"
	"github.com/templui/storyloom/internal/repository"
	"github.com/templui/storyloom/internal/validation"
)

func TestGallery_Filters(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "mei")
	ctx := context.Background()

	inputs := []SubmissionInput{
		{UserID: user.ID, Title: "Lanterns", Content: "Paper lanterns.", Region: "Asia", Theme: "Festivals", Tags: "Lights"},
		{UserID: user.ID, Title: "Injera", Content: "Sourdough flatbread.", Region: "Africa", Theme: "Food"},
		{UserID: user.ID, Title: "Dumplings", Content: "Folded at midnight.", Region: "Asia", Theme: "Food"},
	}
	for _, in := range inputs {
		_, err := env.submission.Submit(ctx, in)
		require.NoError(t, err)
	}

	page, err := env.story.Gallery(GalleryFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, "Dumplings", page.Stories[0].Title)
	assert.Equal(t, "mei", page.Stories[0].AuthorName)

	page, err = env.story.Gallery(GalleryFilter{Region: "Asia"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = env.story.Gallery(GalleryFilter{Region: "Asia", Theme: "Food"})
	require.NoError(t, err)
	require.Len(t, page.Stories, 1)
	assert.Equal(t, "Dumplings", page.Stories[0].Title)

	page, err = env.story.Gallery(GalleryFilter{Tag: "LIGHTS"})
	require.NoError(t, err)
	require.Len(t, page.Stories, 1)
	assert.Equal(t, "Lanterns", page.Stories[0].Title)
	require.Len(t, page.Stories[0].Tags, 1)
	assert.Equal(t, "lights", page.Stories[0].Tags[0].Name)

	page, err = env.story.Gallery(GalleryFilter{PageSize: 2, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Stories, 1)
	assert.True(t, page.HasPrev())
	assert.False(t, page.HasNext())

	regions, err := env.story.Regions()
	require.NoError(t, err)
	assert.Contains(t, regions, "Asia")
	assert.Contains(t, regions, "Oceania")
}

func TestGallery_PopularSort(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "author")
	reader := env.createUser(t, "reader")

	older := env.submit(t, author.ID, "Older").Story
	env.submit(t, author.ID, "Newer")

	_, _, err := env.social.ToggleLike(context.Background(), older.ID, reader.ID)
	require.NoError(t, err)

	page, err := env.story.Gallery(GalleryFilter{Sort: repository.StorySortPopular})
	require.NoError(t, err)
	require.Len(t, page.Stories, 2)
	assert.Equal(t, "Older", page.Stories[0].Title)
	assert.Equal(t, 1, page.Stories[0].LikeCount)
}

func TestDelete_OwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	env.useStorage()
	author := env.createUser(t, "author")
	stranger := env.createUser(t, "stranger")
	ctx := context.Background()

	result, err := env.submission.Submit(ctx, SubmissionInput{
		UserID:  author.ID,
		Title:   "Kite Festival",
		Content: "Hundreds of kites over the beach.",
		Region:  "Asia",
		Media:   &MediaUpload{Filename: "kites.png", ContentType: "image/png", Data: []byte("png")},
	})
	require.NoError(t, err)
	require.Equal(t, 1, env.store.len())
	storyID := result.Story.ID

	err = env.story.Delete(ctx, storyID, stranger.ID)
	assert.ErrorIs(t, err, ErrNotStoryOwner)

	require.NoError(t, env.story.Delete(ctx, storyID, author.ID))

	_, err = env.story.ByID(storyID, author.ID)
	assert.ErrorIs(t, err, repository.ErrStoryNotFound)
	assert.Equal(t, 0, env.store.len())

	var files int
	require.NoError(t, env.db.Get(&files, `SELECT COUNT(*) FROM files`))
	assert.Equal(t, 0, files)
}

func TestImport_Markdown(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "amara")

	source := []byte(`---
title: The First Rain
region: Africa
theme: Folklore
tags: [Rain, baobab]
---

The elders say the first rain was a gift from the baobab.
`)

	result, err := env.story.Import(context.Background(), user.ID, source)
	require.NoError(t, err)
	assert.Equal(t, "The First Rain", result.Story.Title)
	assert.Equal(t, "Africa", result.Story.Region)
	assert.Equal(t, "Folklore", result.Story.Theme)
	assert.Equal(t, []string{"rain", "baobab"}, result.Tags)

	_, err = env.story.Import(context.Background(), user.ID, []byte("---\ntitle: Empty\nregion: Asia\n---\n"))
	var fields validation.FieldErrors
	assert.True(t, errors.As(err, &fields))

	_, err = env.story.Import(context.Background(), user.ID, []byte("# Untitled region\n\nNo region given."))
	assert.True(t, errors.As(err, &fields))
	assert.Contains(t, fields, "region")
}

func TestExport(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "lucia")
	story := env.submit(t, user.ID, "Carnaval").Story
	ctx := context.Background()

	_, err := env.story.Export(ctx, story.ID, "", adapter.FormatMD)
	assert.ErrorIs(t, err, ErrCapabilityUnavailable)

	env.registry.Register(ctx, capability.Export, func(context.Context) (capability.Capability, error) {
		return adapter.NewExportAdapter(markdown.NewParser()), nil
	})

	doc, err := env.story.Export(ctx, story.ID, "", "MD")
	require.NoError(t, err)
	assert.Contains(t, string(doc.Data), "title: Carnaval")
	assert.Contains(t, doc.Filename, ".md")

	_, err = env.story.Export(ctx, story.ID, "", "docx")
	var fields validation.FieldErrors
	assert.True(t, errors.As(err, &fields))
}
