package services

import (
	"context"
	"ihfiction/app/server/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoryFull_PreloadsAggregates(t *testing.T) {
	db := newTestDB(t)
	_, loader, _ := testServices(t, db, nil)
	ctx := context.Background()

	owner := seedAuthor(t, db, "owner", "Ada")
	story := seedStory(t, db, owner)

	var tag models.Tag
	require.NoError(t, db.Create(&models.Tag{Category: "genre", Value: "fantasy"}).Error)
	require.NoError(t, db.First(&tag, "value = ?", "fantasy").Error)
	require.NoError(t, db.Model(story).Association("Tags").Append(&tag))

	book := models.Book{Title: "Book One", StoryID: story.ID, Order: 1}
	require.NoError(t, db.Create(&book).Error)

	// 倒序建两个章节，验证加载时按 sort_order 排序
	second := models.Chapter{Title: "Two", StoryID: story.ID, OwnerID: owner.ID, Order: 2}
	require.NoError(t, db.Create(&second).Error)
	first := models.Chapter{Title: "One", StoryID: story.ID, OwnerID: owner.ID, Order: 1}
	require.NoError(t, db.Create(&first).Error)

	loaded, err := loader.StoryFull(ctx, story.ID, LoadOptions{})
	require.NoError(t, err)

	require.NotNil(t, loaded.Owner)
	assert.Equal(t, owner.ID, loaded.Owner.ID)
	require.Len(t, loaded.Tags, 1)
	assert.Equal(t, "fantasy", loaded.Tags[0].Value)
	require.Len(t, loaded.Books, 1)
	require.Len(t, loaded.Chapters, 2)
	assert.Equal(t, "One", loaded.Chapters[0].Title)
	assert.Equal(t, "Two", loaded.Chapters[1].Title)
}

func TestStoryWithAuthors_OnlyAuthors(t *testing.T) {
	db := newTestDB(t)
	_, loader, _ := testServices(t, db, nil)

	owner := seedAuthor(t, db, "owner", "Ada")
	collaborator := seedAuthor(t, db, "collab", "Grace")
	story := seedStory(t, db, owner, collaborator)

	loaded, err := loader.StoryWithAuthors(context.Background(), story.ID, LoadOptions{})
	require.NoError(t, err)

	assert.Len(t, loaded.Authors, 2)
	assert.Empty(t, loaded.Tags)
	assert.Empty(t, loaded.Chapters)
}

func TestStoryForConversion_Shape(t *testing.T) {
	db := newTestDB(t)
	_, loader, _ := testServices(t, db, nil)

	owner := seedAuthor(t, db, "owner", "Ada")
	story := seedStory(t, db, owner)
	require.NoError(t, db.Model(story).Update("work_body_id", "656e6f7567682062797465733f").Error)

	chapter := models.Chapter{Title: "One", StoryID: story.ID, OwnerID: owner.ID, Order: 1}
	require.NoError(t, db.Create(&chapter).Error)

	loaded, err := loader.StoryForConversion(context.Background(), story.ID, LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "656e6f7567682062797465733f", loaded.WorkBodyID)
	assert.Len(t, loaded.Chapters, 1)
	assert.Empty(t, loaded.Authors)
}
