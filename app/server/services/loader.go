package services

import (
	"context"
	"ihfiction/app/server/models"

	"gorm.io/gorm"
)

// Loader 故事聚合的加载器，提供三种固定的加载形状而不是通用查询构造器
type Loader struct {
	db *gorm.DB
}

type LoadOptions struct {
	IncludeDeleted bool // 连同软删除记录一起查询
}

func NewLoader(db *gorm.DB) *Loader {
	return &Loader{db: db}
}

func (ld *Loader) query(ctx context.Context, opts LoadOptions) *gorm.DB {
	q := ld.db.WithContext(ctx)
	if opts.IncludeDeleted {
		q = q.Unscoped()
	}
	return q
}

func ordered(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC")
}

// StoryWithAuthors 只带拥有者与协作者，权限判定用
func (ld *Loader) StoryWithAuthors(ctx context.Context, id string, opts LoadOptions) (*models.Story, error) {
	var story models.Story
	if err := ld.query(ctx, opts).
		Preload("Owner").
		Preload("Authors").
		First(&story, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &story, nil
}

// StoryFull 详情页使用的完整形状
func (ld *Loader) StoryFull(ctx context.Context, id string, opts LoadOptions) (*models.Story, error) {
	var story models.Story
	if err := ld.query(ctx, opts).
		Preload("Owner").
		Preload("Authors").
		Preload("Tags").
		Preload("Books", ordered).
		Preload("Books.Chapters", ordered).
		Preload("Chapters", ordered).
		First(&story, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &story, nil
}

// StoryForConversion 单体故事转多章节时使用的形状，只关心正文引用与既有结构
func (ld *Loader) StoryForConversion(ctx context.Context, id string, opts LoadOptions) (*models.Story, error) {
	var story models.Story
	if err := ld.query(ctx, opts).
		Preload("Books", ordered).
		Preload("Chapters", ordered).
		First(&story, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &story, nil
}

// ChapterWithAuthors 章节及其自身的协作者集合
func (ld *Loader) ChapterWithAuthors(ctx context.Context, id string, opts LoadOptions) (*models.Chapter, error) {
	var chapter models.Chapter
	if err := ld.query(ctx, opts).
		Preload("Authors").
		First(&chapter, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &chapter, nil
}

// Book 分卷本身不携带权限信息，权限取所属故事
func (ld *Loader) Book(ctx context.Context, id string, opts LoadOptions) (*models.Book, error) {
	var book models.Book
	if err := ld.query(ctx, opts).
		Preload("Chapters", ordered).
		First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}
