package services

import (
	"context"
	"errors"
	"ihfiction/app/server/domain"
	"ihfiction/app/server/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Authorization 把请求主体解析为作者并计算目标作品的权限
type Authorization struct {
	l      *zap.Logger
	loader *Loader
	users  *Users
}

func NewAuthorization(l *zap.Logger, loader *Loader, users *Users) *Authorization {
	return &Authorization{l: l, loader: loader, users: users}
}

type StoryAuthResult struct {
	Story       *models.Story
	Author      *models.Author // 请求主体对应的作者，可能为 nil
	Permissions domain.StoryPermissions
}

type ChapterAuthResult struct {
	Chapter     *models.Chapter
	Author      *models.Author
	Permissions domain.StoryPermissions
}

type BookAuthResult struct {
	Book        *models.Book
	Story       *models.Story
	Author      *models.Author
	Permissions domain.StoryPermissions
}

// permissionsFor 由拥有者与协作者集合推导请求主体的权限
func permissionsFor(ownerID string, collaborators []models.Author, author *models.Author) domain.StoryPermissions {
	if author == nil {
		return domain.ComputeStoryPermissions(false, false)
	}

	isOwner := ownerID == author.ID
	isCollaborator := false
	for _, collaborator := range collaborators {
		if collaborator.ID == author.ID {
			isCollaborator = true
			break
		}
	}

	return domain.ComputeStoryPermissions(isOwner, isCollaborator)
}

// accessError 选择与缺失权限对应的错误
func accessError(perms domain.StoryPermissions, level domain.StoryAccessLevel) *domain.Error {
	switch level {
	case domain.AccessLevelRead, domain.AccessLevelEdit:
		return domain.ErrCollaboratorRequired
	case domain.AccessLevelDelete, domain.AccessLevelPublish:
		if perms.CanEdit {
			// 协作者想做只有拥有者能做的事
			return domain.ErrOwnerOnlyOperation
		}
		return domain.ErrInsufficientPermissions
	default:
		return domain.ErrInsufficientPermissions
	}
}

// resolveAuthor subject 为空（匿名）时返回 nil
func (s *Authorization) resolveAuthor(ctx context.Context, subject string) (*models.Author, *domain.Error) {
	if subject == "" {
		return nil, nil
	}
	return s.users.AuthorBySubject(ctx, subject)
}

// AuthorizeStory 加载故事并检查要求的访问级别；已发布的故事任何人可读
func (s *Authorization) AuthorizeStory(ctx context.Context, subject string, storyID string, level domain.StoryAccessLevel, opts LoadOptions) (*StoryAuthResult, *domain.Error) {
	author, derr := s.resolveAuthor(ctx, subject)
	if derr != nil {
		return nil, derr
	}

	story, err := s.loader.StoryWithAuthors(ctx, storyID, opts)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound("Story", storyID)
		}
		s.l.Error("failed to load story", zap.String("id", storyID), zap.Error(err))
		return nil, domain.Database("Query", err)
	}

	perms := permissionsFor(story.OwnerID, story.Authors, author)

	if !perms.Allows(level) {
		// 已发布的作品任何人可读
		if !(level == domain.AccessLevelRead && story.PublishedAt != nil) {
			return nil, accessError(perms, level)
		}
	}

	return &StoryAuthResult{Story: story, Author: author, Permissions: perms}, nil
}

// AuthorizeChapter 章节使用自身的拥有者与协作者集合，不从故事继承
func (s *Authorization) AuthorizeChapter(ctx context.Context, subject string, chapterID string, level domain.StoryAccessLevel, opts LoadOptions) (*ChapterAuthResult, *domain.Error) {
	author, derr := s.resolveAuthor(ctx, subject)
	if derr != nil {
		return nil, derr
	}

	chapter, err := s.loader.ChapterWithAuthors(ctx, chapterID, opts)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound("Chapter", chapterID)
		}
		s.l.Error("failed to load chapter", zap.String("id", chapterID), zap.Error(err))
		return nil, domain.Database("Query", err)
	}

	perms := permissionsFor(chapter.OwnerID, chapter.Authors, author)

	if !perms.Allows(level) {
		if !(level == domain.AccessLevelRead && chapter.PublishedAt != nil) {
			return nil, accessError(perms, level)
		}
	}

	return &ChapterAuthResult{Chapter: chapter, Author: author, Permissions: perms}, nil
}

// AuthorizeBook 分卷的权限完全取自所属故事
func (s *Authorization) AuthorizeBook(ctx context.Context, subject string, bookID string, level domain.StoryAccessLevel, opts LoadOptions) (*BookAuthResult, *domain.Error) {
	author, derr := s.resolveAuthor(ctx, subject)
	if derr != nil {
		return nil, derr
	}

	book, err := s.loader.Book(ctx, bookID, opts)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound("Book", bookID)
		}
		s.l.Error("failed to load book", zap.String("id", bookID), zap.Error(err))
		return nil, domain.Database("Query", err)
	}

	story, err := s.loader.StoryWithAuthors(ctx, book.StoryID, opts)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound("Story", book.StoryID)
		}
		s.l.Error("failed to load story for book", zap.String("id", book.StoryID), zap.Error(err))
		return nil, domain.Database("Query", err)
	}

	perms := permissionsFor(story.OwnerID, story.Authors, author)

	if !perms.Allows(level) {
		if !(level == domain.AccessLevelRead && book.PublishedAt != nil && story.PublishedAt != nil) {
			return nil, accessError(perms, level)
		}
	}

	return &BookAuthResult{Book: book, Story: story, Author: author, Permissions: perms}, nil
}
