package handlers

import (
	"ihfiction/app/server/domain"
	"ihfiction/app/server/models"
	"ihfiction/app/server/shaping"
	"time"
)

// 响应对象；字段名即稀疏字段集里可请求的名字

type UserResponse struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Roles    []string `json:"roles"`
	IsAuthor bool     `json:"isAuthor"`
}

type AuthorResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type StorySummary struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	OwnerID     string     `json:"ownerId"`
	Tags        []string   `json:"tags"`
	PublishedAt *time.Time `json:"publishedAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type StoryResponse struct {
	ID          string                           `json:"id"`
	Title       string                           `json:"title"`
	Description string                           `json:"description"`
	OwnerID     string                           `json:"ownerId"`
	Authors     []shaping.Linked[AuthorResponse] `json:"authors"`
	Tags        []string                         `json:"tags"`
	Books       []shaping.Linked[BookSummary]    `json:"books"`
	Chapters    []shaping.Linked[ChapterSummary] `json:"chapters"`
	PublishedAt *time.Time                       `json:"publishedAt"`
	UpdatedAt   time.Time                        `json:"updatedAt"`
	Permissions domain.StoryPermissions          `json:"permissions"`
}

type BookSummary struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Order       int        `json:"order"`
	PublishedAt *time.Time `json:"publishedAt"`
}

type BookResponse struct {
	ID          string                           `json:"id"`
	Title       string                           `json:"title"`
	Description string                           `json:"description"`
	Order       int                              `json:"order"`
	StoryID     string                           `json:"storyId"`
	Chapters    []shaping.Linked[ChapterSummary] `json:"chapters"`
	PublishedAt *time.Time                       `json:"publishedAt"`
	UpdatedAt   time.Time                        `json:"updatedAt"`
}

type ChapterSummary struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Order       int        `json:"order"`
	PublishedAt *time.Time `json:"publishedAt"`
}

type ChapterResponse struct {
	ID          string                  `json:"id"`
	Title       string                  `json:"title"`
	Order       int                     `json:"order"`
	StoryID     string                  `json:"storyId"`
	BookID      *string                 `json:"bookId"`
	PublishedAt *time.Time              `json:"publishedAt"`
	UpdatedAt   time.Time               `json:"updatedAt"`
	Permissions domain.StoryPermissions `json:"permissions"`
}

type ContentResponse struct {
	Content   string    `json:"content"`
	Note      string    `json:"note,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type TagResponse struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Value    string `json:"value"`
}

// 模型到响应对象的映射

func tagValues(tags []models.Tag) []string {
	values := make([]string, 0, len(tags))
	for _, tag := range tags {
		values = append(values, tag.Category+":"+tag.Value)
	}
	return values
}

func (a *App) authorResponse(author *models.Author) AuthorResponse {
	res := AuthorResponse{
		ID:        author.ID,
		Name:      author.Name,
		CreatedAt: author.CreatedAt,
	}
	if author.Profile != nil {
		res.Bio = author.Profile.Bio
	}
	return res
}

func (a *App) linkedAuthor(author *models.Author) shaping.Linked[AuthorResponse] {
	return shaping.NewLinked(a.authorResponse(author), a.links.AuthorLinks(author.ID))
}

func (a *App) storySummary(story *models.Story) StorySummary {
	return StorySummary{
		ID:          story.ID,
		Title:       story.Title,
		Description: story.Description,
		OwnerID:     story.OwnerID,
		Tags:        tagValues(story.Tags),
		PublishedAt: story.PublishedAt,
		UpdatedAt:   story.UpdatedAt,
	}
}

func (a *App) chapterSummary(chapter *models.Chapter) ChapterSummary {
	return ChapterSummary{
		ID:          chapter.ID,
		Title:       chapter.Title,
		Order:       chapter.Order,
		PublishedAt: chapter.PublishedAt,
	}
}

func (a *App) bookSummary(book *models.Book) BookSummary {
	return BookSummary{
		ID:          book.ID,
		Title:       book.Title,
		Order:       book.Order,
		PublishedAt: book.PublishedAt,
	}
}

// storyResponse 详情形状；嵌套的作者 / 分卷 / 章节都带上自己的 links
func (a *App) storyResponse(story *models.Story, perms domain.StoryPermissions) StoryResponse {
	res := StoryResponse{
		ID:          story.ID,
		Title:       story.Title,
		Description: story.Description,
		OwnerID:     story.OwnerID,
		Tags:        tagValues(story.Tags),
		PublishedAt: story.PublishedAt,
		UpdatedAt:   story.UpdatedAt,
		Permissions: perms,
	}

	for i := range story.Authors {
		res.Authors = append(res.Authors, a.linkedAuthor(&story.Authors[i]))
	}
	for i := range story.Books {
		book := &story.Books[i]
		res.Books = append(res.Books, shaping.NewLinked(a.bookSummary(book), a.links.BookLinks(book, perms)))
	}
	for i := range story.Chapters {
		chapter := &story.Chapters[i]
		// 摘要里的章节链接按故事权限给出；章节自身的权限在章节端点上另行计算
		res.Chapters = append(res.Chapters, shaping.NewLinked(a.chapterSummary(chapter), a.links.ChapterLinks(chapter, domain.ComputeStoryPermissions(false, false))))
	}

	return res
}

func (a *App) chapterResponse(chapter *models.Chapter, perms domain.StoryPermissions) ChapterResponse {
	return ChapterResponse{
		ID:          chapter.ID,
		Title:       chapter.Title,
		Order:       chapter.Order,
		StoryID:     chapter.StoryID,
		BookID:      chapter.BookID,
		PublishedAt: chapter.PublishedAt,
		UpdatedAt:   chapter.UpdatedAt,
		Permissions: perms,
	}
}

func (a *App) bookResponse(book *models.Book, perms domain.StoryPermissions) BookResponse {
	res := BookResponse{
		ID:          book.ID,
		Title:       book.Title,
		Description: book.Description,
		Order:       book.Order,
		StoryID:     book.StoryID,
		PublishedAt: book.PublishedAt,
		UpdatedAt:   book.UpdatedAt,
	}
	for i := range book.Chapters {
		chapter := &book.Chapters[i]
		res.Chapters = append(res.Chapters, shaping.NewLinked(a.chapterSummary(chapter), a.links.ChapterLinks(chapter, domain.ComputeStoryPermissions(false, false))))
	}
	return res
}
