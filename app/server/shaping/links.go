package shaping

import (
	"fmt"
	"ihfiction/app/server/domain"
	"ihfiction/app/server/models"
	"net/http"
	"net/url"
)

// LinkBuilder 产生指向本服务各资源的超媒体链接
type LinkBuilder struct {
	base string // 对外的基础路径，可以为空
}

func NewLinkBuilder(base string) *LinkBuilder {
	return &LinkBuilder{base: base}
}

func (b *LinkBuilder) href(format string, args ...any) string {
	return b.base + fmt.Sprintf(format, args...)
}

func (b *LinkBuilder) AuthorLinks(id string) []Link {
	return []Link{
		{Href: b.href("/authors/%s", id), Rel: "self", Method: http.MethodGet},
		{Href: b.href("/stories?authorId=%s", id), Rel: "stories", Method: http.MethodGet},
	}
}

func (b *LinkBuilder) StoryLinks(story *models.Story, perms domain.StoryPermissions) []Link {
	links := []Link{
		{Href: b.href("/stories/%s", story.ID), Rel: "self", Method: http.MethodGet},
		{Href: b.href("/stories/%s/chapters", story.ID), Rel: "chapters", Method: http.MethodGet},
		{Href: b.href("/stories/%s/books", story.ID), Rel: "books", Method: http.MethodGet},
	}

	if story.WorkBodyID != "" {
		links = append(links, Link{Href: b.href("/stories/%s/content", story.ID), Rel: "content", Method: http.MethodGet})
	}

	if perms.CanEdit {
		links = append(links,
			Link{Href: b.href("/stories/%s", story.ID), Rel: "edit", Method: http.MethodPut},
			Link{Href: b.href("/stories/%s/content", story.ID), Rel: "edit-content", Method: http.MethodPut},
			Link{Href: b.href("/stories/%s/tags", story.ID), Rel: "edit-tags", Method: http.MethodPut},
		)
	}
	if perms.CanDelete {
		links = append(links, Link{Href: b.href("/stories/%s", story.ID), Rel: "delete", Method: http.MethodDelete})
	}
	if perms.CanPublish {
		if story.PublishedAt == nil {
			links = append(links, Link{Href: b.href("/stories/%s/publish", story.ID), Rel: "publish", Method: http.MethodPost})
		} else {
			links = append(links, Link{Href: b.href("/stories/%s/publish", story.ID), Rel: "unpublish", Method: http.MethodDelete})
		}
	}

	return links
}

func (b *LinkBuilder) ChapterLinks(chapter *models.Chapter, perms domain.StoryPermissions) []Link {
	links := []Link{
		{Href: b.href("/chapters/%s", chapter.ID), Rel: "self", Method: http.MethodGet},
		{Href: b.href("/stories/%s", chapter.StoryID), Rel: "story", Method: http.MethodGet},
	}

	if chapter.WorkBodyID != "" {
		links = append(links, Link{Href: b.href("/chapters/%s/content", chapter.ID), Rel: "content", Method: http.MethodGet})
	}

	if perms.CanEdit {
		links = append(links,
			Link{Href: b.href("/chapters/%s", chapter.ID), Rel: "edit", Method: http.MethodPut},
			Link{Href: b.href("/chapters/%s/content", chapter.ID), Rel: "edit-content", Method: http.MethodPut},
		)
	}
	if perms.CanDelete {
		links = append(links, Link{Href: b.href("/chapters/%s", chapter.ID), Rel: "delete", Method: http.MethodDelete})
	}
	if perms.CanPublish {
		if chapter.PublishedAt == nil {
			links = append(links, Link{Href: b.href("/chapters/%s/publish", chapter.ID), Rel: "publish", Method: http.MethodPost})
		} else {
			links = append(links, Link{Href: b.href("/chapters/%s/publish", chapter.ID), Rel: "unpublish", Method: http.MethodDelete})
		}
	}

	return links
}

func (b *LinkBuilder) BookLinks(book *models.Book, perms domain.StoryPermissions) []Link {
	links := []Link{
		{Href: b.href("/books/%s", book.ID), Rel: "self", Method: http.MethodGet},
		{Href: b.href("/books/%s/chapters", book.ID), Rel: "chapters", Method: http.MethodGet},
		{Href: b.href("/stories/%s", book.StoryID), Rel: "story", Method: http.MethodGet},
	}

	if perms.CanEdit {
		links = append(links, Link{Href: b.href("/books/%s", book.ID), Rel: "edit", Method: http.MethodPut})
	}
	if perms.CanDelete {
		links = append(links, Link{Href: b.href("/books/%s", book.ID), Rel: "delete", Method: http.MethodDelete})
	}

	return links
}

// PageLinks 集合级链接： self 加上前后页
func (b *LinkBuilder) PageLinks(path string, query url.Values, page int, totalPages int64) []Link {
	pageQuery := func(p int) string {
		q := url.Values{}
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		q.Set("page", fmt.Sprint(p))
		return b.base + path + "?" + q.Encode()
	}

	links := []Link{
		{Href: pageQuery(page), Rel: "self", Method: http.MethodGet},
	}
	if page > 1 {
		links = append(links, Link{Href: pageQuery(page - 1), Rel: "prev", Method: http.MethodGet})
	}
	if int64(page) < totalPages {
		links = append(links, Link{Href: pageQuery(page + 1), Rel: "next", Method: http.MethodGet})
	}

	return links
}
