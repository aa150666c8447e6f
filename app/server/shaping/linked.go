package shaping

import "encoding/json"

// Link 超媒体链接
type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

// Linked 带链接的响应信封；序列化时内部字段与 links 平铺在同一层
type Linked[T any] struct {
	Value T
	Links []Link
}

func NewLinked[T any](value T, links []Link) Linked[T] {
	return Linked[T]{Value: value, Links: links}
}

// envelope 供反射投影使用的非导出接口
type envelope interface {
	envelopeParts() (any, []Link)
}

func (l Linked[T]) envelopeParts() (any, []Link) {
	return l.Value, l.Links
}

func (l Linked[T]) MarshalJSON() ([]byte, error) {
	// 先序列化内部值，再把 links 平铺进去
	raw, err := json.Marshal(l.Value)
	if err != nil {
		return nil, err
	}

	fields := map[string]json.RawMessage{}
	if err = json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	links := l.Links
	if links == nil {
		links = []Link{}
	}
	linksRaw, err := json.Marshal(links)
	if err != nil {
		return nil, err
	}
	fields["links"] = linksRaw

	return json.Marshal(fields)
}

// LinkedPagedCollection 分页集合信封
type LinkedPagedCollection[T any] struct {
	Items      []Linked[T] `json:"items"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalCount int64       `json:"totalCount"`
	TotalPages int64       `json:"totalPages"`
	Links      []Link      `json:"links"`
}
