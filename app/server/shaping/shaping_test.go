package shaping

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authorDTO struct {
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

func TestShape_SubsetWithLinks(t *testing.T) {
	s := NewShaper()

	linked := NewLinked(authorDTO{Name: "Ada", Bio: "writes fiction"}, []Link{
		{Href: "/authors/1", Rel: "self", Method: "GET"},
	})

	shaped := s.Shape(linked, "Name")

	m, ok := shaped.(map[string]any)
	require.True(t, ok)

	assert.Equal(t, "Ada", m["name"])
	assert.NotContains(t, m, "bio")
	assert.Len(t, m["links"], 1)
}

func TestShape_EmptyFieldsPassthrough(t *testing.T) {
	s := NewShaper()

	linked := NewLinked(authorDTO{Name: "Ada"}, nil)
	shaped := s.Shape(linked, "")

	assert.Equal(t, linked, shaped)
}

func TestValidate_UnknownField(t *testing.T) {
	s := NewShaper()

	derr := s.Validate(authorDTO{}, "name,unknown")
	require.NotNil(t, derr)
	assert.Equal(t, "Validation.UnknownField", derr.Code)

	assert.Nil(t, s.Validate(authorDTO{}, "Name,Bio"))
	assert.Nil(t, s.Validate(authorDTO{}, ""))
}

func TestValidate_LinksAlwaysAllowed(t *testing.T) {
	s := NewShaper()

	// links 始终包含在响应里，单独或混在字段集里请求都合法
	assert.Nil(t, s.Validate(authorDTO{}, "links"))
	assert.Nil(t, s.Validate(authorDTO{}, "name,links"))
	assert.Nil(t, s.Validate(authorDTO{}, "Links"))
}

func TestLinkedMarshalJSON_Flattens(t *testing.T) {
	linked := NewLinked(authorDTO{Name: "Ada", Bio: "bio"}, []Link{
		{Href: "/authors/1", Rel: "self", Method: "GET"},
	})

	raw, err := json.Marshal(linked)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))

	// 内部字段与 links 平铺在同一层
	assert.Equal(t, "Ada", m["name"])
	assert.Equal(t, "bio", m["bio"])
	assert.NotContains(t, m, "Value")
	links, ok := m["links"].([]any)
	require.True(t, ok)
	assert.Len(t, links, 1)
}

func TestLinkedMarshalJSON_NestedCollection(t *testing.T) {
	type storyDTO struct {
		Title    string             `json:"title"`
		Chapters []Linked[authorDTO] `json:"chapters"`
	}

	linked := NewLinked(storyDTO{
		Title: "A Story",
		Chapters: []Linked[authorDTO]{
			NewLinked(authorDTO{Name: "Chapter One"}, []Link{{Href: "/chapters/1", Rel: "self", Method: "GET"}}),
		},
	}, nil)

	raw, err := json.Marshal(linked)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))

	chapters, ok := m["chapters"].([]any)
	require.True(t, ok)
	require.Len(t, chapters, 1)

	// 每个列表元素都平铺出内部字段和自己的 links
	first, ok := chapters[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Chapter One", first["name"])
	assert.Len(t, first["links"], 1)
}

func TestShapePage(t *testing.T) {
	s := NewShaper()

	col := LinkedPagedCollection[authorDTO]{
		Items: []Linked[authorDTO]{
			NewLinked(authorDTO{Name: "Ada", Bio: "bio"}, nil),
		},
		Page:       1,
		PageSize:   20,
		TotalCount: 1,
		TotalPages: 1,
	}

	shaped := ShapePage(s, col, "name")

	m, ok := shaped.(map[string]any)
	require.True(t, ok)

	items, ok := m["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)

	item, ok := items[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Ada", item["name"])
	assert.NotContains(t, item, "bio")
}

func TestParseFields(t *testing.T) {
	assert.Nil(t, ParseFields(""))
	assert.Equal(t, []string{"name", "bio"}, ParseFields(" name , bio ,"))
}
