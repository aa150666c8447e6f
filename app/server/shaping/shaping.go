package shaping

import (
	"fmt"
	"ihfiction/app/server/domain"
	"reflect"
	"strings"
	"sync"
)

// Shaper 按请求裁剪响应字段（稀疏字段集）；
// 每个响应类型的可用字段通过反射计算一次后缓存
type Shaper struct {
	cache sync.Map // reflect.Type -> *fieldSet
}

type field struct {
	jsonName string
	index    []int
}

type fieldSet struct {
	byKey map[string]field // 小写的 Go 字段名 / JSON 名 -> 字段
}

func NewShaper() *Shaper {
	return &Shaper{}
}

// ParseFields 解析逗号分隔的字段列表
func ParseFields(raw string) []string {
	if raw == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (s *Shaper) fieldsFor(t reflect.Type) *fieldSet {
	if cached, ok := s.cache.Load(t); ok {
		return cached.(*fieldSet)
	}

	fs := &fieldSet{byKey: map[string]field{}}
	for _, sf := range reflect.VisibleFields(t) {
		if !sf.IsExported() || sf.Anonymous {
			continue
		}

		jsonName := sf.Name
		if tag, ok := sf.Tag.Lookup("json"); ok {
			name, _, _ := strings.Cut(tag, ",")
			if name == "-" {
				continue
			}
			if name != "" {
				jsonName = name
			}
		}

		// links 字段始终附加，不参与裁剪
		if strings.EqualFold(jsonName, "links") {
			continue
		}

		f := field{jsonName: jsonName, index: sf.Index}
		fs.byKey[strings.ToLower(sf.Name)] = f
		fs.byKey[strings.ToLower(jsonName)] = f
	}

	s.cache.Store(t, fs)
	return fs
}

// Validate 在用例执行前校验请求的字段名是否全部存在于响应类型上
func (s *Shaper) Validate(prototype any, rawFields string) *domain.Error {
	requested := ParseFields(rawFields)
	if len(requested) == 0 {
		return nil
	}

	t := reflect.TypeOf(prototype)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	fs := s.fieldsFor(t)

	for _, name := range requested {
		// links 始终包含在响应里，请求它不算错
		if strings.EqualFold(name, "links") {
			continue
		}
		if _, ok := fs.byKey[strings.ToLower(name)]; !ok {
			return domain.Validation("UnknownField", fmt.Sprintf("field %q does not exist on the response", name))
		}
	}

	return nil
}

// Shape 生成只包含请求字段的动态投影； links 字段始终包含。
// 传入 Linked 信封时内部字段与 links 平铺在同一层
func (s *Shaper) Shape(v any, rawFields string) any {
	requested := ParseFields(rawFields)
	if len(requested) == 0 {
		return v
	}

	var links []Link
	if env, ok := v.(envelope); ok {
		v, links = env.envelopeParts()
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return v
	}

	fs := s.fieldsFor(rv.Type())

	out := map[string]any{}
	for _, name := range requested {
		if f, ok := fs.byKey[strings.ToLower(name)]; ok {
			out[f.jsonName] = rv.FieldByIndex(f.index).Interface()
		}
	}

	if links == nil {
		links = []Link{}
	}
	out["links"] = links

	return out
}

// ShapePage 对分页集合逐项裁剪；分页元数据与集合级 links 保持不变
func ShapePage[T any](s *Shaper, col LinkedPagedCollection[T], rawFields string) any {
	if len(ParseFields(rawFields)) == 0 {
		return col
	}

	items := make([]any, 0, len(col.Items))
	for _, item := range col.Items {
		items = append(items, s.Shape(item, rawFields))
	}

	return map[string]any{
		"items":      items,
		"page":       col.Page,
		"pageSize":   col.PageSize,
		"totalCount": col.TotalCount,
		"totalPages": col.TotalPages,
		"links":      col.Links,
	}
}
