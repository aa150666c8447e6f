package handlers

import (
	"fmt"
	"ihfiction/app/server/constants"
	"ihfiction/app/server/domain"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// listParams 列表端点的通用查询参数
type listParams struct {
	page     int
	pageSize int
	sort     string
	q        string
	fields   string
}

func parseListParams(c echo.Context) listParams {
	p := listParams{
		page:     1,
		pageSize: constants.DefaultPageSize,
		sort:     c.QueryParam("sort"),
		q:        c.QueryParam("q"),
		fields:   c.QueryParam("fields"),
	}

	if raw := c.QueryParam("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page > 0 {
			p.page = page
		}
	}

	if raw := c.QueryParam("pageSize"); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil && size > 0 {
			p.pageSize = size
		}
	}
	if p.pageSize > constants.MaxPageSize {
		p.pageSize = constants.MaxPageSize
	}

	return p
}

func (p listParams) offset() int {
	return (p.page - 1) * p.pageSize
}

// buildOrder 把 sort 参数翻译为 SQL 排序表达式；字段必须在白名单里，
// 前缀 - 表示倒序
func buildOrder(sort string, allowed map[string]string, fallback string) (string, *domain.Error) {
	if sort == "" {
		return fallback, nil
	}

	var exprs []string
	for _, part := range strings.Split(sort, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		desc := strings.HasPrefix(part, "-")
		key := strings.TrimPrefix(part, "-")

		column, ok := allowed[key]
		if !ok {
			return "", domain.Validation("UnknownSortField", fmt.Sprintf("cannot sort by %q", key))
		}

		if desc {
			exprs = append(exprs, column+" DESC")
		} else {
			exprs = append(exprs, column+" ASC")
		}
	}

	if len(exprs) == 0 {
		return fallback, nil
	}
	return strings.Join(exprs, ", "), nil
}

func calcTotalPages(count int64, pageSize int) int64 {
	pages := count / int64(pageSize)
	if (count % int64(pageSize)) != 0 {
		pages++
	}
	return pages
}
