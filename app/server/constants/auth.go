package constants

import "time"

const (
	// AuthorRoleName 身份提供方 realm 里的作者角色名，拥有该角色才能写入作品
	AuthorRoleName = "author"

	// AdminTokenSafetyMargin 管理令牌缓存在到期前提前失效的余量
	AdminTokenSafetyMargin = 30 * time.Second
)
