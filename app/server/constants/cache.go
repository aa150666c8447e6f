package constants

import "time"

const (
	CacheKeyKeycloakAdminToken = "fiction:keycloak:admin-token:%s" // 管理客户端 ID
	CacheKeyKeycloakRoleID     = "fiction:keycloak:role-id:%s"     // 角色名
	CacheKeyStoryList          = "fiction:story:published:%d:%d"   // 页码，每页数量
)

const (
	CacheExpireKeycloakRoleID = 12 * time.Hour
	CacheExpireStoryList      = 1 * time.Minute
)
