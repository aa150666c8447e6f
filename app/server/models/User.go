package models

import "github.com/lib/pq"

type User struct {
	Base

	// 基础信息
	Subject string `gorm:"column:subject;uniqueIndex"` // 身份提供方的 subject ，全局唯一
	Name    string `gorm:"column:name"`                // 显示名称

	// 从身份提供方同步的角色
	Roles pq.StringArray `gorm:"column:roles;type:text[]"`
}
