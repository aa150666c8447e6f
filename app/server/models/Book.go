package models

import "time"

// Book 故事下的分卷，权限完全继承自所属故事
type Book struct {
	Base

	Title       string `gorm:"column:title"`
	Description string `gorm:"column:description"`
	Order       int    `gorm:"column:sort_order"` // 在故事内的顺序

	StoryID string `gorm:"column:story_id;index"`

	// 发布状态， NULL 表示草稿
	PublishedAt *time.Time `gorm:"column:published_at"`

	// 连接模型时使用
	Chapters []Chapter `gorm:"foreignKey:BookID"`
}
