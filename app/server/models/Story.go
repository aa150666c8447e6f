package models

import "time"

type Story struct {
	Base

	// 基础信息
	Title       string `gorm:"column:title;index"`
	Description string `gorm:"column:description"`

	// 所有权：单一拥有者 + 协作者集合
	OwnerID string   `gorm:"column:owner_id;index"`
	Authors []Author `gorm:"many2many:story_authors"` // 协作者（含拥有者）

	// 标签
	Tags []Tag `gorm:"many2many:story_tags"`

	// 发布状态， NULL 表示草稿
	PublishedAt *time.Time `gorm:"column:published_at"`

	// 正文在 MongoDB 中的 ObjectID （单体故事使用，多章节故事为空）
	WorkBodyID string `gorm:"column:work_body_id"`

	// 连接模型时使用
	Owner    *Author   `gorm:"foreignKey:OwnerID"`
	Books    []Book    `gorm:"foreignKey:StoryID"`
	Chapters []Chapter `gorm:"foreignKey:StoryID"`
}
