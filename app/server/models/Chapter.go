package models

import "time"

// Chapter 章节；权限使用自身的拥有者与协作者集合，不从所属故事继承
type Chapter struct {
	Base

	Title string `gorm:"column:title"`
	Order int    `gorm:"column:sort_order"` // 在故事（或分卷）内的顺序

	StoryID string  `gorm:"column:story_id;index"`
	BookID  *string `gorm:"column:book_id;index"` // NULL 表示直接挂在故事下

	// 所有权
	OwnerID string   `gorm:"column:owner_id;index"`
	Authors []Author `gorm:"many2many:chapter_authors"` // 协作者（含拥有者）

	// 发布状态， NULL 表示草稿
	PublishedAt *time.Time `gorm:"column:published_at"`

	// 正文在 MongoDB 中的 ObjectID
	WorkBodyID string `gorm:"column:work_body_id"`
}
