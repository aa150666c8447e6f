package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// Base 所有关系型实体的公共字段，主键使用 ULID 字符串
type Base struct {
	ID        string         `gorm:"column:id;primaryKey;size:26"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"` // 软删除
}

func (b *Base) BeforeCreate(_ *gorm.DB) error {
	// 共享主键的场景（例如晋升作者）会预先指定 ID
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}
