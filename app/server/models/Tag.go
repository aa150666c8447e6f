package models

type Tag struct {
	Base

	Category string `gorm:"column:category;uniqueIndex:idx_tags_category_value"` // 标签分类，例如 genre / rating / status
	Value    string `gorm:"column:value;uniqueIndex:idx_tags_category_value"`    // 标签值
}
