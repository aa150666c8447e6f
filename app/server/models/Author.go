package models

// Author 晋升后的用户，与 User 共享主键（ authors.id = users.id ）
type Author struct {
	Base

	Name string `gorm:"column:name"` // 显示名称，晋升时从 User 复制

	// 连接模型时使用
	Profile *Profile `gorm:"foreignKey:ID;references:ID"` // 简介，同样共享主键
	Stories []Story  `gorm:"foreignKey:OwnerID"`          // 拥有的故事
}

// Profile 作者简介，与 Author 共享主键；
// 作者记录被移除后可能残留（孤儿简介），再次晋升时会被原样保留
type Profile struct {
	Base

	Bio string `gorm:"column:bio"` // 简介正文
}
