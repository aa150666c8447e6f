package inits

import (
	"fmt"
	"ihfiction/app/server/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func DB(conn string) (db *gorm.DB, err error) {
	// 打开连接
	if db, err = gorm.Open(postgres.Open(conn), &gorm.Config{}); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 迁移
	if err = mig(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// 初始化启动数据
	if err = initData(db); err != nil {
		return nil, fmt.Errorf("failed to init data into database: %w", err)
	}

	// 返回
	return db, nil
}

func mig(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Author{},
		&models.Profile{},
		&models.Story{},
		&models.Book{},
		&models.Chapter{},
		&models.Tag{},
	)
}

func initData(db *gorm.DB) (err error) {
	// 查询现有记录数量
	var counter int64

	// 初始化标签
	if err = db.Model(&models.Tag{}).Count(&counter).Error; err != nil {
		return fmt.Errorf("failed to get tag count: %w", err)
	} else if counter == 0 { // 没有任何标签，添加初始标签
		// 插入记录
		if err = db.Create([]*models.Tag{
			{Category: "genre", Value: "fantasy"},
			{Category: "genre", Value: "science-fiction"},
			{Category: "genre", Value: "romance"},
			{Category: "genre", Value: "mystery"},
			{Category: "rating", Value: "general"},
			{Category: "rating", Value: "teen"},
			{Category: "rating", Value: "mature"},
			{Category: "status", Value: "ongoing"},
			{Category: "status", Value: "completed"},
		}).Error; err != nil {
			return fmt.Errorf("failed to create initial tags: %w", err)
		}
	}

	// 已有数据或全部导入成功
	return nil
}
