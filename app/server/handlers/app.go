package handlers

import (
	"ihfiction/app/server/domain"
	"ihfiction/app/server/services"
	"ihfiction/app/server/shaping"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	l   *zap.Logger     // 日志
	db  *gorm.DB        // 元数据（ Postgres ）
	mdb *mongo.Database // 作品正文（ MongoDB ）
	rdb *redis.Client   // Redis

	auth   *services.Authorization
	loader *services.Loader
	users  *services.Users

	shaper *shaping.Shaper
	links  *shaping.LinkBuilder
}

func NewApp(l *zap.Logger, db *gorm.DB, mdb *mongo.Database, rdb *redis.Client, auth *services.Authorization, loader *services.Loader, users *services.Users) *App {
	return &App{
		l:      l,
		db:     db,
		mdb:    mdb,
		rdb:    rdb,
		auth:   auth,
		loader: loader,
		users:  users,
		shaper: shaping.NewShaper(),
		links:  shaping.NewLinkBuilder(""),
	}
}

// Validator echo 请求校验器
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{v: validator.New()}
}

func (v *Validator) Validate(i interface{}) error {
	return v.v.Struct(i)
}

// bind 绑定并校验请求体
func (a *App) bind(c echo.Context, req any) *domain.Error {
	if err := c.Bind(req); err != nil {
		return domain.Validation("Bind", "malformed request body")
	}
	if err := c.Validate(req); err != nil {
		return domain.Validation("Request", err.Error())
	}
	return nil
}
