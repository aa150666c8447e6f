package main

import (
	"context"
	"fmt"
	"ihfiction/app/server/handlers"
	"ihfiction/app/server/inits"
	"ihfiction/app/server/keycloak"
	"ihfiction/app/server/oidc"
	"ihfiction/app/server/services"
	"log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// 初始化配置
	cfg, err := inits.Config()
	if err != nil {
		log.Fatal(fmt.Errorf("error loading config: %w", err))
	}

	// 初始化日志
	l, err := inits.Logger(!cfg.System.IsProd)
	if err != nil {
		log.Fatal(fmt.Errorf("error initializing logger: %w", err))
	}

	// 切换日志系统
	l.Debug("logger initialized")

	// 初始化数据库连接
	db, err := inits.DB(cfg.System.DBConnectionString)
	if err != nil {
		l.Fatal("error initializing DB connection", zap.Error(err))
	}

	// 初始化 mongo 连接
	mdb, err := inits.Mongo(cfg.System.MongoConnectionString, cfg.System.MongoDatabase)
	if err != nil {
		l.Fatal("error initializing Mongo connection", zap.Error(err))
	}

	// 初始化 redis 连接
	rdb, err := inits.Redis(cfg.System.RedisConnectionString)
	if err != nil {
		l.Fatal("error initializing Redis connection", zap.Error(err))
	}

	// 初始化 OIDC 校验器
	verifier, err := oidc.New(cfg.OIDC.PublicKeyPEM, cfg.OIDC.Issuer, cfg.OIDC.Audience)
	if err != nil {
		l.Fatal("error initializing OIDC verifier", zap.Error(err))
	}

	// Keycloak 管理客户端，令牌与角色 id 缓存在 redis 里
	kc := keycloak.NewAdmin(l, keycloak.NewRedisTokenCache(rdb), cfg.Keycloak.BaseURL, cfg.Keycloak.Realm, cfg.Keycloak.ClientID, cfg.Keycloak.ClientSecret)

	// 领域服务
	loader := services.NewLoader(db)
	users := services.NewUsers(l, db, kc)
	auth := services.NewAuthorization(l, loader, users)

	// 准备 handler app
	handlerApp := handlers.NewApp(l, db, mdb, rdb, auth, loader, users)

	// 清理上次运行残留的待删除正文
	if err := handlerApp.ReapPendingBodies(context.Background()); err != nil {
		l.Error("error reaping pending work bodies", zap.Error(err))
	}

	// 准备 echo 服务
	e := echo.New()
	e.Validator = handlers.NewValidator()
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			l.Info("request",
				zap.String("URI", v.URI),
				zap.Int("status", v.Status),
			)

			return nil
		},
	}))
	e.Use(middleware.Recover())

	// 绑定 echo 服务
	handlers.RegisterRoutes(e, handlerApp, verifier)

	// 启动 echo 服务
	if err := e.Start(cfg.System.Listen); err != nil {
		l.Fatal("shutting down the server", zap.Error(err))
	}
}
