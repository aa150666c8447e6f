package inits

import (
	"fmt"
	"ihfiction/app/server/config"
	"os"
	"strings"
)

func Config() (cfg *config.Config, err error) {
	// 手动配置映射，如果这里有什么自动映射工具就好了， viper 好像处理这种基于环境变量的配置也不是很方便
	cfg = &config.Config{}

	{
		mode, exist := os.LookupEnv("MODE")
		cfg.System.IsProd = exist && strings.HasPrefix(strings.ToLower(mode), "p")
	}

	if listen, exist := os.LookupEnv("LISTEN"); !exist {
		cfg.System.Listen = ":1323" // 默认监听地址
	} else {
		cfg.System.Listen = listen
	}

	if dbconn, exist := os.LookupEnv("DB_CONN"); !exist {
		return nil, fmt.Errorf("DB_CONN environment variable not set")
	} else {
		cfg.System.DBConnectionString = dbconn
	}

	if mongoconn, exist := os.LookupEnv("MONGO_CONN"); !exist {
		return nil, fmt.Errorf("MONGO_CONN environment variable not set")
	} else {
		cfg.System.MongoConnectionString = mongoconn
	}

	if mongodb, exist := os.LookupEnv("MONGO_DB"); !exist {
		cfg.System.MongoDatabase = "ihfiction" // 默认数据库名
	} else {
		cfg.System.MongoDatabase = mongodb
	}

	if redisconn, exist := os.LookupEnv("REDIS_CONN"); !exist {
		return nil, fmt.Errorf("REDIS_CONN environment variable not set")
	} else {
		cfg.System.RedisConnectionString = redisconn
	}

	if issuer, exist := os.LookupEnv("OIDC_ISSUER"); !exist {
		return nil, fmt.Errorf("OIDC_ISSUER environment variable not set")
	} else {
		cfg.OIDC.Issuer = issuer
	}

	if audience, exist := os.LookupEnv("OIDC_AUDIENCE"); !exist {
		return nil, fmt.Errorf("OIDC_AUDIENCE environment variable not set")
	} else {
		cfg.OIDC.Audience = audience
	}

	if pubkey, exist := os.LookupEnv("OIDC_PUBLIC_KEY"); !exist {
		return nil, fmt.Errorf("OIDC_PUBLIC_KEY environment variable not set")
	} else {
		cfg.OIDC.PublicKeyPEM = pubkey
	}

	if kcBase, exist := os.LookupEnv("KEYCLOAK_BASE_URL"); !exist {
		return nil, fmt.Errorf("KEYCLOAK_BASE_URL environment variable not set")
	} else {
		cfg.Keycloak.BaseURL = strings.TrimSuffix(kcBase, "/")
	}

	if kcRealm, exist := os.LookupEnv("KEYCLOAK_REALM"); !exist {
		return nil, fmt.Errorf("KEYCLOAK_REALM environment variable not set")
	} else {
		cfg.Keycloak.Realm = kcRealm
	}

	if kcClientID, exist := os.LookupEnv("KEYCLOAK_CLIENT_ID"); !exist {
		return nil, fmt.Errorf("KEYCLOAK_CLIENT_ID environment variable not set")
	} else {
		cfg.Keycloak.ClientID = kcClientID
	}

	if kcClientSecret, exist := os.LookupEnv("KEYCLOAK_CLIENT_SECRET"); !exist {
		return nil, fmt.Errorf("KEYCLOAK_CLIENT_SECRET environment variable not set")
	} else {
		cfg.Keycloak.ClientSecret = kcClientSecret
	}

	return cfg, nil
}
