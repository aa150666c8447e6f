package config

type Config struct {
	System struct {
		IsProd                bool   // 是否为生产环境
		Listen                string // 监听地址
		DBConnectionString    string // Postgres 数据库的连接字符串（元数据）
		MongoConnectionString string // MongoDB 的连接字符串（作品正文）
		MongoDatabase         string // MongoDB 数据库名
		RedisConnectionString string // Redis 数据库的连接字符串
	}
	OIDC struct {
		Issuer       string // 身份提供方的 issuer
		Audience     string // 预期的 audience
		PublicKeyPEM string // 验签用的 RSA 公钥（ PEM 格式）
	}
	Keycloak struct {
		BaseURL      string // Keycloak 的基础地址
		Realm        string // Realm 名称
		ClientID     string // 管理客户端 ID
		ClientSecret string // 管理客户端密钥
	}
}
