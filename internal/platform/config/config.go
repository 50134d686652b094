package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Cfg 是一个全局变量，用于存储所有应用程序的配置
var Cfg *Config

// Config 结构体定义了应用程序的所有配置项
// 它与 config.yaml 文件的结构完全对应
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Governance GovernanceConfig `mapstructure:"governance"`
}

// ServerConfig 定义了服务器相关的配置
type ServerConfig struct {
	Address string     `mapstructure:"address"`
	Cors    CorsConfig `mapstructure:"cors"`
}

// CorsConfig 定义了CORS相关的配置
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// DatabaseConfig 定义了数据库和缓存相关的配置
type DatabaseConfig struct {
	// Driver 可选 "sqlite" 或 "postgres"
	Driver string      `mapstructure:"driver"`
	DSN    string      `mapstructure:"dsn"`
	Redis  RedisConfig `mapstructure:"redis"`
}

// RedisConfig 定义了Redis的配置
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 定义了身份提供方相关的配置
type AuthConfig struct {
	// Issuer 是身份提供方的签发域，例如 "https://dev-xxxx.us.auth0.com/"
	Issuer string `mapstructure:"issuer"`
	// Audience 是API的受众标识
	Audience string `mapstructure:"audience"`
	// UserinfoURL 是身份提供方的userinfo端点，用于可选的资料补全
	UserinfoURL string `mapstructure:"userinfoUrl"`
	// HMACSecret 配置后启用HS256验签；留空则显式不验签（开发桥接模式）
	HMACSecret string `mapstructure:"hmacSecret"`
}

// GovernanceConfig 定义了社区治理相关的阈值
type GovernanceConfig struct {
	// SignatureThreshold 是提案转正所需的联署数
	SignatureThreshold int `mapstructure:"signatureThreshold"`
	// InfluenceThreshold 是组织账户自动认证所需的关注者数
	InfluenceThreshold int `mapstructure:"influenceThreshold"`
}

// LoadConfig 函数负责查找、加载和解析配置文件
// 它会在指定的路径中查找名为 config.yaml 的文件
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	// 允许通过环境变量覆盖配置，例如 DATABASE_DSN
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 合理的默认值：本地SQLite + 默认治理阈值
	v.SetDefault("server.address", ":8080")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "votestar.db")
	v.SetDefault("database.redis.address", "localhost:6379")
	v.SetDefault("governance.signatureThreshold", 50)
	v.SetDefault("governance.influenceThreshold", 10000)

	if err := v.ReadInConfig(); err != nil {
		// 配置文件缺失时使用默认值和环境变量，不视为致命错误
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	Cfg = &cfg
	return Cfg, nil
}
