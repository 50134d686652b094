package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/votestar/votestar-backend/internal/platform/config"
)

// RDB 是一个全局的Redis客户端实例，供项目其他部分使用
var RDB *redis.Client

// Ctx 是一个全局的上下文，用于Redis操作
var Ctx = context.Background()

// InitRedis 初始化与Redis数据库的连接
func InitRedis(cfg config.RedisConfig) {
	RDB = redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 使用Ping命令来测试连接是否成功
	_, err := RDB.Ping(Ctx).Result()
	if err != nil {
		// 如果连接失败，程序将panic并退出，打印出错误信息
		panic("无法连接到Redis: " + err.Error())
	}

	fmt.Println("Redis 连接成功！")
}

// RedisAvailable 返回Redis当前是否可用于缓存读写。
// 单元测试和降级模式下RDB可能为空，调用方应跳过缓存路径。
func RedisAvailable() bool {
	return RDB != nil && IsRedisHealthy()
}
