package user

import (
	"github.com/gin-gonic/gin"
	"github.com/votestar/votestar-backend/pkg/apperr"
	"github.com/votestar/votestar-backend/pkg/token"
)

const (
	// ContextUserKey 是认证后的用户在Gin上下文中的键名。
	ContextUserKey = "currentUser"
)

// RequireUser 是强制认证中间件：没有可用令牌的请求会被401拒绝。
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := token.FromAuthorizationHeader(c.GetHeader("Authorization"))
		if !ok {
			apperr.AbortWith(c, apperr.New(apperr.KindUnauthenticated, "Could not validate credentials"))
			return
		}
		usr, err := Authenticate(raw)
		if err != nil {
			apperr.AbortWith(c, err)
			return
		}
		c.Set(ContextUserKey, usr)
		c.Next()
	}
}

// OptionalUser 是可选认证中间件：认证失败时吞掉错误，
// 请求以匿名身份继续。用于为匿名访客也提供个性化输出的端点。
func OptionalUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := token.FromAuthorizationHeader(c.GetHeader("Authorization"))
		if ok {
			if usr, err := Authenticate(raw); err == nil {
				c.Set(ContextUserKey, usr)
			}
		}
		c.Next()
	}
}

// CurrentUser 从Gin上下文中取出已认证的用户。匿名请求返回nil。
func CurrentUser(c *gin.Context) *User {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	usr, ok := value.(*User)
	if !ok {
		return nil
	}
	return usr
}
