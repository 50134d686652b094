package apperr

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// AbortWith 将一个业务错误渲染为统一的JSON响应并中断请求。
// 响应格式: {"error": <人类可读信息>, "code": <稳定分类码>}
func AbortWith(c *gin.Context, err error) {
	kind := KindOf(err)
	if kind == KindTransactionFailed {
		// 兜底错误只打印，不外传细节
		fmt.Printf("请求处理失败: %v\n", err)
	}
	c.AbortWithStatusJSON(HTTPStatus(kind), gin.H{
		"error": MessageOf(err),
		"code":  string(kind),
	})
}
