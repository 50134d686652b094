package user

// 定义与用户相关的Redis键名
const (
	// SubjectCacheKey 是一个Hash，用于加速身份subject到内部用户ID的解析。
	// Field: 身份提供方的subject (e.g., "auth0|abc123")
	// Value: 用户UUID
	// 缓存未命中或不可用时，认证路径回退到数据库查询，语义不受影响。
	SubjectCacheKey = "user:subjects"
)
