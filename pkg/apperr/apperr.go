package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 定义了业务错误的稳定分类码。
// 这些分类码是对外契约的一部分，前端依赖它们进行机器判断，不应随意改动。
type Kind string

const (
	// KindUnauthenticated 表示请求没有携带可用的身份令牌
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	// KindForbidden 表示当前账户的角色不允许执行该操作
	KindForbidden Kind = "FORBIDDEN"
	// KindNotFound 表示目标资源不存在，或提案已经不再处于可操作状态
	KindNotFound Kind = "NOT_FOUND"
	// KindDuplicateVote 表示该用户在该类别中已经投过票
	KindDuplicateVote Kind = "DUPLICATE_VOTE"
	// KindAlreadySigned 表示该用户已经联署过该提案
	KindAlreadySigned Kind = "ALREADY_SIGNED"
	// KindAlreadyFollowing 表示关注关系已经存在
	KindAlreadyFollowing Kind = "ALREADY_FOLLOWING"
	// KindAlreadyBlocked 表示屏蔽关系已经存在
	KindAlreadyBlocked Kind = "ALREADY_BLOCKED"
	// KindBadRequest 表示请求本身不合法（如自己关注自己）
	KindBadRequest Kind = "BAD_REQUEST"
	// KindTransactionFailed 是所有意外持久化失败的兜底分类，不向调用方泄露内部细节
	KindTransactionFailed Kind = "TRANSACTION_FAILED"
)

// Error 是整个项目统一的业务错误类型。
// 服务层在操作边界上把存储层错误翻译成Error，处理器层只负责将其渲染为JSON。
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New 创建一个不包含底层原因的业务错误。
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap 创建一个包装了底层原因的业务错误。底层原因只用于日志，不会出现在响应中。
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf 提取一个错误的业务分类。非业务错误一律归入TRANSACTION_FAILED。
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindTransactionFailed
}

// MessageOf 提取错误的对外文案。非业务错误返回通用文案，避免泄露内部细节。
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "The operation could not be completed."
}

// HTTPStatus 将业务分类映射到HTTP状态码。
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicateVote, KindAlreadySigned, KindAlreadyFollowing, KindAlreadyBlocked, KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
