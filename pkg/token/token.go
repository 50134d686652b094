package token

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// hmacSecret 存储用于校验令牌签名的HS256密钥。
// 当部署环境没有配置密钥时保持为空，此时解码是显式不验签的，
// 仅提取令牌声明的subject（沿用旧部署的行为，风险已在文档中注明）。
var hmacSecret []byte

// expectedIssuer / expectedAudience 是可选的签发方约束，仅在验签开启时生效。
var expectedIssuer string
var expectedAudience string

// Claims 是身份令牌中我们关心的声明子集。
type Claims struct {
	Subject string
	Email   string
	Name    string
}

// Configure 在应用启动时设置令牌校验参数。
// secret为空表示跳过签名校验（开发桥接模式）。
func Configure(secret, issuer, audience string) {
	if secret != "" {
		hmacSecret = []byte(secret)
		fmt.Println("令牌验签已启用 (HS256)。")
	} else {
		hmacSecret = nil
		fmt.Println("警告: 未配置令牌密钥，身份令牌将不做签名校验。")
	}
	expectedIssuer = issuer
	expectedAudience = audience
}

// FromAuthorizationHeader 从 "Bearer xxx" 形式的请求头中提取原始令牌。
func FromAuthorizationHeader(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return raw, raw != ""
}

// DecodeBearer 解析一个身份令牌并返回其声明。
// 配置了密钥时执行完整的HS256验签和签发方校验；否则只做结构解析。
func DecodeBearer(raw string) (*Claims, error) {
	if raw == "" {
		return nil, errors.New("令牌为空")
	}

	var mapClaims jwt.MapClaims

	if hmacSecret != nil {
		opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
		if expectedIssuer != "" {
			opts = append(opts, jwt.WithIssuer(expectedIssuer))
		}
		if expectedAudience != "" {
			opts = append(opts, jwt.WithAudience(expectedAudience))
		}
		parsed, err := jwt.ParseWithClaims(raw, jwt.MapClaims{}, func(t *jwt.Token) (interface{}, error) {
			return hmacSecret, nil
		}, opts...)
		if err != nil {
			return nil, fmt.Errorf("令牌验签失败: %w", err)
		}
		mapClaims = parsed.Claims.(jwt.MapClaims)
	} else {
		parser := jwt.NewParser()
		parsed, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
		if err != nil {
			return nil, fmt.Errorf("令牌解析失败: %w", err)
		}
		mapClaims = parsed.Claims.(jwt.MapClaims)
	}

	sub, _ := mapClaims["sub"].(string)
	if sub == "" {
		return nil, errors.New("令牌缺少subject声明")
	}
	email, _ := mapClaims["email"].(string)
	name, _ := mapClaims["name"].(string)

	return &Claims{Subject: sub, Email: email, Name: name}, nil
}
