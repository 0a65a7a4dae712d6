package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/wyfcoding/tradelifecycle/pkg/contextx"
	"github.com/wyfcoding/tradelifecycle/pkg/response"
)

// HeaderUserID 关闭 Token 校验时携带调用者登录 ID 的请求头
const HeaderUserID = "X-User-ID"

// ErrInvalidToken Token 无效
var ErrInvalidToken = errors.New("invalid token")

// AuthConfig 鉴权中间件配置
type AuthConfig struct {
	Enabled bool
	Secret  string
	Issuer  string
}

// IssueToken 签发 HS256 Token，subject 为登录 ID
func IssueToken(secret, issuer, subject string, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken 校验 Token 并返回 subject
func ParseToken(secret, issuer, raw string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

// AuthMiddleware 解析调用者身份写入 context，授权判断由应用层完成
func AuthMiddleware(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled {
			if userID := strings.TrimSpace(c.GetHeader(HeaderUserID)); userID != "" {
				c.Request = c.Request.WithContext(contextx.WithUserID(c.Request.Context(), userID))
			}
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			response.ErrorWithStatus(c, http.StatusUnauthorized, "missing bearer token", "")
			return
		}

		userID, err := ParseToken(cfg.Secret, cfg.Issuer, raw)
		if err != nil {
			response.ErrorWithStatus(c, http.StatusUnauthorized, "invalid bearer token", "")
			return
		}

		c.Request = c.Request.WithContext(contextx.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}
