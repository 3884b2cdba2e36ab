package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// tokenIssuer はサービストークンの発行者名。
const tokenIssuer = "mobilenotify"

// ServiceClaims は内部APIを呼び出すサービスのトークンクレーム。
type ServiceClaims struct {
	jwt.RegisteredClaims
	// Service は呼び出し元サービスの名前（例: "push-dispatcher"）。
	Service string `json:"service"`
}

// GenerateServiceToken は内部API用のサービストークンを生成する。
// ttlが0以下の場合は1時間とする。
func GenerateServiceToken(secret, service string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("シークレットが空です")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	now := time.Now()
	claims := ServiceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   service,
		},
		Service: service,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("サービストークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// ServiceTokenAuth は内部APIのサービストークンを検証するGinミドルウェアを返す。
// secretが空の場合は検証を行わない（ローカル開発用）。
// 検証に成功した場合、コンテキストに "service" を設定する。
func ServiceTokenAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		tokenString, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "Service token is required",
			})
			return
		}

		claims := &ServiceClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "Service token is invalid",
			})
			return
		}

		c.Set("service", claims.Service)
		c.Next()
	}
}

// GetService はGinコンテキストから呼び出し元サービス名を取得する。
func GetService(c *gin.Context) string {
	return c.GetString("service")
}
