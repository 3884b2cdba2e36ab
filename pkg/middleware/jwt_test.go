package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testSecret はテスト用のシークレット。
const testSecret = "test-secret-key-for-unit-tests"

// newAuthRouter はServiceTokenAuthを適用したテスト用ルーターを生成する。
func newAuthRouter(secret string) *gin.Engine {
	router := gin.New()
	router.Use(ServiceTokenAuth(secret))
	router.GET("/internal", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success", "service": GetService(c)})
	})
	return router
}

// TestGenerateServiceToken はGenerateServiceToken関数を検証する。
func TestGenerateServiceToken(t *testing.T) {
	t.Parallel()

	t.Run("クレームが正しく設定されること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := GenerateServiceToken(testSecret, "push-dispatcher", 10*time.Minute)
		if err != nil {
			t.Fatalf("GenerateServiceToken()でエラーが発生: %v", err)
		}

		claims := &ServiceClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) {
			return []byte(testSecret), nil
		})
		if err != nil || !token.Valid {
			t.Fatalf("トークンのパースに失敗: %v", err)
		}
		if claims.Service != "push-dispatcher" {
			t.Errorf("Service = %q, want %q", claims.Service, "push-dispatcher")
		}
		if claims.Issuer != tokenIssuer {
			t.Errorf("Issuer = %q, want %q", claims.Issuer, tokenIssuer)
		}
		if token.Method.Alg() != "HS256" {
			t.Errorf("署名アルゴリズム = %q, want HS256", token.Method.Alg())
		}
	})

	t.Run("シークレットが空の場合はエラー", func(t *testing.T) {
		t.Parallel()

		if _, err := GenerateServiceToken("", "svc", time.Minute); err == nil {
			t.Error("エラーが返されなかった")
		}
	})
}

// TestServiceTokenAuth はServiceTokenAuthミドルウェアを検証する。
func TestServiceTokenAuth(t *testing.T) {
	t.Parallel()

	t.Run("有効なトークンで通過しサービス名が設定されること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := GenerateServiceToken(testSecret, "push-dispatcher", time.Minute)
		if err != nil {
			t.Fatalf("トークン生成に失敗: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/internal", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		w := httptest.NewRecorder()
		newAuthRouter(testSecret).ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("レスポンスボディのパースに失敗: %v", err)
		}
		if body["service"] != "push-dispatcher" {
			t.Errorf("service = %q, want %q", body["service"], "push-dispatcher")
		}
	})

	t.Run("Authorizationヘッダーが無い場合は401", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		newAuthRouter(testSecret).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/internal", nil))

		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("別のシークレットで署名されたトークンは401", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := GenerateServiceToken("other-secret", "svc", time.Minute)
		if err != nil {
			t.Fatalf("トークン生成に失敗: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/internal", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		w := httptest.NewRecorder()
		newAuthRouter(testSecret).ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("期限切れのトークンは401", func(t *testing.T) {
		t.Parallel()

		claims := ServiceClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
				Issuer:    tokenIssuer,
			},
			Service: "svc",
		}
		tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("トークン生成に失敗: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/internal", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		w := httptest.NewRecorder()
		newAuthRouter(testSecret).ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("シークレット未設定の場合は検証しない", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		newAuthRouter("").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/internal", nil))

		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
	})
}
