package notification

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/nao1215/mobilenotify/pkg/database"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testTokenSecret は内部APIのテスト用署名鍵。
const testTokenSecret = "test-internal-secret"

// テスト用に投入するユーザー。
const (
	activeUserID   int64 = 5
	otherUserID    int64 = 6
	inactiveUserID int64 = 7
	unknownUserID  int64 = 404
)

// stepClock は呼び出されるたびに1秒進む時計。作成順と created_at の順序を一致させる。
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// setupTestDB はマイグレーション適用済みのインメモリSQLiteを構築し、ユーザーを投入する。
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.Open(t.Context(), database.Options{
		Driver: database.DriverSQLite,
		DSN:    ":memory:",
	})
	if err != nil {
		t.Fatalf("インメモリDBの作成に失敗: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("スキーマ初期化に失敗: %v", err)
	}

	if _, err := db.Exec(
		"INSERT INTO mobile_users (id, is_active) VALUES (?, 1), (?, 1), (?, 0)",
		activeUserID, otherUserID, inactiveUserID,
	); err != nil {
		t.Fatalf("テスト用ユーザーの作成に失敗: %v", err)
	}
	return db
}

// setupTestStore はテスト用のStoreを構築する。
func setupTestStore(t *testing.T) (*Store, *sqlx.DB) {
	t.Helper()
	db := setupTestDB(t)
	return NewStore(db, WithClock(newStepClock().Now)), db
}

// setupTestServer はテスト用の通知サーバーをインメモリSQLiteで構築する。
func setupTestServer(t *testing.T) (*Server, *sqlx.DB) {
	t.Helper()
	store, db := setupTestStore(t)
	s := NewServer(NewService(store), Options{Port: "0", TokenSecret: testTokenSecret})
	return s, db
}

// createTestNotification はサービス経由で通知を作成するヘルパー関数。
func createTestNotification(t *testing.T, s *Server, userID int64, title, typ, priority string) int64 {
	t.Helper()
	id, err := s.service.CreateNotification(t.Context(), CreateParams{
		MobileUserID:     userID,
		Title:            title,
		Message:          title + "のメッセージ",
		NotificationType: typ,
		Priority:         priority,
	})
	if err != nil {
		t.Fatalf("テスト用通知の作成に失敗: %v", err)
	}
	return id
}

// doRequest はフォーム形式のリクエストを実行し、レスポンスを返すヘルパー関数。
// GETの場合はformをクエリ文字列として付与する。
func doRequest(h http.Handler, method, path string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if method == http.MethodGet {
		if len(form) > 0 {
			path += "?" + form.Encode()
		}
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// doRequestWithToken はBearerトークン付きでリクエストを実行するヘルパー関数。
func doRequestWithToken(h http.Handler, method, path, token string, form url.Values) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if method == http.MethodGet {
		if len(form) > 0 {
			path += "?" + form.Encode()
		}
		body = bytes.NewReader(nil)
	} else {
		body = bytes.NewReader([]byte(form.Encode()))
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// parseJSON はレスポンスボディをmapにデコードするヘルパー関数。
func parseJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("JSONのデコードに失敗: %v, body=%s", err, w.Body.String())
	}
	return result
}

// dataItems はレスポンスの data 配列を取り出すヘルパー関数。
func dataItems(t *testing.T, result map[string]any) []map[string]any {
	t.Helper()
	raw, ok := result["data"].([]any)
	if !ok {
		t.Fatalf("dataが配列ではありません: %v", result["data"])
	}
	items := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		items = append(items, r.(map[string]any))
	}
	return items
}

// pagination はレスポンスの pagination を取り出すヘルパー関数。
func pagination(t *testing.T, result map[string]any) map[string]any {
	t.Helper()
	p, ok := result["pagination"].(map[string]any)
	if !ok {
		t.Fatalf("paginationがありません: %v", result)
	}
	return p
}

// userForm は mobile_user_id を含むフォームを返す。
func userForm(userID int64) url.Values {
	return url.Values{"mobile_user_id": {formatID(userID)}}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
