package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

// testRequest はテストサーバーが受け取ったリクエスト情報を保持する構造体。
type testRequest struct {
	// Method はHTTPメソッド。
	Method string
	// Path はリクエストパス。
	Path string
	// Form はデコードしたフォームボディ。
	Form url.Values
	// Headers はリクエストヘッダー。
	Headers http.Header
}

// testResponse はテスト用のレスポンスペイロード。
type testResponse struct {
	Status         string `json:"status"`
	NotificationID int64  `json:"notification_id"`
	Message        string `json:"message"`
}

// TestNew はNew関数でクライアントが正しく生成されることを検証する。
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("クライアントが正常に生成されること", func(t *testing.T) {
		t.Parallel()

		client := New("http://localhost:8086/")
		if client.baseURL != "http://localhost:8086" {
			t.Errorf("baseURL = %q, want %q", client.baseURL, "http://localhost:8086")
		}
		if client.httpClient.Timeout != defaultTimeout {
			t.Errorf("Timeout = %v, want %v", client.httpClient.Timeout, defaultTimeout)
		}
	})

	t.Run("タイムアウトを変更できること", func(t *testing.T) {
		t.Parallel()

		client := New("http://localhost:8086", WithTimeout(5*time.Second), WithTimeout(0))
		if client.httpClient.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, want 5s", client.httpClient.Timeout)
		}
	})
}

// TestPostForm はPostForm関数を検証する。
func TestPostForm(t *testing.T) {
	t.Parallel()

	t.Run("フォーム形式で送信してレスポンスを取得できること", func(t *testing.T) {
		t.Parallel()

		var received testRequest
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = r.ParseForm()
			received.Method = r.Method
			received.Path = r.URL.Path
			received.Form = r.PostForm
			received.Headers = r.Header

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(testResponse{Status: "success", NotificationID: 42, Message: "สร้างการแจ้งเตือนสำเร็จ"})
		}))
		defer ts.Close()

		client := New(ts.URL)
		ctx := WithRequestID(context.Background(), "req-1")
		form := url.Values{"mobile_user_id": {"5"}, "title": {"งานใหม่"}}

		var result testResponse
		if err := client.PostForm(ctx, "/api/v1/notifications", form, &result); err != nil {
			t.Fatalf("PostForm() error = %v", err)
		}

		if received.Method != http.MethodPost {
			t.Errorf("Method = %q, want POST", received.Method)
		}
		if received.Path != "/api/v1/notifications" {
			t.Errorf("Path = %q, want /api/v1/notifications", received.Path)
		}
		if received.Form.Get("title") != "งานใหม่" || received.Form.Get("mobile_user_id") != "5" {
			t.Errorf("Form = %v", received.Form)
		}
		if ct := received.Headers.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", ct)
		}
		if id := received.Headers.Get("X-Request-ID"); id != "req-1" {
			t.Errorf("X-Request-ID = %q, want req-1", id)
		}
		if result.NotificationID != 42 || result.Message != "สร้างการแจ้งเตือนสำเร็จ" {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("エラーレスポンスのmessageをAPIErrorとして返すこと", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"status":"error","message":"ไม่พบผู้ใช้ที่ระบุ"}`)
		}))
		defer ts.Close()

		err := New(ts.URL).PostForm(context.Background(), "/api/v1/notifications", url.Values{}, nil)

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("APIErrorではありません: %v", err)
		}
		if apiErr.StatusCode != http.StatusNotFound {
			t.Errorf("StatusCode = %d, want 404", apiErr.StatusCode)
		}
		if apiErr.Message != "ไม่พบผู้ใช้ที่ระบุ" {
			t.Errorf("Message = %q", apiErr.Message)
		}
	})

	t.Run("JSONでないエラーレスポンスはボディをそのまま保持すること", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, "bad gateway")
		}))
		defer ts.Close()

		err := New(ts.URL).PostForm(context.Background(), "/", nil, nil)

		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Message != "bad gateway" {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("不正なJSONレスポンスはエラーになること", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "{broken")
		}))
		defer ts.Close()

		var result testResponse
		if err := New(ts.URL).PostForm(context.Background(), "/", nil, &result); err == nil {
			t.Error("エラーが返されませんでした")
		}
	})

	t.Run("接続できない場合はエラーになること", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		baseURL := ts.URL
		ts.Close()

		if err := New(baseURL).PostForm(context.Background(), "/", nil, nil); err == nil {
			t.Error("エラーが返されませんでした")
		}
	})
}
