package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// testRequest はテストサーバーが受け取ったリクエスト情報を保持する構造体。
type testRequest struct {
	// Method はHTTPメソッド。
	Method string
	// Path はリクエストパス。
	Path string
	// Body はリクエストボディ。
	Body []byte
	// Headers はリクエストヘッダー。
	Headers http.Header
}

// testPayload はテスト用のリクエストペイロード。
type testPayload struct {
	// Content はDiscord Webhookのメッセージ本文。
	Content string `json:"content"`
}

// TestNew はNew関数でクライアントが正しく生成されることを検証する。
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("クライアントが正常に生成されること", func(t *testing.T) {
		t.Parallel()

		client := New("https://discord.com/api/webhooks/1/abc")
		if client == nil {
			t.Fatal("New()がnilを返した")
		}
		if client.webhookURL != "https://discord.com/api/webhooks/1/abc" {
			t.Errorf("webhookURL = %q, want %q", client.webhookURL, "https://discord.com/api/webhooks/1/abc")
		}
	})

	t.Run("タイムアウトが10秒に設定されていること", func(t *testing.T) {
		t.Parallel()

		client := New("http://localhost:8080")
		if client.httpClient.Timeout.Seconds() != 10 {
			t.Errorf("Timeout = %v, want 10s", client.httpClient.Timeout)
		}
	})
}

// TestPost はPost関数を検証する。
func TestPost(t *testing.T) {
	t.Parallel()

	t.Run("JSONボディでPOSTリクエストを送信できること", func(t *testing.T) {
		t.Parallel()

		var received testRequest
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			received.Method = r.Method
			received.Path = r.URL.Path
			received.Body, _ = io.ReadAll(r.Body)
			received.Headers = r.Header
			// Discord Webhookは本文なしの204を返す
			w.WriteHeader(http.StatusNoContent)
		}))
		defer ts.Close()

		client := New(ts.URL + "/api/webhooks/1/token")
		err := client.Post(context.Background(), testPayload{Content: "hello"})
		if err != nil {
			t.Fatalf("Post()でエラーが発生: %v", err)
		}

		if received.Method != http.MethodPost {
			t.Errorf("Method = %q, want %q", received.Method, http.MethodPost)
		}
		if received.Path != "/api/webhooks/1/token" {
			t.Errorf("Path = %q, want %q", received.Path, "/api/webhooks/1/token")
		}

		var sent testPayload
		if err := json.Unmarshal(received.Body, &sent); err != nil {
			t.Fatalf("リクエストボディのパースに失敗: %v", err)
		}
		if sent.Content != "hello" {
			t.Errorf("sent Content = %q, want %q", sent.Content, "hello")
		}
		if got := received.Headers.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q, want %q", got, "application/json")
		}
		if got := received.Headers.Get("User-Agent"); got != userAgent {
			t.Errorf("User-Agent = %q, want %q", got, userAgent)
		}
	})

	t.Run("2xx以外のステータスでStatusErrorが返ること", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"message":"You are being rate limited.","retry_after":1.5}`))
		}))
		defer ts.Close()

		err := New(ts.URL).Post(context.Background(), testPayload{Content: "x"})
		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("エラー = %v, want *StatusError", err)
		}
		if statusErr.StatusCode != http.StatusTooManyRequests {
			t.Errorf("StatusCode = %d, want %d", statusErr.StatusCode, http.StatusTooManyRequests)
		}
		if !strings.Contains(statusErr.Body, "rate limited") {
			t.Errorf("Body = %q, want rate limitedを含む", statusErr.Body)
		}
	})

	t.Run("エラー時のボディは上限までしか読まないこと", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(strings.Repeat("x", maxErrorBody*4)))
		}))
		defer ts.Close()

		err := New(ts.URL).Post(context.Background(), testPayload{Content: "x"})
		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("エラー = %v, want *StatusError", err)
		}
		if len(statusErr.Body) != maxErrorBody {
			t.Errorf("len(Body) = %d, want %d", len(statusErr.Body), maxErrorBody)
		}
	})

	t.Run("2xx以外のステータスでエラーが返ること", func(t *testing.T) {
		t.Parallel()

		for _, status := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusTooManyRequests, http.StatusInternalServerError} {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(status)
				w.Write([]byte(`{"message":"error"}`))
			}))

			client := New(ts.URL)
			err := client.Post(context.Background(), testPayload{Content: "x"})
			ts.Close()
			if err == nil {
				t.Errorf("status=%d でPost()がエラーを返すべき", status)
			}
		}
	})

	t.Run("キャンセルされたコンテキストでエラーが返ること", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer ts.Close()

		client := New(ts.URL)
		ctx, cancel := context.WithCancel(context.Background())
		cancel() // 即座にキャンセル

		if err := client.Post(ctx, testPayload{Content: "x"}); err == nil {
			t.Fatal("Post()がエラーを返すべきだが、nilが返った")
		}
	})

	t.Run("接続できないサーバーに対してエラーが返ること", func(t *testing.T) {
		t.Parallel()

		client := New("http://127.0.0.1:1")
		if err := client.Post(context.Background(), testPayload{Content: "x"}); err == nil {
			t.Fatal("Post()がエラーを返すべきだが、nilが返った")
		}
	})

	t.Run("シリアライズ不可能なボディでエラーが返ること", func(t *testing.T) {
		t.Parallel()

		client := New("http://127.0.0.1:1")
		// json.Marshalでエラーになるチャネル型を渡す
		if err := client.Post(context.Background(), make(chan int)); err == nil {
			t.Fatal("Post()がエラーを返すべきだが、nilが返った")
		}
	})
}

// TestWithRequestID はWithRequestID関数を検証する。
func TestWithRequestID(t *testing.T) {
	t.Parallel()

	t.Run("コンテキストのリクエストIDがヘッダーに伝播されること", func(t *testing.T) {
		t.Parallel()

		var receivedID string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			receivedID = r.Header.Get("X-Request-ID")
			w.WriteHeader(http.StatusNoContent)
		}))
		defer ts.Close()

		client := New(ts.URL)
		ctx := WithRequestID(context.Background(), "req-123")
		if err := client.Post(ctx, testPayload{Content: "x"}); err != nil {
			t.Fatalf("Post()でエラーが発生: %v", err)
		}
		if receivedID != "req-123" {
			t.Errorf("X-Request-ID = %q, want %q", receivedID, "req-123")
		}
	})

	t.Run("リクエストIDが無い場合はヘッダーを付与しないこと", func(t *testing.T) {
		t.Parallel()

		var hasHeader bool
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, hasHeader = r.Header["X-Request-Id"]
			w.WriteHeader(http.StatusNoContent)
		}))
		defer ts.Close()

		client := New(ts.URL)
		if err := client.Post(context.Background(), testPayload{Content: "x"}); err != nil {
			t.Fatalf("Post()でエラーが発生: %v", err)
		}
		if hasHeader {
			t.Error("X-Request-IDヘッダーが付与された")
		}
	})
}
