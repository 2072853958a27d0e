package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/signage/internal/auth"
	"github.com/hitoshi/signage/internal/middleware"
)

// withIdentity はテスト用に認証済みユーザー情報を注入したリクエストを返す。
func withIdentity(req *http.Request, userID string) *http.Request {
	identity := &auth.Identity{
		UserID: userID,
		Email:  userID + "@example.com",
		Name:   "Test User",
	}
	return req.WithContext(middleware.ContextWithIdentity(req.Context(), identity))
}

// decodeBody はレスポンスボディをmapにデコードするテストヘルパー。
func decodeBody(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return payload
}

// assertSuccess はエンベロープのsuccessフィールドを検証するテストヘルパー。
func assertSuccess(t *testing.T, payload map[string]any, want bool) {
	t.Helper()
	success, ok := payload["success"].(bool)
	if !ok {
		t.Fatalf("success field missing or not bool: %v", payload)
	}
	if success != want {
		t.Errorf("success = %v, want %v", success, want)
	}
}

// do はハンドラーにリクエストを送るテストヘルパー。
func do(handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}
