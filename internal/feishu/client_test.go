package feishu

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantAccessToken(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/open-apis/auth/v3/tenant_access_token/internal", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"code":                0,
			"msg":                 "ok",
			"tenant_access_token": "t-abc",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "cli_app", "secret")
	token, err := client.TenantAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t-abc", token)
	assert.Equal(t, "cli_app", gotBody["app_id"])
	assert.Equal(t, "secret", gotBody["app_secret"])
}

func TestTenantAccessTokenPlatformError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"code": 99991663, "msg": "app not found"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "cli_app", "secret")
	_, err := client.TenantAccessToken(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app not found")
}

func TestReply(t *testing.T) {
	var gotPath, gotAuthz string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuthz = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{"code": 0, "msg": "ok"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "cli_app", "secret")
	err := client.Reply(context.Background(), "t-abc", "om_xyz", "你好\n世界")
	require.NoError(t, err)

	assert.Equal(t, "/open-apis/im/v1/messages/om_xyz/reply", gotPath)
	assert.Equal(t, "Bearer t-abc", gotAuthz)
	assert.Equal(t, "text", gotBody["msg_type"])

	// content is itself JSON, with the newline escaped in transit
	var content messageContent
	require.NoError(t, json.Unmarshal([]byte(gotBody["content"]), &content))
	assert.Equal(t, "你好\n世界", content.Text)
}

func TestReplyPlatformError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"code": 230002, "msg": "bot not in chat"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "cli_app", "secret")
	err := client.Reply(context.Background(), "t-abc", "om_xyz", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot not in chat")
}
