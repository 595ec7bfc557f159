package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartBody(t *testing.T, kb string, field string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("knowledge_base_id", kb))
	for name, data := range files {
		part, err := writer.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func decodeBase(t *testing.T, w *httptest.ResponseRecorder) BaseResponse {
	t.Helper()
	var resp BaseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestUploadOneBuildsNewKnowledgeBase(t *testing.T) {
	app := newTestApp(t, &stubEngine{}, RouterConfig{})

	body, contentType := multipartBody(t, "kb1", "file", map[string][]byte{"a.txt": []byte("hello")})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat-docs/uploadone", body)
	req.Header.Set("Content-Type", contentType)
	app.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBase(t, w)
	assert.Equal(t, 200, resp.Code)
	assert.Contains(t, resp.Msg, "新的知识库")
	assert.True(t, app.manager.HasIndex("kb1"))
}

func TestUploadOneDuplicateReportsExisting(t *testing.T) {
	app := newTestApp(t, &stubEngine{}, RouterConfig{})
	app.seedKB(t, "kb1", "a.txt", []byte("hello"))

	body, contentType := multipartBody(t, "kb1", "file", map[string][]byte{"a.txt": []byte("olleh")})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat-docs/uploadone", body)
	req.Header.Set("Content-Type", contentType)
	app.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decodeBase(t, w).Msg, "已存在")
}

func TestUploadOneMissingKnowledgeBaseID(t *testing.T) {
	app := newTestApp(t, &stubEngine{}, RouterConfig{})

	body, contentType := multipartBody(t, "", "file", map[string][]byte{"a.txt": []byte("hello")})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat-docs/uploadone", body)
	req.Header.Set("Content-Type", contentType)
	app.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadManyFiles(t *testing.T) {
	app := newTestApp(t, &stubEngine{}, RouterConfig{})

	body, contentType := multipartBody(t, "kb1", "files", map[string][]byte{
		"a.txt": []byte("hello"),
		"b.txt": []byte("world!"),
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat-docs/upload", body)
	req.Header.Set("Content-Type", contentType)
	app.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBase(t, w)
	assert.Equal(t, 200, resp.Code)
	assert.Contains(t, resp.Msg, "已上传")

	docs, err := app.store.ListDocs("kb1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, docs)
}

func TestListDocsAndKnowledgeBases(t *testing.T) {
	app := newTestApp(t, &stubEngine{}, RouterConfig{})
	app.seedKB(t, "kb1", "a.txt", []byte("hello"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/chat-docs/list?knowledge_base_id=kb1", nil)
	app.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp ListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 200, resp.Code)
	assert.Equal(t, []string{"a.txt"}, resp.Data)

	// without an id the knowledge base ids are listed
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/chat-docs/list", nil)
	app.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"kb1"}, resp.Data)
}

func TestListUnknownKnowledgeBaseSoftFailure(t *testing.T) {
	app := newTestApp(t, &stubEngine{}, RouterConfig{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/chat-docs/list?knowledge_base_id=nope", nil)
	app.router.ServeHTTP(w, req)

	// soft failure keeps HTTP 200 and signals through the envelope code
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBase(t, w)
	assert.Equal(t, 1, resp.Code)
	assert.Contains(t, resp.Msg, "nope not found")
}

func TestDeleteDocRemovesLastAndTearsDown(t *testing.T) {
	app := newTestApp(t, &stubEngine{}, RouterConfig{})
	app.seedKB(t, "kb1", "a.txt", []byte("hello"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/chat-docs/delete",
		strings.NewReader("knowledge_base_id=kb1&doc_name=a.txt"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	app.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 200, decodeBase(t, w).Code)
	assert.False(t, app.store.Exists("kb1"))
	assert.False(t, app.manager.HasIndex("kb1"))
}

func TestDeleteAcceptsQueryParams(t *testing.T) {
	app := newTestApp(t, &stubEngine{}, RouterConfig{})
	app.seedKB(t, "kb1", "a.txt", []byte("hello"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/chat-docs/delete?knowledge_base_id=kb1", nil)
	app.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 200, decodeBase(t, w).Code)
	assert.False(t, app.store.Exists("kb1"))
}

func TestDeleteUnknownDocSoftFailure(t *testing.T) {
	app := newTestApp(t, &stubEngine{}, RouterConfig{})
	app.seedKB(t, "kb1", "a.txt", []byte("hello"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/chat-docs/delete",
		strings.NewReader("knowledge_base_id=kb1&doc_name=missing.txt"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	app.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodeBase(t, w).Code)
}
