package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/nvoss/toolgate/internal/sandbox"
	"github.com/nvoss/toolgate/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func newSandboxRoot(t *testing.T) *sandbox.Root {
	t.Helper()
	root, err := sandbox.NewRoot(t.TempDir())
	require.NoError(t, err)
	return root
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestFilesUploadAndDownload(t *testing.T) {
	root := newSandboxRoot(t)
	h := NewFilesHandler(root, 1<<20)

	body, contentType := multipartBody(t, "file", "notes.txt", "hello")
	req := httptest.NewRequest(http.MethodPost, "/files", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)

	var saved sandbox.SaveResult
	require.NoError(t, json.Unmarshal(env.Data, &saved))
	assert.Equal(t, "notes.txt", saved.Path)
	assert.Equal(t, int64(5), saved.Size)

	req = httptest.NewRequest(http.MethodGet, "/files?path=notes.txt", nil)
	rec = httptest.NewRecorder()
	h.Download(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	env = decodeEnvelope(t, rec)
	var payload struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	decoded, err := base64.StdEncoding.DecodeString(payload.Content)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(decoded))
}

func TestFilesUploadTooLarge(t *testing.T) {
	root := newSandboxRoot(t)
	h := NewFilesHandler(root, 8)

	body, contentType := multipartBody(t, "file", "big.bin", strings.Repeat("x", 64))
	req := httptest.NewRequest(http.MethodPost, "/files", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestFilesDownloadRequiresPath(t *testing.T) {
	h := NewFilesHandler(newSandboxRoot(t), 1<<20)

	req := httptest.NewRequest(http.MethodGet, "/files", nil)
	rec := httptest.NewRecorder()
	h.Download(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFilesDownloadTraversalDenied(t *testing.T) {
	h := NewFilesHandler(newSandboxRoot(t), 1<<20)

	req := httptest.NewRequest(http.MethodGet, "/files?path=../../etc/passwd", nil)
	rec := httptest.NewRecorder()
	h.Download(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestFilesDownloadAttachmentMode(t *testing.T) {
	root := newSandboxRoot(t)
	require.NoError(t, os.WriteFile(filepath.Join(root.Dir(), "raw.txt"), []byte("raw bytes"), 0o644))
	h := NewFilesHandler(root, 1<<20)

	req := httptest.NewRequest(http.MethodGet, "/files?path=raw.txt&mode=download", nil)
	rec := httptest.NewRecorder()
	h.Download(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="raw.txt"`)
	assert.Equal(t, "raw bytes", rec.Body.String())
}

func TestExecRun(t *testing.T) {
	root := newSandboxRoot(t)
	require.NoError(t, os.WriteFile(filepath.Join(root.Dir(), "a.txt"), []byte("a"), 0o644))
	h := NewExecHandler(sandbox.NewRunner(root, 10000))

	body := bytes.NewBufferString(`{"command": "ls"}`)
	req := httptest.NewRequest(http.MethodPost, "/exec", body)
	rec := httptest.NewRecorder()
	h.Run(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "a.txt", rec.Body.String())
}

func TestExecRejectsWriteVerbs(t *testing.T) {
	h := NewExecHandler(sandbox.NewRunner(newSandboxRoot(t), 10000))

	body := bytes.NewBufferString(`{"command": "rm -rf ."}`)
	req := httptest.NewRequest(http.MethodPost, "/exec", body)
	rec := httptest.NewRecorder()
	h.Run(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, rec.Body.String(), "rm")
}

func TestExecRequiresCommand(t *testing.T) {
	h := NewExecHandler(sandbox.NewRunner(newSandboxRoot(t), 10000))

	body := bytes.NewBufferString(`{}`)
	req := httptest.NewRequest(http.MethodPost, "/exec", body)
	rec := httptest.NewRecorder()
	h.Run(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServersLinkListUnlink(t *testing.T) {
	h := NewServersHandler(service.NewRegistry())

	r := chi.NewRouter()
	r.Post("/servers", h.Link)
	r.Get("/servers", h.List)
	r.Delete("/servers/{name}", h.Unlink)

	body := bytes.NewBufferString(`{"name": "alpha", "url": "http://alpha.internal"}`)
	req := httptest.NewRequest(http.MethodPost, "/servers", body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	// Duplicate name conflicts.
	body = bytes.NewBufferString(`{"name": "alpha", "url": "http://elsewhere"}`)
	req = httptest.NewRequest(http.MethodPost, "/servers", body)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/servers", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	var listed struct {
		LinkedServers []struct {
			Name string `json:"name"`
		} `json:"linked_servers"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed.LinkedServers, 1)
	assert.Equal(t, "alpha", listed.LinkedServers[0].Name)

	req = httptest.NewRequest(http.MethodDelete, "/servers/alpha", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/servers/alpha", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServersLinkRejectsInvalidBody(t *testing.T) {
	h := NewServersHandler(service.NewRegistry())

	body := bytes.NewBufferString(`{"name": "alpha", "url": "not a url"}`)
	req := httptest.NewRequest(http.MethodPost, "/servers", body)
	rec := httptest.NewRecorder()
	h.Link(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body = bytes.NewBufferString(`{"name": "   ", "url": "http://ok.internal"}`)
	req = httptest.NewRequest(http.MethodPost, "/servers", body)
	rec = httptest.NewRecorder()
	h.Link(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
