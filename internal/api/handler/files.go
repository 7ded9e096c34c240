package handler

import (
	"net/http"

	"github.com/nvoss/toolgate/internal/api/response"
	"github.com/nvoss/toolgate/internal/sandbox"
)

// FilesHandler serves uploads into and downloads out of the sandbox.
type FilesHandler struct {
	root           *sandbox.Root
	maxUploadBytes int64
}

// NewFilesHandler creates a new files handler
func NewFilesHandler(root *sandbox.Root, maxUploadBytes int64) *FilesHandler {
	return &FilesHandler{root: root, maxUploadBytes: maxUploadBytes}
}

// Upload stores a multipart file inside the sandbox.
func (h *FilesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "missing file field")
		return
	}
	defer file.Close()

	result, err := h.root.Save(header.Filename, file, h.maxUploadBytes)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, result)
}

// Download returns a sandbox file either as a base64 envelope (the
// default) or as a raw attachment when mode=download.
func (h *FilesHandler) Download(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		response.BadRequest(w, "path query parameter is required")
		return
	}

	if r.URL.Query().Get("mode") == "download" {
		f, err := h.root.Stat(path)
		if err != nil {
			response.FromError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", `attachment; filename="`+f.Name+`"`)
		http.ServeFile(w, r, f.AbsPath)
		return
	}

	name, content, err := h.root.ReadBase64(path)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, map[string]any{
		"path":    name,
		"content": content,
	})
}
