package sandbox

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nvoss/toolgate/internal/domain"
)

const copyChunkSize = 64 * 1024

// SaveResult describes a completed upload.
type SaveResult struct {
	Path         string `json:"path"`
	Size         int64  `json:"size"`
	StrippedPath string `json:"stripped_path"`
}

// Save streams src into the sandbox under a sanitized version of name,
// in bounded chunks. If the running byte count exceeds maxBytes the
// partial file is removed before the failure is reported. An existing
// destination is disambiguated with the current time instead of being
// overwritten.
func (r *Root) Save(name string, src io.Reader, maxBytes int64) (*SaveResult, error) {
	safe := SafeName(name)
	dst, err := r.Resolve(safe)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(dst); err == nil {
		ext := filepath.Ext(safe)
		stem := strings.TrimSuffix(safe, ext)
		safe = fmt.Sprintf("%s_%d%s", stem, time.Now().Unix(), ext)
		dst = filepath.Join(r.dir, safe)
	}

	out, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("failed to create destination: %w", err)
	}

	var size int64
	buf := make([]byte, copyChunkSize)
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			size += int64(n)
			if size > maxBytes {
				out.Close()
				os.Remove(dst)
				return nil, domain.ErrPayloadTooLarge
			}
			if _, err := out.Write(buf[:n]); err != nil {
				out.Close()
				os.Remove(dst)
				return nil, fmt.Errorf("failed to write upload: %w", err)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			out.Close()
			os.Remove(dst)
			return nil, fmt.Errorf("failed to read upload: %w", readErr)
		}
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return nil, fmt.Errorf("failed to finish upload: %w", err)
	}

	rel, err := filepath.Rel(r.dir, dst)
	if err != nil {
		rel = safe
	}
	return &SaveResult{
		Path:         filepath.ToSlash(rel),
		Size:         size,
		StrippedPath: StripTraversal(filepath.ToSlash(rel)),
	}, nil
}

// File is a resolved sandbox file ready for download.
type File struct {
	AbsPath string
	Name    string
}

// Stat resolves path and verifies it names a regular file.
func (r *Root) Stat(path string) (*File, error) {
	abs, err := r.Resolve(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		return nil, domain.ErrNotFound
	}
	return &File{AbsPath: abs, Name: filepath.Base(abs)}, nil
}

// ReadBase64 returns the file's base name and base64-encoded content.
func (r *Root) ReadBase64(path string) (string, string, error) {
	f, err := r.Stat(path)
	if err != nil {
		return "", "", err
	}
	data, err := os.ReadFile(f.AbsPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to read file: %w", err)
	}
	return f.Name, base64.StdEncoding.EncodeToString(data), nil
}
