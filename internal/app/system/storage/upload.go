package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// UploadInfo contains metadata about an uploaded file.
type UploadInfo struct {
	Path        string
	URL         string
	FileName    string
	Size        int64
	ContentType string
}

// UploadFile stores a file under a unique path and returns upload info.
// The path is generated as: <prefix>/YYYY/MM/uuid-filename.
func UploadFile(ctx context.Context, store Store, prefix, filename string, reader io.Reader, size int64, contentType string) (UploadInfo, error) {
	now := time.Now().UTC()
	dateDir := fmt.Sprintf("%s/%04d/%02d", prefix, now.Year(), now.Month())
	uniqueName := fmt.Sprintf("%s-%s", uuid.New().String()[:8], SanitizeFilename(filename))
	path := filepath.ToSlash(filepath.Join(dateDir, uniqueName))

	opts := &PutOptions{ContentType: contentType}
	if err := store.Put(ctx, path, reader, size, opts); err != nil {
		return UploadInfo{}, fmt.Errorf("failed to upload file: %w", err)
	}

	return UploadInfo{
		Path:        path,
		URL:         store.URL(path),
		FileName:    filename,
		Size:        size,
		ContentType: contentType,
	}, nil
}

// SanitizeFilename replaces characters that could be problematic in
// object keys and truncates over-long names while keeping the extension.
func SanitizeFilename(filename string) string {
	filename = filepath.Base(filename)

	result := make([]byte, 0, len(filename))
	for i := 0; i < len(filename); i++ {
		c := filename[i]
		if isAllowedFilenameChar(c) {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}

	if len(result) == 0 {
		return "file"
	}
	if len(result) > 100 {
		ext := filepath.Ext(string(result))
		if len(ext) > 0 && len(ext) < 10 {
			result = append(result[:100-len(ext)], ext...)
		} else {
			result = result[:100]
		}
	}

	return string(result)
}

func isAllowedFilenameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.'
}
