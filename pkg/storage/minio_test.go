package storage

import (
	"mime/multipart"
	"net/textproto"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	key := ObjectKey("/properties/abc/", ".JPG", at)

	assert.Regexp(t, regexp.MustCompile(`^properties/abc/2025/03/10/[0-9a-f-]{36}\.jpg$`), key)
	assert.NotEqual(t, key, ObjectKey("properties/abc", ".jpg", at))
}

func TestContentType(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		declared string
		want     string
	}{
		{"declared header wins", "a.bin", "image/png", "image/png"},
		{"extension fallback", "tour.MOV", "", "video/quicktime"},
		{"octet-stream is ignored", "front.webp", "application/octet-stream", "image/webp"},
		{"unknown", "notes.txt", "", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &multipart.FileHeader{Filename: tt.file, Header: textproto.MIMEHeader{}}
			if tt.declared != "" {
				h.Header.Set("Content-Type", tt.declared)
			}
			assert.Equal(t, tt.want, ContentType(h))
		})
	}
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://cdn.homenest.local/media/a/b.jpg",
		publicURL("https://cdn.homenest.local/", "minio:9000", "media", "a/b.jpg", false))
	assert.Equal(t, "http://minio:9000/media/a/b.jpg",
		publicURL("", "minio:9000", "media", "a/b.jpg", false))
	assert.Equal(t, "https://minio:9000/media/a/b.jpg",
		publicURL("", "minio:9000", "media", "a/b.jpg", true))
}
