package storage

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("photo", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["photo"][0]
}

func TestSavePhotoLocal(t *testing.T) {
	dir := t.TempDir()
	st := NewLocalStorage(dir, "/uploads/")

	url, err := SavePhoto(context.Background(), st, 7, fileHeader(t, "My Photo.PNG", []byte("png-bytes")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/photos/7/My_Photo_"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)

	saved, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(url, "/uploads/"))))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(saved))
}

func TestSavePhotoRejects(t *testing.T) {
	st := NewLocalStorage(t.TempDir(), "/uploads")

	_, err := SavePhoto(context.Background(), st, 1, fileHeader(t, "notes.txt", []byte("x")))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	big := fileHeader(t, "big.jpg", []byte("x"))
	big.Size = MaxPhotoBytes + 1
	_, err = SavePhoto(context.Background(), st, 1, big)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestNormalizeFilename(t *testing.T) {
	now := time.Date(2025, 3, 16, 18, 40, 5, 0, time.UTC)
	assert.Equal(t, "Radha_Govinda_20250316_184005.jpg", normalizeFilename("Radha Govinda!.JPG", now))
	assert.Equal(t, "passwd_20250316_184005", normalizeFilename("../../etc/passwd", now))
	assert.Equal(t, "photo_20250316_184005.png", normalizeFilename("@@@.png", now))
}
