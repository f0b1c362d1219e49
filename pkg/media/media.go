// Package media stores uploaded images and hands back a public URL for them.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// MaxImageSize caps a single upload.
const MaxImageSize = 10 << 20

var (
	ErrEmptyFile  = errors.New("media: empty file")
	ErrTooLarge   = errors.New("media: file too large")
	ErrNotAnImage = errors.New("media: only images can be uploaded")
)

// Uploader stores content under a generated unique path and returns its retrieval URL.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
}

// ObjectPath builds images/<millis>-<short id>-<clean name>.
func ObjectPath(now time.Time, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '_'
		case r == '/' || r == '?' || r == '#' || r == '%':
			return -1
		}
		return r
	}, name)
	if name == "" || name == "." {
		name = "image"
	}
	return fmt.Sprintf("images/%d-%s-%s", now.UnixMilli(), uuid.NewString()[:8], name)
}

func checkContentType(contentType string) error {
	if !strings.HasPrefix(contentType, "image/") {
		return ErrNotAnImage
	}
	return nil
}

// FirebaseUploader writes to a Cloud Storage bucket and returns a Firebase download URL.
type FirebaseUploader struct {
	bucket     *storage.BucketHandle
	bucketName string
	now        func() time.Time
}

func NewFirebaseUploader(bucket *storage.BucketHandle, bucketName string) *FirebaseUploader {
	return &FirebaseUploader{bucket: bucket, bucketName: bucketName, now: time.Now}
}

func (u *FirebaseUploader) Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	if err := checkContentType(contentType); err != nil {
		return "", err
	}
	objectPath := ObjectPath(u.now(), filename)
	token := uuid.NewString()

	w := u.bucket.Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{"firebaseStorageDownloadTokens": token}

	n, err := io.Copy(w, io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload %s: %w", objectPath, err)
	}
	if n == 0 || n > MaxImageSize {
		_ = w.CloseWithError(ErrTooLarge)
		if n == 0 {
			return "", ErrEmptyFile
		}
		return "", ErrTooLarge
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", objectPath, err)
	}
	return DownloadURL(u.bucketName, objectPath, token), nil
}

// DownloadURL is the public Firebase Storage URL of an object.
func DownloadURL(bucket, objectPath, token string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(objectPath), "+", "%20")
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s", bucket, escaped, token)
}

// Memory keeps uploads in process; the memory backend and tests use it.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    []error
	baseURL string
}

func NewMemory(baseURL string) *Memory {
	if baseURL == "" {
		baseURL = "memory://"
	}
	return &Memory{objects: map[string][]byte{}, baseURL: baseURL}
}

// FailNext makes the next upload fail with err.
func (m *Memory) FailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = append(m.fail, err)
}

func (m *Memory) Upload(_ context.Context, filename, contentType string, r io.Reader) (string, error) {
	m.mu.Lock()
	if len(m.fail) > 0 {
		err := m.fail[0]
		m.fail = m.fail[1:]
		m.mu.Unlock()
		return "", err
	}
	m.mu.Unlock()

	if err := checkContentType(contentType); err != nil {
		return "", err
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if len(data) > MaxImageSize {
		return "", ErrTooLarge
	}
	objectPath := ObjectPath(time.Now(), filename)

	m.mu.Lock()
	m.objects[objectPath] = data
	m.mu.Unlock()
	return m.baseURL + objectPath, nil
}

// Object returns what was stored at objectPath.
func (m *Memory) Object(objectPath string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[objectPath]
	return data, ok
}
