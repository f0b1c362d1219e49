package media

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectPath(t *testing.T) {
	now := time.UnixMilli(1714570000000)
	p := ObjectPath(now, `C:\fotos\mi logo.png`)

	assert.True(t, strings.HasPrefix(p, "images/1714570000000-"), p)
	assert.True(t, strings.HasSuffix(p, "-mi_logo.png"), p)
	assert.NotEqual(t, p, ObjectPath(now, `C:\fotos\mi logo.png`))
}

func TestDownloadURL(t *testing.T) {
	link := DownloadURL("bombon.appspot.com", "images/1-abc-logo.png", "tok")
	assert.Equal(t, "https://firebasestorage.googleapis.com/v0/b/bombon.appspot.com/o/images%2F1-abc-logo.png?alt=media&token=tok", link)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "media", u.Query().Get("alt"))
}

func TestMemory_Upload(t *testing.T) {
	m := NewMemory("")
	link, err := m.Upload(context.Background(), "banner.jpg", "image/jpeg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)

	data, ok := m.Object(strings.TrimPrefix(link, "memory://"))
	require.True(t, ok)
	assert.Equal(t, "jpeg-bytes", string(data))

	_, err = m.Upload(context.Background(), "notes.txt", "text/plain", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrNotAnImage)

	_, err = m.Upload(context.Background(), "empty.png", "image/png", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)

	boom := errors.New("bucket unavailable")
	m.FailNext(boom)
	_, err = m.Upload(context.Background(), "a.png", "image/png", strings.NewReader("x"))
	assert.ErrorIs(t, err, boom)
}
