package storage

import (
	"context"
	"io"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_PutOpenDelete(t *testing.T) {
	s, err := NewLocalStore("http://localhost:8080", t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "invoice_1.pdf", strings.NewReader("%PDF-1.3 first"), -1, "application/pdf"))
	require.NoError(t, s.Put(ctx, "invoice_1.pdf", strings.NewReader("%PDF-1.3 second"), -1, "application/pdf"))

	ok, size, err := s.Exists(ctx, "invoice_1.pdf")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(len("%PDF-1.3 second")), size)

	rc, err := s.Open(ctx, "invoice_1.pdf")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3 second", string(body))

	require.NoError(t, s.Delete(ctx, "invoice_1.pdf"))
	require.NoError(t, s.Delete(ctx, "invoice_1.pdf"))

	_, err = s.Open(ctx, "invoice_1.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStore_KeyStaysInsideRoot(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStore("", root)
	require.NoError(t, err)

	p, err := s.path("../../etc/passwd")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p, root))

	_, err = s.path("")
	assert.Error(t, err)
}

func TestLocalStore_PresignedDownloadURL(t *testing.T) {
	s, err := NewLocalStore("http://localhost:8080/", t.TempDir())
	require.NoError(t, err)

	raw, err := s.PresignedDownloadURL(context.Background(), "invoice_2.pdf", time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u.Path, "/api/documents/"))

	token := strings.TrimPrefix(u.Path, "/api/documents/")
	key := u.Query().Get("key")
	expires := u.Query().Get("expires")

	assert.True(t, s.VerifyDownload(key, token, expires, time.Now()))
	assert.False(t, s.VerifyDownload("invoice_3.pdf", token, expires, time.Now()))
	assert.False(t, s.VerifyDownload(key, token, expires, time.Now().Add(2*time.Minute)))
}

func TestLocalStore_SigningKey(t *testing.T) {
	dir := t.TempDir()
	a, err := NewLocalStore("", dir)
	require.NoError(t, err)
	b, err := NewLocalStore("", dir)
	require.NoError(t, err)

	expires := strconv.FormatInt(time.Now().Add(time.Minute).Unix(), 10)
	token := a.sign("invoice_4.pdf", expires)
	assert.False(t, b.VerifyDownload("invoice_4.pdf", token, expires, time.Now()), "random keys differ")

	a.WithSigningKey("shared-secret")
	b.WithSigningKey("shared-secret")
	token = a.sign("invoice_4.pdf", expires)
	assert.True(t, b.VerifyDownload("invoice_4.pdf", token, expires, time.Now()))
}
