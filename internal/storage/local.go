package storage

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"rentrush-backend/internal/logger"
)

// LocalStore keeps documents on the local filesystem.
// This is for development and single-node deployments without MinIO.
type LocalStore struct {
	baseURL    string // Server URL (e.g., "http://localhost:8080")
	rootDir    string // Local directory for documents (e.g., "./invoices")
	signingKey []byte
}

// NewLocalStore creates a new filesystem document store
func NewLocalStore(baseURL, rootDir string) (*LocalStore, error) {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create documents directory: %w", err)
	}

	// Links signed with a random key stay valid for this process only.
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate signing key: %w", err)
	}

	return &LocalStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		rootDir:    rootDir,
		signingKey: key,
	}, nil
}

// WithSigningKey makes download links verifiable across restarts.
func (s *LocalStore) WithSigningKey(secret string) *LocalStore {
	if secret != "" {
		s.signingKey = []byte(secret)
	}
	return s
}

// Put writes the document through a temp file so readers never see a
// partial invoice.
func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	fullPath, err := s.path(key)
	if err != nil {
		return err
	}

	// Create parent directories
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return fmt.Errorf("failed to store file: %w", err)
	}

	logger.Debug("Stored document", "key", key, "path", fullPath)
	return nil
}

// Open opens a document for reading
func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := s.path(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Exists checks if the document exists in the local filesystem
func (s *LocalStore) Exists(ctx context.Context, key string) (bool, int64, error) {
	fullPath, err := s.path(key)
	if err != nil {
		return false, 0, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, 0, nil
		}
		logger.Debug("Stat failed", "key", key, "error", err)
		return false, 0, err
	}
	return true, info.Size(), nil
}

// Delete deletes the document from the local filesystem
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	fullPath, err := s.path(key)
	if err != nil {
		return err
	}

	err = os.Remove(fullPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// PresignedDownloadURL generates a download URL served by the document
// handler. The token binds the key to its expiry.
func (s *LocalStore) PresignedDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	expires := strconv.FormatInt(time.Now().Add(expiresIn).Unix(), 10)

	q := url.Values{}
	q.Set("key", key)
	q.Set("expires", expires)

	return fmt.Sprintf("%s/api/documents/%s?%s", s.baseURL, s.sign(key, expires), q.Encode()), nil
}

// VerifyDownload checks a token produced by PresignedDownloadURL.
func (s *LocalStore) VerifyDownload(key, token, expires string, now time.Time) bool {
	unix, err := strconv.ParseInt(expires, 10, 64)
	if err != nil || now.Unix() > unix {
		return false
	}
	return hmac.Equal([]byte(token), []byte(s.sign(key, expires)))
}

// path resolves key inside the root directory, refusing traversal.
func (s *LocalStore) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if key == "" || clean == "/" {
		return "", fmt.Errorf("invalid document key %q", key)
	}
	return filepath.Join(s.rootDir, clean), nil
}

// sign creates a URL-safe MAC of the key and expiry
func (s *LocalStore) sign(key, expires string) string {
	mac := hmac.New(sha256.New, s.signingKey)
	mac.Write([]byte(key + "|" + expires))
	return hex.EncodeToString(mac.Sum(nil)[:16]) // Use first 16 bytes
}
