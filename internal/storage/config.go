package storage

import (
	"context"
	"fmt"
)

// Config holds storage configuration
type Config struct {
	Type      string // "local" or "minio"
	LocalDir  string // Directory for local storage
	BaseURL   string // Server base URL for generating local download URLs
	SignKey   string // Secret for local download links
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// New builds the document store selected by cfg.Type.
func New(ctx context.Context, cfg Config) (DocumentStore, error) {
	switch cfg.Type {
	case "", "local":
		store, err := NewLocalStore(cfg.BaseURL, cfg.LocalDir)
		if err != nil {
			return nil, err
		}
		return store.WithSigningKey(cfg.SignKey), nil
	case "minio":
		store, err := NewMinIOStore(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, cfg.Bucket, cfg.UseSSL)
		if err != nil {
			return nil, err
		}
		if err := store.CheckBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
