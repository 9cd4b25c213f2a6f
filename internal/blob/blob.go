// Package blob stores item images behind a small S3-like interface.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Driver identifies a blob backend
type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
	DriverMemory     Driver = "memory"
)

var (
	ErrNotFound = errors.New("blob not found")
	ErrExists   = errors.New("blob already exists")
)

// PutOptions configures a write
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Info describes a stored blob
type Info struct {
	Key          string
	Size         int64
	ContentType  string
	ETag         string
	Metadata     map[string]string
	LastModified time.Time
}

// Store is implemented by every driver. Put never overwrites an existing key.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

// Move copies src to dst and deletes src.
func Move(ctx context.Context, s Store, src, dst string) (Info, error) {
	info, body, err := s.Get(ctx, src)
	if err != nil {
		return Info{}, err
	}
	defer body.Close()

	moved, err := s.Put(ctx, dst, body, PutOptions{ContentType: info.ContentType, Metadata: info.Metadata})
	if err != nil {
		return Info{}, fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	if _, err := s.Delete(ctx, src); err != nil {
		return moved, fmt.Errorf("removing %s: %w", src, err)
	}
	return moved, nil
}

func notFound(key string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, key)
}

func exists(key string) error {
	return fmt.Errorf("%w: %s", ErrExists, key)
}

func cloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func hasPrefix(key, prefix string) bool {
	return prefix == "" || strings.HasPrefix(key, prefix)
}
