package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalClient implements local file system storage
type LocalClient struct {
	basePath string
}

// NewLocalClient creates a new local storage client
func NewLocalClient(basePath string) (*LocalClient, error) {
	if basePath == "" {
		basePath = "./uploads"
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %v", err)
	}

	return &LocalClient{basePath: basePath}, nil
}

// Upload saves data from a stream to the local file system. The write goes
// to a temp file first and is renamed into place so a failed upload never
// leaves a partial destination visible.
func (lc *LocalClient) Upload(ctx context.Context, key string, reader io.Reader, size int64) error {
	fullPath := filepath.Join(lc.basePath, key)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %v", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %v", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := copyWithContext(ctx, tmp, reader); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to flush temp file: %v", err)
	}

	return os.Rename(tmp.Name(), fullPath)
}

// Download returns a reader for the file.
func (lc *LocalClient) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(lc.basePath, key))
}

// Delete removes a file from the local file system. A missing file counts
// as deleted.
func (lc *LocalClient) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(lc.basePath, key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Exists checks if a file exists
func (lc *LocalClient) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(filepath.Join(lc.basePath, key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetSize returns the size of a file
func (lc *LocalClient) GetSize(ctx context.Context, key string) (int64, error) {
	info, err := os.Stat(filepath.Join(lc.basePath, key))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Copy duplicates the bytes at sourceKey to destKey through the same
// temp-then-rename path as Upload.
func (lc *LocalClient) Copy(ctx context.Context, sourceKey, destKey string) error {
	src, err := lc.Download(ctx, sourceKey)
	if err != nil {
		return NewStorageError("local", "COPY_SOURCE_FAILED", err.Error(), sourceKey)
	}
	defer src.Close()

	if err := lc.Upload(ctx, destKey, src, 0); err != nil {
		return NewStorageError("local", "COPY_FAILED", err.Error(), destKey)
	}
	return nil
}

// copyWithContext copies in chunks, checking for cancellation between
// chunks so an abandoned request doesn't keep writing.
func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) error {
	buf := make([]byte, 256*1024)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
