package blob

import (
	"chat-sync/errors"
	"context"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore writes blobs below a root directory. URLs are baseURL joined with the
// path, or file URLs when no baseURL is configured.
type DiskStore struct {
	root    string
	baseURL string
}

func NewDiskStore(root, baseURL string) (*DiskStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{root: abs, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (d *DiskStore) Upload(ctx context.Context, data []byte, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Network("disk upload", err)
	}
	key, err := cleanKey(path)
	if err != nil {
		return "", err
	}

	target := filepath.Join(d.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", errors.Network("disk upload", err)
	}
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", errors.Network("disk upload", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return "", errors.Network("disk upload", err)
	}

	if d.baseURL == "" {
		return "file://" + filepath.ToSlash(target), nil
	}
	return d.baseURL + "/" + escapeKey(key), nil
}
