package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// FileStore はローカルディレクトリに保存するStore実装。
type FileStore struct {
	dir string
	now func() time.Time
}

// NewFileStore はディレクトリを作成してFileStoreを返す。
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

// Dir は保存先ディレクトリを返す。
func (s *FileStore) Dir() string {
	return s.dir
}

// Save はファイルをディレクトリに書き込む。
func (s *FileStore) Save(_ context.Context, name string, r io.Reader) (string, error) {
	key := Key(s.now(), name)

	f, err := os.OpenFile(filepath.Join(s.dir, key), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close upload file: %w", err)
	}
	return key, nil
}

// PurgeOlderThan は更新日時がcutoffより前のファイルを削除する。
// サブディレクトリは対象外。
func (s *FileStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read upload directory: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("failed to remove upload file %s: %w", e.Name(), err)
		}
		removed++
	}
	return removed, nil
}

var _ Store = (*FileStore)(nil)
