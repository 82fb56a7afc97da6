package upload_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/exammine/exammine/internal/upload"
)

func TestKey_StripsPathComponents(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	gt.Equal(t, upload.Key(now, "exame.pdf"), "1700000000123-exame.pdf")
	gt.Equal(t, upload.Key(now, "../../etc/passwd"), "1700000000123-passwd")
	gt.Equal(t, upload.Key(now, `C:\Users\ana\hemograma.pdf`), "1700000000123-hemograma.pdf")
	gt.Equal(t, upload.Key(now, ""), "1700000000123-upload")
	gt.Equal(t, upload.Key(now, ".."), "1700000000123-upload")
}

func TestFileStore_SaveWritesContent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := upload.NewFileStore(dir)
	gt.NoError(t, err)

	key, err := store.Save(context.Background(), "sub/dir/exame.pdf", strings.NewReader("%PDF-1.4"))
	gt.NoError(t, err)
	gt.True(t, strings.HasSuffix(key, "-exame.pdf"))

	data, err := os.ReadFile(filepath.Join(dir, key))
	gt.NoError(t, err)
	gt.Equal(t, string(data), "%PDF-1.4")
}

func TestFileStore_PurgeOlderThan_RemovesOnlyExpired(t *testing.T) {
	dir := t.TempDir()
	store, err := upload.NewFileStore(dir)
	gt.NoError(t, err)
	ctx := context.Background()

	oldKey, err := store.Save(ctx, "old.pdf", strings.NewReader("old"))
	gt.NoError(t, err)
	newKey, err := store.Save(ctx, "new.pdf", strings.NewReader("new"))
	gt.NoError(t, err)
	gt.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	past := time.Now().Add(-48 * time.Hour)
	gt.NoError(t, os.Chtimes(filepath.Join(dir, oldKey), past, past))

	removed, err := store.PurgeOlderThan(ctx, time.Now().Add(-24*time.Hour))
	gt.NoError(t, err)
	gt.Equal(t, removed, 1)

	_, err = os.Stat(filepath.Join(dir, oldKey))
	gt.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, newKey))
	gt.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "nested"))
	gt.NoError(t, err)
}

func TestFileStore_PurgeOlderThan_EmptyDirectory(t *testing.T) {
	store, err := upload.NewFileStore(t.TempDir())
	gt.NoError(t, err)

	removed, err := store.PurgeOlderThan(context.Background(), time.Now())
	gt.NoError(t, err)
	gt.Equal(t, removed, 0)
}

func TestGCSStore_Integration(t *testing.T) {
	bucket := os.Getenv("TEST_UPLOAD_BUCKET")
	if bucket == "" {
		t.Skip("TEST_UPLOAD_BUCKET must be set to run Cloud Storage tests")
	}
	ctx := context.Background()

	store, err := upload.NewGCSStore(ctx, bucket)
	gt.NoError(t, err)
	defer store.Close()

	key, err := store.Save(ctx, "integration.pdf", strings.NewReader("%PDF"))
	gt.NoError(t, err)
	gt.True(t, strings.HasSuffix(key, "-integration.pdf"))

	_, err = store.PurgeOlderThan(ctx, time.Now().Add(time.Minute))
	gt.NoError(t, err)
}
