package upload

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const gcsPrefix = "uploads/"

// GCSStore はCloud Storageバケットに保存するStore実装。
// オブジェクトは uploads/<key> に配置する。
type GCSStore struct {
	bucketName string
	client     *storage.Client
	now        func() time.Time
}

// NewGCSStore はCloud Storageクライアントを生成してGCSStoreを返す。
func NewGCSStore(ctx context.Context, bucketName string, opts ...option.ClientOption) (*GCSStore, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}
	return &GCSStore{bucketName: bucketName, client: client, now: time.Now}, nil
}

// Save はオブジェクトを書き込む。
func (s *GCSStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	key := Key(s.now(), name)
	obj := s.client.Bucket(s.bucketName).Object(gcsPrefix + key)

	w := obj.NewWriter(ctx)
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", goerr.Wrap(err, "failed to write upload object", goerr.V("key", key))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize upload object", goerr.V("key", key))
	}
	return key, nil
}

// PurgeOlderThan は作成日時がcutoffより前のオブジェクトを削除する。
func (s *GCSStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	bucket := s.client.Bucket(s.bucketName)
	it := bucket.Objects(ctx, &storage.Query{Prefix: gcsPrefix})

	removed := 0
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return removed, goerr.Wrap(err, "failed to list upload objects", goerr.V("bucket", s.bucketName))
		}
		if !attrs.Created.Before(cutoff) {
			continue
		}
		if err := bucket.Object(attrs.Name).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return removed, goerr.Wrap(err, "failed to delete upload object", goerr.V("name", attrs.Name))
		}
		removed++
	}
	return removed, nil
}

// Close はクライアントを閉じる。
func (s *GCSStore) Close() error {
	return s.client.Close()
}

var _ Store = (*GCSStore)(nil)
