package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/exammine/exammine/internal/auth"
	"github.com/exammine/exammine/internal/config"
	"github.com/exammine/exammine/internal/database"
	"github.com/exammine/exammine/internal/repository"
	"github.com/exammine/exammine/internal/upload"
)

// databaseConnectTimeout はPostgreSQLへの初回接続確認のタイムアウト。
const databaseConnectTimeout = 10 * time.Second

// credentialsFromConfig はGCPクライアント共通の認証情報を組み立てる。
func credentialsFromConfig(cfg *config.Config) auth.Credentials {
	return auth.Credentials{
		ProjectID: cfg.FirebaseProjectID,
		JSON:      cfg.FirebaseCredentialsJSON,
		File:      cfg.FirebaseCredentialsFile,
	}
}

// openStore はSTORE_BACKENDに応じたユーザー・履歴ストアを開く。
func openStore(ctx context.Context, cfg *config.Config, creds auth.Credentials) (repository.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		slog.Warn("using in-memory store; interactions are lost on restart")
		return repository.NewMemoryStore(), nil

	case config.StorePostgres:
		db, err := database.OpenAndPing(ctx, cfg.DatabaseURL, databaseConnectTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		slog.Info("database connection established",
			slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
		)
		return repository.NewPostgresStore(db), nil

	case config.StoreFirestore:
		store, err := repository.NewFirestoreStore(ctx, creds.ProjectID, cfg.FirestoreDatabaseID, creds.ClientOptions()...)
		if err != nil {
			return nil, err
		}
		slog.Info("firestore client initialized",
			slog.String("project_id", creds.ProjectID),
			slog.String("database_id", cfg.FirestoreDatabaseID),
		)
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported store backend: %q", cfg.StoreBackend)
	}
}

// uploadStore はクローズ可能なupload.Store。
type uploadStore interface {
	upload.Store
	Close() error
}

// localUploadStore はクローズ処理を持たないFileStoreをuploadStoreに合わせる。
type localUploadStore struct {
	*upload.FileStore
}

func (localUploadStore) Close() error { return nil }

// openUploadStore はUPLOAD_BUCKETが設定されていればCloud Storage、なければローカルディレクトリを保存先にする。
func openUploadStore(ctx context.Context, cfg *config.Config, creds auth.Credentials) (uploadStore, error) {
	if cfg.UploadBucket != "" {
		store, err := upload.NewGCSStore(ctx, cfg.UploadBucket, creds.ClientOptions()...)
		if err != nil {
			return nil, err
		}
		slog.Info("upload store: cloud storage", slog.String("bucket", cfg.UploadBucket))
		return store, nil
	}

	store, err := upload.NewFileStore(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare upload directory: %w", err)
	}
	slog.Info("upload store: local directory", slog.String("dir", store.Dir()))
	return localUploadStore{store}, nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
