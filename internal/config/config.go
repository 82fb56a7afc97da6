package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ストアバックエンドの種類
const (
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
	StoreMemory    = "memory"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string

	// Store
	StoreBackend string
	DatabaseURL  string

	// Firebase
	FirebaseProjectID       string
	FirebaseCredentialsJSON string
	FirebaseCredentialsFile string
	FirestoreDatabaseID     string
	UserUpsertTimeout       time.Duration

	// Upload
	UploadDir             string
	UploadBucket          string
	UploadMaxBytes        int64
	UploadRetention       time.Duration
	UploadCleanupInterval time.Duration

	// Rate Limit (req/min)
	RateLimitGeneral int
	RateLimitUpload  int

	// History
	HistoryDefaultLimit int
	HistoryMaxLimit     int

	// Logging
	LogLevel  string
	LogFormat string
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envがあれば先に読み込む（既存の環境変数は上書きしない）。
// 選択したストアに必要な環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}

	cfg.StoreBackend = strings.ToLower(getEnvString("STORE_BACKEND", StoreFirestore))
	switch cfg.StoreBackend {
	case StoreFirestore, StorePostgres, StoreMemory:
	default:
		return nil, fmt.Errorf("unsupported STORE_BACKEND: %q", cfg.StoreBackend)
	}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.StoreBackend == StorePostgres && cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.ServerPort = getEnvString("SERVER_PORT", getEnvString("PORT", "8000"))
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173")
	cfg.FirebaseProjectID = getEnvString("FIREBASE_PROJECT_ID", "exam-mine")
	cfg.FirebaseCredentialsJSON = os.Getenv("FIREBASE_SERVICE_ACCOUNT")
	cfg.FirebaseCredentialsFile = os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
	cfg.FirestoreDatabaseID = getEnvString("FIRESTORE_DATABASE_ID", "(default)")
	cfg.UserUpsertTimeout = getEnvDuration("USER_UPSERT_TIMEOUT", 10*time.Second)
	cfg.UploadDir = getEnvString("UPLOAD_DIR", "uploads")
	cfg.UploadBucket = os.Getenv("UPLOAD_BUCKET")
	cfg.UploadMaxBytes = getEnvInt64("UPLOAD_MAX_BYTES", 5*1024*1024)
	cfg.UploadRetention = getEnvDuration("UPLOAD_RETENTION", 24*time.Hour)
	cfg.UploadCleanupInterval = getEnvDuration("UPLOAD_CLEANUP_INTERVAL", time.Hour)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitUpload = getEnvInt("RATE_LIMIT_UPLOAD", 10)
	cfg.HistoryDefaultLimit = getEnvInt("HISTORY_DEFAULT_LIMIT", 50)
	cfg.HistoryMaxLimit = getEnvInt("HISTORY_MAX_LIMIT", 100)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.LogFormat = getEnvString("LOG_FORMAT", "json")

	if cfg.HistoryDefaultLimit > cfg.HistoryMaxLimit {
		cfg.HistoryDefaultLimit = cfg.HistoryMaxLimit
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
