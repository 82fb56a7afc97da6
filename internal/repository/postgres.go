package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/exammine/exammine/internal/model"
)

// PostgresStore はPostgreSQLを使用したStore実装。
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore はPostgresStoreを生成する。
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Touch はユーザーをUPSERTする。created_atは新規作成時のみ設定される。
func (s *PostgresStore) Touch(ctx context.Context, user *model.User, now time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (uid, email, display_name, photo_url, created_at, last_login)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 ON CONFLICT (uid) DO UPDATE SET
		   email = EXCLUDED.email,
		   display_name = EXCLUDED.display_name,
		   photo_url = EXCLUDED.photo_url,
		   last_login = EXCLUDED.last_login`,
		user.UID, user.Email, user.DisplayName, user.PhotoURL, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// FindByID は指定UIDのユーザーを取得する。見つからない場合はnilを返す。
func (s *PostgresStore) FindByID(ctx context.Context, uid string) (*model.User, error) {
	user := &model.User{}
	err := s.db.QueryRowContext(ctx,
		`SELECT uid, email, display_name, photo_url, created_at, last_login FROM users WHERE uid = $1`,
		uid,
	).Scan(&user.UID, &user.Email, &user.DisplayName, &user.PhotoURL, &user.CreatedAt, &user.LastLogin)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by UID: %w", err)
	}
	return user, nil
}

// Create は履歴を1件追記する。IDはUUIDv7で採番し、timestampはDBの現在時刻を使う。
func (s *PostgresStore) Create(ctx context.Context, it *model.Interaction) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate interaction ID: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO interactions (id, uid, user_email, agent_type, question, answer, timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6, now())`,
		id.String(), it.UID, it.UserEmail, string(it.AgentType), it.Question, it.Answer,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert interaction: %w", err)
	}
	return id.String(), nil
}

// ListByUser はユーザーの履歴をtimestamp降順・ID降順で取得する。
// afterが指定された場合は行値比較でその位置より後ろのみを返す。
func (s *PostgresStore) ListByUser(ctx context.Context, uid string, limit int, after *model.Cursor) ([]*model.Interaction, error) {
	query := `SELECT id, uid, user_email, agent_type, question, answer, timestamp
		FROM interactions WHERE uid = $1`
	args := []interface{}{uid}

	if after != nil {
		afterID, err := uuid.Parse(after.ID)
		if err != nil {
			return nil, model.NewValidationError("Invalid cursor")
		}
		query += ` AND (timestamp, id) < ($2, $3)`
		args = append(args, after.Timestamp, afterID.String())
	}

	query += fmt.Sprintf(` ORDER BY timestamp DESC, id DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	defer rows.Close()

	result := make([]*model.Interaction, 0, limit)
	for rows.Next() {
		it := &model.Interaction{}
		var agentType string
		if err := rows.Scan(&it.ID, &it.UID, &it.UserEmail, &agentType, &it.Question, &it.Answer, &it.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		it.AgentType = model.AgentType(agentType)
		it.Timestamp = it.Timestamp.UTC()
		result = append(result, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate interactions: %w", err)
	}
	return result, nil
}

// Ping はDBへの疎通を確認する。
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close はDB接続を閉じる。
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

var _ Store = (*PostgresStore)(nil)
