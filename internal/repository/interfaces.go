// Package repository はデータ永続化のインターフェースと実装を提供する。
package repository

import (
	"context"
	"time"

	"github.com/exammine/exammine/internal/model"
)

// UserRepository はユーザープロフィールの永続化インターフェース。
type UserRepository interface {
	// Touch はユーザーを作成または更新する。
	// 新規作成時のみcreatedAtを設定し、既存ユーザーではcreatedAtを保持したまま
	// email、displayName、photoURL、lastLoginを更新する。
	// 同一ユーザーの並行呼び出しに対して安全でなければならない。
	Touch(ctx context.Context, user *model.User, now time.Time) error

	// FindByID は指定UIDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, uid string) (*model.User, error)
}

// InteractionRepository はやり取り履歴の永続化インターフェース。
// 履歴は追記のみで、更新・削除は行わない。
type InteractionRepository interface {
	// Create は履歴を1件追記し、採番されたIDを返す。
	// Timestampは書き込み時のサーバー時刻で設定される。
	Create(ctx context.Context, it *model.Interaction) (string, error)

	// ListByUser はユーザーの履歴をtimestamp降順（同時刻はID降順）で最大limit件返す。
	// afterが指定された場合はその位置より後ろの履歴のみを返す。
	ListByUser(ctx context.Context, uid string, limit int, after *model.Cursor) ([]*model.Interaction, error)
}

// HealthChecker はストアへの疎通確認インターフェース。
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Store はアプリケーションが利用するストア一式。
type Store interface {
	UserRepository
	InteractionRepository
	HealthChecker
	Close() error
}
