// Package history はやり取り履歴の記録と参照を提供する。
package history

import (
	"context"
	"errors"
	"log/slog"

	"github.com/exammine/exammine/internal/metrics"
	"github.com/exammine/exammine/internal/model"
	"github.com/exammine/exammine/internal/repository"
)

// Page はListの戻り値。
// NextCursorは次のページが存在する場合のみ設定される。
type Page struct {
	Items      []*model.Interaction
	NextCursor string
}

// Service は履歴のビジネスロジックを提供する。
type Service struct {
	repo         repository.InteractionRepository
	metrics      metrics.MetricsCollector
	defaultLimit int
	maxLimit     int
}

// NewService はServiceを生成する。
func NewService(repo repository.InteractionRepository, collector metrics.MetricsCollector, defaultLimit, maxLimit int) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	if maxLimit <= 0 {
		maxLimit = 100
	}
	if defaultLimit <= 0 || defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{
		repo:         repo,
		metrics:      collector,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// Record は認証済みユーザーのやり取りを記録する。
// 匿名の呼び出しは記録しない。書き込みに失敗してもエラーは返さず、ログとメトリクスに残す。
func (s *Service) Record(ctx context.Context, identity *model.Identity, agentType model.AgentType, question, answer string) {
	if identity == nil || identity.UID == "" {
		return
	}

	id, err := s.repo.Create(ctx, &model.Interaction{
		UID:       identity.UID,
		UserEmail: identity.Email,
		AgentType: agentType,
		Question:  question,
		Answer:    answer,
	})
	if err != nil {
		s.metrics.RecordHistoryWriteFailure()
		slog.ErrorContext(ctx, "failed to record interaction",
			slog.String("user_id", identity.UID),
			slog.String("agent_type", string(agentType)),
			slog.String("error", err.Error()),
		)
		return
	}

	slog.DebugContext(ctx, "interaction recorded",
		slog.String("user_id", identity.UID),
		slog.String("interaction_id", id),
		slog.String("agent_type", string(agentType)),
	)
}

// ClampLimit はページサイズを[1, maxLimit]に収める。0以下はデフォルト値になる。
func (s *Service) ClampLimit(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	if limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}

// List はユーザーの履歴を新しい順に1ページ分返す。
// limit+1件を取得して次ページの有無を判定する。
func (s *Service) List(ctx context.Context, uid string, limit int, cursor string) (*Page, error) {
	limit = s.ClampLimit(limit)

	var after *model.Cursor
	if cursor != "" {
		c, err := model.ParseCursor(cursor)
		if err != nil {
			return nil, err
		}
		after = c
	}

	items, err := s.repo.ListByUser(ctx, uid, limit+1, after)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			return nil, apiErr
		}
		return nil, model.NewUpstreamUnavailableError("getting interaction history", err)
	}

	page := &Page{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		page.NextCursor = model.CursorOf(page.Items[limit-1]).Encode()
	}
	return page, nil
}
