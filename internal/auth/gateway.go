package auth

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/exammine/exammine/internal/metrics"
	"github.com/exammine/exammine/internal/model"
	"github.com/exammine/exammine/internal/repository"
)

const bearerPrefix = "Bearer "

// DefaultUpsertTimeout はプロフィール更新1件あたりのタイムアウトのデフォルト値。
const DefaultUpsertTimeout = 10 * time.Second

// Gateway はAuthorizationヘッダーの検証とユーザープロフィールの更新を行う。
type Gateway struct {
	verifier      TokenVerifier
	users         repository.UserRepository
	metrics       metrics.MetricsCollector
	upsertTimeout time.Duration
	now           func() time.Time

	wg sync.WaitGroup
}

// NewGateway はGatewayを生成する。collectorがnilの場合はメトリクスを記録しない。
// upsertTimeoutが0以下の場合はDefaultUpsertTimeoutを使う。
func NewGateway(
	verifier TokenVerifier,
	users repository.UserRepository,
	collector metrics.MetricsCollector,
	upsertTimeout time.Duration,
) *Gateway {
	if collector == nil {
		collector = metrics.Nop{}
	}
	if upsertTimeout <= 0 {
		upsertTimeout = DefaultUpsertTimeout
	}
	return &Gateway{
		verifier:      verifier,
		users:         users,
		metrics:       collector,
		upsertTimeout: upsertTimeout,
		now:           time.Now,
	}
}

// BearerToken はAuthorizationヘッダーからトークンを取り出す。
// "Bearer <token>"形式でない場合は空文字を返す。
func BearerToken(header string) string {
	if !strings.HasPrefix(header, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}

// Authenticate はAuthorizationヘッダーを検証してIdentityを返す。
// 成功時はユーザープロフィールの更新をリクエストとは独立に非同期で行い、
// その成否はレスポンスに影響しない。
func (g *Gateway) Authenticate(ctx context.Context, header string) (*model.Identity, error) {
	token := BearerToken(header)
	if token == "" {
		return nil, model.NewUnauthenticatedError()
	}

	identity, err := g.verifier.Verify(ctx, token)
	if err != nil {
		slog.Warn("id token verification failed", slog.String("error", err.Error()))
		return nil, model.NewInvalidTokenError()
	}

	g.touchAsync(identity)
	return identity, nil
}

// touchAsync はリクエストのコンテキストから切り離してプロフィールを更新する。
func (g *Gateway) touchAsync(identity *model.Identity) {
	user := model.UserFromIdentity(identity)
	now := g.now().UTC()

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), g.upsertTimeout)
		defer cancel()

		if err := g.users.Touch(ctx, user, now); err != nil {
			g.metrics.RecordUserUpsertFailure()
			slog.Error("failed to update user profile",
				slog.String("user_id", user.UID),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// Close は実行中のプロフィール更新の完了を待つ。
// ctxがキャンセルされた場合は待機を打ち切る。
func (g *Gateway) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
