// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/exammine/exammine/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	// identityContextKey はリクエストコンテキストにIdentityを格納するためのキー。
	identityContextKey = contextKey("identity")
	// identityHolderKey は外側のミドルウェアへ認証結果を渡すホルダーのキー。
	identityHolderKey = contextKey("identity_holder")
)

// identityHolder は内側で確定したIdentityを外側のロギングから参照するための入れ物。
type identityHolder struct {
	mu       sync.Mutex
	identity *model.Identity
}

func (h *identityHolder) set(identity *model.Identity) {
	h.mu.Lock()
	h.identity = identity
	h.mu.Unlock()
}

func (h *identityHolder) uid() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.identity == nil {
		return ""
	}
	return h.identity.UID
}

func contextWithIdentityHolder(ctx context.Context, h *identityHolder) context.Context {
	return context.WithValue(ctx, identityHolderKey, h)
}

// Authenticator はAuthorizationヘッダーを検証するインターフェース。
// auth.Gatewayが実装する。
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (*model.Identity, error)
}

// NewRequireAuthMiddleware はBearerトークンを必須とするミドルウェアを返す。
// 検証に成功した場合はIdentityをリクエストコンテキストに注入する。
func NewRequireAuthMiddleware(a Authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := a.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				writeAuthError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}

// NewOptionalAuthMiddleware はAuthorizationヘッダーがない場合は匿名で通すミドルウェアを返す。
// ヘッダーが送られた場合はRequireAuthと同様に検証し、無効なら401を返す。
func NewOptionalAuthMiddleware(a Authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := a.Authenticate(r.Context(), header)
			if err != nil {
				writeAuthError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}

func writeAuthError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		apiErr = model.NewInvalidTokenError()
	}
	WriteErrorResponse(w, http.StatusUnauthorized, apiErr)
}

// IdentityFromContext はリクエストコンテキストからIdentityを取得する。
// 匿名リクエストではnil, falseを返す。
func IdentityFromContext(ctx context.Context) (*model.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*model.Identity)
	if !ok || identity == nil || identity.UID == "" {
		return nil, false
	}
	return identity, true
}

// ContextWithIdentity はコンテキストにIdentityを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	if h, ok := ctx.Value(identityHolderKey).(*identityHolder); ok {
		h.set(identity)
	}
	return context.WithValue(ctx, identityContextKey, identity)
}
