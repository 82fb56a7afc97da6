package middleware

import (
	"net/http"
	"strings"

	"github.com/exammine/exammine/internal/model"
)

// corsPolicy は単一オリジンに対するCORS設定。
type corsPolicy struct {
	origin string
}

func (p corsPolicy) allows(origin string) bool {
	return strings.TrimSuffix(origin, "/") == p.origin
}

func (p corsPolicy) apply(h http.Header) {
	h.Set("Access-Control-Allow-Origin", p.origin)
	h.Set("Access-Control-Allow-Credentials", "true")
	h.Set("Access-Control-Expose-Headers", "X-Next-Cursor, Retry-After")
}

func (p corsPolicy) applyPreflight(h http.Header) {
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
	h.Set("Access-Control-Max-Age", "86400")
}

// NewCORSMiddleware はallowedOriginからのブラウザリクエストだけにCORSヘッダーを返すミドルウェアを生成する。
// Originが一致しないリクエストにはAllow-Originを付けず、プリフライトは403で拒否する。
// Originヘッダーのないリクエスト（同一オリジン、curl等）はそのまま通す。
func NewCORSMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	policy := corsPolicy{origin: strings.TrimSuffix(allowedOrigin, "/")}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Origin")

			origin := r.Header.Get("Origin")
			allowed := origin != "" && policy.allows(origin)
			if allowed {
				policy.apply(w.Header())
			}

			if r.Method != http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			switch {
			case origin == "":
				w.WriteHeader(http.StatusNoContent)
			case allowed:
				policy.applyPreflight(w.Header())
				w.WriteHeader(http.StatusNoContent)
			default:
				WriteErrorResponse(w, http.StatusForbidden, &model.APIError{
					Code:   model.ErrCodeValidation,
					Detail: "Origin not allowed",
				})
			}
		})
	}
}
