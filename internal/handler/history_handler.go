package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/exammine/exammine/internal/history"
	"github.com/exammine/exammine/internal/middleware"
	"github.com/exammine/exammine/internal/model"
)

// NextCursorHeader は次ページのカーソルを返すレスポンスヘッダー。
const NextCursorHeader = "X-Next-Cursor"

// HistoryLister は履歴ハンドラーが必要とするサービスインターフェース。
type HistoryLister interface {
	List(ctx context.Context, uid string, limit int, cursor string) (*history.Page, error)
}

// HistoryHandler はやり取り履歴のHTTPハンドラー。
type HistoryHandler struct {
	service HistoryLister
}

// NewHistoryHandler はHistoryHandlerを生成する。
func NewHistoryHandler(service HistoryLister) *HistoryHandler {
	return &HistoryHandler{service: service}
}

// ListHistory は認証ユーザーの履歴を新しい順に返す。
// GET /api/history?limit=&cursor=
// ボディはInteractionの配列で、続きがある場合のみX-Next-Cursorヘッダーを付与する。
func (h *HistoryHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("Invalid limit"))
			return
		}
		limit = n
	}

	page, err := h.service.List(r.Context(), identity.UID, limit, r.URL.Query().Get("cursor"))
	if err != nil {
		handleServiceError(w, err, "getting interaction history")
		return
	}

	items := page.Items
	if items == nil {
		items = []*model.Interaction{}
	}
	if page.NextCursor != "" {
		w.Header().Set(NextCursorHeader, page.NextCursor)
	}
	writeJSON(w, http.StatusOK, items)
}
