package model

import (
	"encoding/base64"
	"strings"
	"time"
)

// Cursor は履歴ページネーションの位置を表す。
// 最後に返したInteractionの(Timestamp, ID)で、timestamp降順・ID降順の並びでこれより後ろを取得する。
type Cursor struct {
	Timestamp time.Time
	ID        string
}

// CursorOf はInteractionの位置を表すCursorを返す。
func CursorOf(it *Interaction) *Cursor {
	return &Cursor{Timestamp: it.Timestamp, ID: it.ID}
}

// Encode はCursorをクライアントに渡す不透明な文字列に変換する。
func (c *Cursor) Encode() string {
	raw := c.Timestamp.UTC().Format(time.RFC3339Nano) + "|" + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Before はInteractionがtimestamp降順・ID降順の並びでカーソルより後ろにあるかを返す。
func (c *Cursor) Before(it *Interaction) bool {
	if it.Timestamp.Equal(c.Timestamp) {
		return it.ID < c.ID
	}
	return it.Timestamp.Before(c.Timestamp)
}

// ParseCursor はEncodeで生成した文字列をCursorに戻す。
// 不正な値の場合はバリデーションエラーを返す。
func ParseCursor(s string) (*Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, NewValidationError("Invalid cursor")
	}
	ts, id, ok := strings.Cut(string(raw), "|")
	if !ok || id == "" {
		return nil, NewValidationError("Invalid cursor")
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, NewValidationError("Invalid cursor")
	}
	return &Cursor{Timestamp: t, ID: id}, nil
}
