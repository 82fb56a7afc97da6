// Package upload は検査ファイルの一時保存を提供する。
// 保存したファイルは保持期間の経過後にcleanupジョブが削除する。
package upload

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// Store はアップロードファイルの一時保存先のインターフェース。
type Store interface {
	// Save はファイルを保存し、保存先のキーを返す。
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	// PurgeOlderThan はcutoffより前に保存されたファイルを削除し、削除件数を返す。
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// Key は保存時刻とファイル名からキーを生成する。
// クライアントが送ったパス要素は取り除く。
func Key(now time.Time, name string) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), BaseName(name))
}

// BaseName はファイル名からディレクトリ部分を取り除く。
func BaseName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	switch base {
	case ".", "/", "..", "":
		return "upload"
	}
	return base
}
