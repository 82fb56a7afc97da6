// Package model はドメインモデルを定義する。
package model

import "time"

// Identity は検証済みIDトークンから得られる呼び出し元の情報。
// リクエストコンテキストに格納される。
type Identity struct {
	UID     string
	Email   string
	Name    string
	Picture string
}

// User はユーザープロフィールを表す。
// 認証済みリクエストのたびにcreate-or-mergeで更新される。
// CreatedAtは初回作成時のみ設定され、以降は保持される。
type User struct {
	UID         string    `firestore:"uid" json:"uid"`
	Email       string    `firestore:"email" json:"email"`
	DisplayName string    `firestore:"displayName" json:"displayName,omitempty"`
	PhotoURL    string    `firestore:"photoURL" json:"photoURL,omitempty"`
	CreatedAt   time.Time `firestore:"createdAt" json:"createdAt"`
	LastLogin   time.Time `firestore:"lastLogin" json:"lastLogin"`
}

// UserFromIdentity はIdentityからプロフィール更新用のUserを組み立てる。
func UserFromIdentity(id *Identity) *User {
	return &User{
		UID:         id.UID,
		Email:       id.Email,
		DisplayName: id.Name,
		PhotoURL:    id.Picture,
	}
}
