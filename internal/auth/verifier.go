// Package auth はIDトークンの検証とユーザープロフィール更新を提供する。
package auth

import (
	"context"
	"os"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"

	"github.com/exammine/exammine/internal/model"
)

// TokenVerifier はIDトークン検証のインターフェース。
// 有効なトークンであれば呼び出し元のIdentityを返す。
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*model.Identity, error)
}

// Credentials はGCPクライアント共通の認証情報設定。
// JSONとFileの両方が空の場合はApplication Default Credentialsを使用する。
type Credentials struct {
	ProjectID string
	JSON      string
	File      string
}

// ClientOptions はFirebase、Firestore、Cloud Storageクライアント用のオプションを返す。
func (c Credentials) ClientOptions() []option.ClientOption {
	switch {
	case c.JSON != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(c.JSON))}
	case c.File != "":
		if _, err := os.Stat(c.File); err == nil {
			return []option.ClientOption{option.WithCredentialsFile(c.File)}
		}
	}
	return nil
}

// FirebaseVerifier はFirebase Authenticationを使用したTokenVerifier実装。
type FirebaseVerifier struct {
	client *fbauth.Client
}

// NewFirebaseApp はFirebaseアプリを初期化する。
func NewFirebaseApp(ctx context.Context, creds Credentials) (*firebase.App, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: creds.ProjectID}, creds.ClientOptions()...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize firebase app", goerr.V("project_id", creds.ProjectID))
	}
	return app, nil
}

// NewFirebaseVerifier はFirebaseアプリからAuthクライアントを取得してFirebaseVerifierを生成する。
func NewFirebaseVerifier(ctx context.Context, app *firebase.App) (*FirebaseVerifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firebase auth client")
	}
	return &FirebaseVerifier{client: client}, nil
}

// Verify はIDトークンの署名・有効期限・発行者を検証し、クレームからIdentityを組み立てる。
func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*model.Identity, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to verify id token")
	}
	return &model.Identity{
		UID:     token.UID,
		Email:   stringClaim(token.Claims, "email"),
		Name:    stringClaim(token.Claims, "name"),
		Picture: stringClaim(token.Claims, "picture"),
	}, nil
}

func stringClaim(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

var _ TokenVerifier = (*FirebaseVerifier)(nil)
