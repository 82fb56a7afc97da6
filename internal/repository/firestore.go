package repository

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/exammine/exammine/internal/model"
)

const (
	collectionUsers        = "users"
	collectionInteractions = "interactions"
)

// FirestoreStore はCloud Firestoreを使用したStore実装。
// ユーザーは users/{uid}、履歴は users/{uid}/interactions/{autoID} に保存する。
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore はFirestoreクライアントを生成してFirestoreStoreを返す。
// databaseIDが空の場合は(default)データベースを使用する。
func NewFirestoreStore(ctx context.Context, projectID, databaseID string, opts ...option.ClientOption) (*FirestoreStore, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project_id", projectID), goerr.V("database_id", databaseID))
	}
	return &FirestoreStore{client: client}, nil
}

func (s *FirestoreStore) interactions(uid string) *firestore.CollectionRef {
	return s.client.Collection(collectionUsers).Doc(uid).Collection(collectionInteractions)
}

// Touch はトランザクション内でユーザードキュメントを作成またはマージ更新する。
func (s *FirestoreStore) Touch(ctx context.Context, user *model.User, now time.Time) error {
	ref := s.client.Collection(collectionUsers).Doc(user.UID)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		_, err := tx.Get(ref)
		exists := err == nil
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}

		data := map[string]interface{}{
			"uid":         user.UID,
			"email":       user.Email,
			"displayName": user.DisplayName,
			"photoURL":    user.PhotoURL,
			"lastLogin":   now,
		}
		if !exists {
			data["createdAt"] = now
		}
		return tx.Set(ref, data, firestore.MergeAll)
	})
	if err != nil {
		return goerr.Wrap(err, "failed to touch user", goerr.V("uid", user.UID))
	}
	return nil
}

// FindByID は指定UIDのユーザーを取得する。見つからない場合はnilを返す。
func (s *FirestoreStore) FindByID(ctx context.Context, uid string) (*model.User, error) {
	snap, err := s.client.Collection(collectionUsers).Doc(uid).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get user", goerr.V("uid", uid))
	}

	var user model.User
	if err := snap.DataTo(&user); err != nil {
		return nil, goerr.Wrap(err, "failed to decode user", goerr.V("uid", uid))
	}
	return &user, nil
}

// Create は履歴ドキュメントを自動採番IDで追加する。
// timestampはサーバー時刻で設定される。
func (s *FirestoreStore) Create(ctx context.Context, it *model.Interaction) (string, error) {
	doc := *it
	doc.Timestamp = time.Time{}

	ref := s.interactions(it.UID).NewDoc()
	if _, err := ref.Create(ctx, &doc); err != nil {
		return "", goerr.Wrap(err, "failed to create interaction",
			goerr.V("uid", it.UID), goerr.V("agent_type", it.AgentType))
	}
	return ref.ID, nil
}

// ListByUser はtimestamp降順・ドキュメントID降順で履歴を取得する。
func (s *FirestoreStore) ListByUser(ctx context.Context, uid string, limit int, after *model.Cursor) ([]*model.Interaction, error) {
	coll := s.interactions(uid)
	q := coll.OrderBy("timestamp", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Desc)
	if after != nil {
		q = q.StartAfter(after.Timestamp, coll.Doc(after.ID))
	}

	iter := q.Limit(limit).Documents(ctx)
	defer iter.Stop()

	result := make([]*model.Interaction, 0, limit)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list interactions", goerr.V("uid", uid))
		}

		var it model.Interaction
		if err := snap.DataTo(&it); err != nil {
			return nil, goerr.Wrap(err, "failed to decode interaction",
				goerr.V("uid", uid), goerr.V("id", snap.Ref.ID))
		}
		it.ID = snap.Ref.ID
		result = append(result, &it)
	}
	return result, nil
}

// Ping はusersコレクションを1件読み出して疎通を確認する。
func (s *FirestoreStore) Ping(ctx context.Context) error {
	iter := s.client.Collection(collectionUsers).Limit(1).Documents(ctx)
	defer iter.Stop()

	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return goerr.Wrap(err, "failed to reach firestore")
	}
	return nil
}

// Close はFirestoreクライアントを閉じる。
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

var _ Store = (*FirestoreStore)(nil)
