package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/exammine/exammine/internal/model"
)

// MemoryStore はプロセス内メモリを使用したStore実装。
// ローカル開発とテストで使用する。
type MemoryStore struct {
	mu           sync.Mutex
	users        map[string]*model.User
	interactions map[string][]*model.Interaction
	now          func() time.Time
}

// NewMemoryStore はMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[string]*model.User),
		interactions: make(map[string][]*model.Interaction),
		now:          time.Now,
	}
}

// SetClock は書き込み時刻の取得関数を差し替える。テスト用。
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Touch はユーザーを作成または更新する。
func (s *MemoryStore) Touch(_ context.Context, user *model.User, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *user
	stored.LastLogin = now
	stored.CreatedAt = now
	if existing, ok := s.users[user.UID]; ok {
		stored.CreatedAt = existing.CreatedAt
	}
	s.users[user.UID] = &stored
	return nil
}

// FindByID は指定UIDのユーザーを取得する。見つからない場合はnilを返す。
func (s *MemoryStore) FindByID(_ context.Context, uid string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[uid]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

// Create は履歴を1件追記する。
func (s *MemoryStore) Create(_ context.Context, it *model.Interaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	stored := *it
	stored.ID = id.String()
	stored.Timestamp = s.now().UTC()
	s.interactions[it.UID] = append(s.interactions[it.UID], &stored)
	return stored.ID, nil
}

// ListByUser はユーザーの履歴をtimestamp降順で返す。
func (s *MemoryStore) ListByUser(_ context.Context, uid string, limit int, after *model.Cursor) ([]*model.Interaction, error) {
	s.mu.Lock()
	all := make([]*model.Interaction, len(s.interactions[uid]))
	copy(all, s.interactions[uid])
	s.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].Timestamp.Equal(all[j].Timestamp) {
			return all[i].ID > all[j].ID
		}
		return all[i].Timestamp.After(all[j].Timestamp)
	})

	result := make([]*model.Interaction, 0, limit)
	for _, it := range all {
		if len(result) >= limit {
			break
		}
		if after != nil && !after.Before(it) {
			continue
		}
		copied := *it
		result = append(result, &copied)
	}
	return result, nil
}

// Ping は常に成功する。
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Close は何もしない。
func (s *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
