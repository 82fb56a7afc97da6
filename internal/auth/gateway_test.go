package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/exammine/exammine/internal/model"
)

// --- モック定義 ---

type mockVerifier struct {
	verifyFn func(ctx context.Context, idToken string) (*model.Identity, error)
}

func (m *mockVerifier) Verify(ctx context.Context, idToken string) (*model.Identity, error) {
	return m.verifyFn(ctx, idToken)
}

type mockUserRepo struct {
	mu      sync.Mutex
	touched []*model.User
	touchFn func(ctx context.Context, user *model.User, now time.Time) error
}

func (m *mockUserRepo) Touch(ctx context.Context, user *model.User, now time.Time) error {
	m.mu.Lock()
	m.touched = append(m.touched, user)
	m.mu.Unlock()
	if m.touchFn != nil {
		return m.touchFn(ctx, user, now)
	}
	return nil
}

func (m *mockUserRepo) FindByID(_ context.Context, _ string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) touchedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.touched)
}

type mockMetrics struct {
	mu             sync.Mutex
	upsertFailures int
}

func (m *mockMetrics) RecordAgentRequest(string) {}
func (m *mockMetrics) RecordAgentLatency(string, time.Duration) {}
func (m *mockMetrics) RecordHistoryWriteFailure() {}
func (m *mockMetrics) RecordHTTPStatus(int) {}
func (m *mockMetrics) RecordUploadSize(int64) {}
func (m *mockMetrics) RecordUploadsPurged(int) {}
func (m *mockMetrics) RecordUserUpsertFailure() {
	m.mu.Lock()
	m.upsertFailures++
	m.mu.Unlock()
}

func validVerifier() *mockVerifier {
	return &mockVerifier{
		verifyFn: func(_ context.Context, idToken string) (*model.Identity, error) {
			if idToken != "good-token" {
				return nil, errors.New("token expired")
			}
			return &model.Identity{UID: "uid-1", Email: "ana@example.com", Name: "Ana", Picture: "https://example.com/a.png"}, nil
		},
	}
}

func apiErrorCode(t *testing.T, err error) string {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T: %v", err, err)
	}
	return apiErr.Code
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"Bearer  abc ", "abc"},
		{"Bearer ", ""},
		{"bearer abc", ""},
		{"Basic abc", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := BearerToken(tt.header); got != tt.want {
			t.Errorf("BearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestAuthenticate_MissingHeader_ReturnsUnauthenticated(t *testing.T) {
	users := &mockUserRepo{}
	gw := NewGateway(validVerifier(), users, nil, time.Second)

	_, err := gw.Authenticate(context.Background(), "")
	if got := apiErrorCode(t, err); got != model.ErrCodeUnauthenticated {
		t.Errorf("code = %q, want %q", got, model.ErrCodeUnauthenticated)
	}

	_, err = gw.Authenticate(context.Background(), "Token good-token")
	if got := apiErrorCode(t, err); got != model.ErrCodeUnauthenticated {
		t.Errorf("code = %q, want %q", got, model.ErrCodeUnauthenticated)
	}

	if err := gw.Close(context.Background()); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if users.touchedCount() != 0 {
		t.Errorf("user should not be touched, got %d", users.touchedCount())
	}
}

func TestAuthenticate_InvalidToken_ReturnsInvalidToken(t *testing.T) {
	users := &mockUserRepo{}
	gw := NewGateway(validVerifier(), users, nil, time.Second)

	_, err := gw.Authenticate(context.Background(), "Bearer expired")
	if got := apiErrorCode(t, err); got != model.ErrCodeInvalidToken {
		t.Errorf("code = %q, want %q", got, model.ErrCodeInvalidToken)
	}

	_ = gw.Close(context.Background())
	if users.touchedCount() != 0 {
		t.Errorf("user should not be touched, got %d", users.touchedCount())
	}
}

func TestAuthenticate_ValidToken_ReturnsIdentityAndTouchesUser(t *testing.T) {
	users := &mockUserRepo{}
	gw := NewGateway(validVerifier(), users, nil, time.Second)

	id, err := gw.Authenticate(context.Background(), "Bearer good-token")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if id.UID != "uid-1" || id.Email != "ana@example.com" {
		t.Errorf("unexpected identity: %+v", id)
	}

	if err := gw.Close(context.Background()); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if users.touchedCount() != 1 {
		t.Fatalf("touched = %d, want 1", users.touchedCount())
	}
	u := users.touched[0]
	if u.UID != "uid-1" || u.DisplayName != "Ana" || u.PhotoURL != "https://example.com/a.png" {
		t.Errorf("unexpected user profile: %+v", u)
	}
}

func TestAuthenticate_TouchDetachedFromRequestContext(t *testing.T) {
	users := &mockUserRepo{
		touchFn: func(ctx context.Context, _ *model.User, _ time.Time) error {
			return ctx.Err()
		},
	}
	collector := &mockMetrics{}
	gw := NewGateway(validVerifier(), users, collector, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := gw.Authenticate(ctx, "Bearer good-token"); err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	cancel()

	_ = gw.Close(context.Background())
	if collector.upsertFailures != 0 {
		t.Errorf("upsert should not see request cancellation, failures = %d", collector.upsertFailures)
	}
}

func TestNewGateway_NonPositiveTimeoutUsesDefault(t *testing.T) {
	for _, timeout := range []time.Duration{0, -time.Second} {
		users := &mockUserRepo{
			touchFn: func(ctx context.Context, _ *model.User, _ time.Time) error {
				deadline, ok := ctx.Deadline()
				if !ok || time.Until(deadline) <= 0 {
					return context.DeadlineExceeded
				}
				return nil
			},
		}
		collector := &mockMetrics{}
		gw := NewGateway(validVerifier(), users, collector, timeout)

		if _, err := gw.Authenticate(context.Background(), "Bearer good-token"); err != nil {
			t.Fatalf("Authenticate returned error: %v", err)
		}
		_ = gw.Close(context.Background())

		if gw.upsertTimeout != DefaultUpsertTimeout {
			t.Errorf("timeout=%v: upsertTimeout = %v, want %v", timeout, gw.upsertTimeout, DefaultUpsertTimeout)
		}
		if collector.upsertFailures != 0 {
			t.Errorf("timeout=%v: upsert failed immediately, failures = %d", timeout, collector.upsertFailures)
		}
	}
}

func TestAuthenticate_TouchFailure_DoesNotFailRequest(t *testing.T) {
	users := &mockUserRepo{
		touchFn: func(context.Context, *model.User, time.Time) error {
			return errors.New("firestore unavailable")
		},
	}
	collector := &mockMetrics{}
	gw := NewGateway(validVerifier(), users, collector, time.Second)

	id, err := gw.Authenticate(context.Background(), "Bearer good-token")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if id == nil {
		t.Fatal("expected identity")
	}

	_ = gw.Close(context.Background())
	if collector.upsertFailures != 1 {
		t.Errorf("upsert failures = %d, want 1", collector.upsertFailures)
	}
}

func TestClose_StopsWaitingWhenContextDone(t *testing.T) {
	release := make(chan struct{})
	users := &mockUserRepo{
		touchFn: func(context.Context, *model.User, time.Time) error {
			<-release
			return nil
		},
	}
	gw := NewGateway(validVerifier(), users, nil, time.Minute)

	if _, err := gw.Authenticate(context.Background(), "Bearer good-token"); err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := gw.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Close error = %v, want deadline exceeded", err)
	}

	close(release)
	if err := gw.Close(context.Background()); err != nil {
		t.Errorf("Close after release returned error: %v", err)
	}
}

func TestCredentials_ClientOptions(t *testing.T) {
	if opts := (Credentials{}).ClientOptions(); len(opts) != 0 {
		t.Errorf("empty credentials should use ADC, got %d options", len(opts))
	}
	if opts := (Credentials{File: "/nonexistent/sa.json"}).ClientOptions(); len(opts) != 0 {
		t.Errorf("missing file should fall back to ADC, got %d options", len(opts))
	}
	if opts := (Credentials{JSON: `{"type":"service_account"}`}).ClientOptions(); len(opts) != 1 {
		t.Errorf("inline JSON should produce one option, got %d", len(opts))
	}
}
