// Package agent はエージェント種別ごとの応答生成を提供する。
//
// 応答生成はStrategyインターフェースの背後に置かれており、
// HTTP層を変更せずに実装を差し替えられる。
package agent

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/exammine/exammine/internal/model"
)

// ExamFile はアップロードされた検査結果ファイルのメタデータ。
// 内容そのものは解析に使用しない。
type ExamFile struct {
	Name string
	Size int64
}

// ExamAnalysis はAnalyzeExamの結果。
type ExamAnalysis struct {
	SessionID string
	Analysis  string
}

// Strategy はエージェントの応答生成インターフェース。
// 入力が空の場合はバリデーションエラー（*model.APIError）を返す。
type Strategy interface {
	// AnalyzeExam は検査結果ファイルを解析し、フォローアップ用のセッションIDと解析結果を返す。
	AnalyzeExam(ctx context.Context, file ExamFile) (*ExamAnalysis, error)
	// AskExamQuestion は解析済み検査に関する追加質問に回答する。
	AskExamQuestion(ctx context.Context, question, sessionID string) (string, error)
	// MedicationInfo は医薬品の添付文書相当の情報を返す。
	MedicationInfo(ctx context.Context, name string) (string, error)
	// MedicationPrices は医薬品の価格比較を返す。
	MedicationPrices(ctx context.Context, name string) (string, error)
	// GeneralQuestion は健康に関する一般的な質問に回答する。
	GeneralQuestion(ctx context.Context, question string) (string, error)
}

// SessionIDFunc はセッションIDの生成関数。
type SessionIDFunc func() string

// NewSessionID は時刻順に並ぶUUIDv7のセッションIDを生成する。
// UUIDv7の生成に失敗した場合はランダムなUUIDv4にフォールバックする。
func NewSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// TemplateStrategy は固定のMarkdownテンプレートで応答するStrategy実装。
type TemplateStrategy struct {
	newSessionID SessionIDFunc
}

// Option はTemplateStrategyの設定オプション。
type Option func(*TemplateStrategy)

// WithSessionIDFunc はセッションIDの生成関数を差し替える。
func WithSessionIDFunc(fn SessionIDFunc) Option {
	return func(s *TemplateStrategy) {
		s.newSessionID = fn
	}
}

// NewTemplateStrategy はTemplateStrategyを生成する。
func NewTemplateStrategy(opts ...Option) *TemplateStrategy {
	s := &TemplateStrategy{newSessionID: NewSessionID}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalyzeExam はファイルを読まずに固定の血液検査解析を返す。
func (s *TemplateStrategy) AnalyzeExam(_ context.Context, file ExamFile) (*ExamAnalysis, error) {
	if file.Name == "" {
		return nil, model.NewValidationError("No file uploaded")
	}
	return &ExamAnalysis{
		SessionID: s.newSessionID(),
		Analysis:  examAnalysisTemplate,
	}, nil
}

// AskExamQuestion はセッションIDの有効性を検証せずに質問を回答テンプレートに埋め込む。
func (s *TemplateStrategy) AskExamQuestion(_ context.Context, question, sessionID string) (string, error) {
	if isBlank(question) || isBlank(sessionID) {
		return "", model.NewValidationError("Question and session ID are required")
	}
	return render(examFollowUpTemplate, question), nil
}

// MedicationInfo は医薬品名を見出しに埋め込んだ添付文書テンプレートを返す。
func (s *TemplateStrategy) MedicationInfo(_ context.Context, name string) (string, error) {
	if isBlank(name) {
		return "", model.NewValidationError("Medication name is required")
	}
	return render(medicationInfoTemplate, name), nil
}

// MedicationPrices は医薬品名を埋め込んだ価格比較テンプレートを返す。
func (s *TemplateStrategy) MedicationPrices(_ context.Context, name string) (string, error) {
	if isBlank(name) {
		return "", model.NewValidationError("Medication name is required")
	}
	return render(medicationPricesTemplate, name), nil
}

// GeneralQuestion は質問を引用した一般的な助言テンプレートを返す。
func (s *TemplateStrategy) GeneralQuestion(_ context.Context, question string) (string, error) {
	if isBlank(question) {
		return "", model.NewValidationError("Question is required")
	}
	return render(generalQuestionTemplate, question), nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// render はテンプレート中の{{input}}を入力値でそのまま置換する。
func render(tmpl, input string) string {
	return strings.ReplaceAll(tmpl, "{{input}}", input)
}

var _ Strategy = (*TemplateStrategy)(nil)
