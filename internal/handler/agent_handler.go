package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/exammine/exammine/internal/agent"
	"github.com/exammine/exammine/internal/metrics"
	"github.com/exammine/exammine/internal/middleware"
	"github.com/exammine/exammine/internal/model"
	"github.com/exammine/exammine/internal/upload"
)

// multipartOverhead はファイル以外のmultipartヘッダー・境界文字列に許容する余裕。
const multipartOverhead = 64 << 10

// HistoryRecorder はエージェントハンドラーが必要とする履歴記録インターフェース。
// 記録の失敗はレスポンスに影響させない。
type HistoryRecorder interface {
	Record(ctx context.Context, identity *model.Identity, agentType model.AgentType, question, answer string)
}

// AgentHandler は5種類のエージェントのHTTPハンドラー。
type AgentHandler struct {
	strategy       agent.Strategy
	history        HistoryRecorder
	uploads        upload.Store
	metrics        metrics.MetricsCollector
	maxUploadBytes int64
}

// NewAgentHandler はAgentHandlerを生成する。uploadsがnilの場合はファイルを保存しない。
func NewAgentHandler(
	strategy agent.Strategy,
	history HistoryRecorder,
	uploads upload.Store,
	collector metrics.MetricsCollector,
	maxUploadBytes int64,
) *AgentHandler {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &AgentHandler{
		strategy:       strategy,
		history:        history,
		uploads:        uploads,
		metrics:        collector,
		maxUploadBytes: maxUploadBytes,
	}
}

type analyzeExamResponse struct {
	SessionID string `json:"session_id"`
	Analysis  string `json:"analysis"`
}

type answerResponse struct {
	Answer string `json:"answer"`
}

type informationResponse struct {
	Information string `json:"information"`
}

type pricesResponse struct {
	Prices string `json:"prices"`
}

// AnalyzeExam は検査結果PDFのアップロードを受け付けて解析結果を返す。
// POST /agents/analyze-exam
func (h *AgentHandler) AnalyzeExam(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	agentType := model.AgentTypeExamAnalyzer
	h.metrics.RecordAgentRequest(string(agentType))

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeAPIErrorResponse(w, http.StatusRequestEntityTooLarge, model.NewFileTooLargeError(h.maxUploadBytes))
			return
		}
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("No file uploaded"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("No file uploaded"))
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadBytes {
		writeAPIErrorResponse(w, http.StatusRequestEntityTooLarge, model.NewFileTooLargeError(h.maxUploadBytes))
		return
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("Only PDF files are accepted"))
		return
	}

	h.metrics.RecordUploadSize(header.Size)
	slog.InfoContext(r.Context(), "exam uploaded",
		slog.String("file_name", header.Filename),
		slog.Int64("size", header.Size),
	)

	if h.uploads != nil {
		key, err := h.uploads.Save(r.Context(), header.Filename, file)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to store uploaded exam",
				slog.String("file_name", header.Filename),
				slog.String("error", err.Error()),
			)
		} else {
			slog.DebugContext(r.Context(), "uploaded exam stored", slog.String("key", key))
		}
	}

	result, err := h.strategy.AnalyzeExam(r.Context(), agent.ExamFile{Name: header.Filename, Size: header.Size})
	if err != nil {
		handleServiceError(w, err, "processing exam")
		return
	}

	h.record(r, agentType, "Upload do arquivo: "+header.Filename, result.Analysis, start)
	writeJSON(w, http.StatusOK, analyzeExamResponse{
		SessionID: result.SessionID,
		Analysis:  result.Analysis,
	})
}

// ExamQuestion は解析済み検査に関する追加質問に回答する。
// POST /agents/exam-question
func (h *AgentHandler) ExamQuestion(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	agentType := model.AgentTypeExamFollowUp
	h.metrics.RecordAgentRequest(string(agentType))

	fields, err := readFields(w, r, "question", "session_id")
	if err != nil {
		handleServiceError(w, err, "processing exam question")
		return
	}

	answer, err := h.strategy.AskExamQuestion(r.Context(), fields["question"], fields["session_id"])
	if err != nil {
		handleServiceError(w, err, "processing exam question")
		return
	}

	h.record(r, agentType, fields["question"], answer, start)
	writeJSON(w, http.StatusOK, answerResponse{Answer: answer})
}

// MedicationInfo は医薬品情報を返す。
// POST /agents/medication-info
func (h *AgentHandler) MedicationInfo(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	agentType := model.AgentTypeMedicationInfo
	h.metrics.RecordAgentRequest(string(agentType))

	fields, err := readFields(w, r, "medication_name")
	if err != nil {
		handleServiceError(w, err, "getting medication info")
		return
	}
	name := fields["medication_name"]

	info, err := h.strategy.MedicationInfo(r.Context(), name)
	if err != nil {
		handleServiceError(w, err, "getting medication info")
		return
	}

	h.record(r, agentType, "Busca de informações: "+name, info, start)
	writeJSON(w, http.StatusOK, informationResponse{Information: info})
}

// MedicationPrices は医薬品の価格比較を返す。
// POST /agents/medication-prices
func (h *AgentHandler) MedicationPrices(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	agentType := model.AgentTypeMedicationPrices
	h.metrics.RecordAgentRequest(string(agentType))

	fields, err := readFields(w, r, "medication_name")
	if err != nil {
		handleServiceError(w, err, "getting medication prices")
		return
	}
	name := fields["medication_name"]

	prices, err := h.strategy.MedicationPrices(r.Context(), name)
	if err != nil {
		handleServiceError(w, err, "getting medication prices")
		return
	}

	h.record(r, agentType, "Busca de preços: "+name, prices, start)
	writeJSON(w, http.StatusOK, pricesResponse{Prices: prices})
}

// GeneralQuestion は健康に関する一般的な質問に回答する。
// POST /agents/general-question
func (h *AgentHandler) GeneralQuestion(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	agentType := model.AgentTypeGeneralQuestion
	h.metrics.RecordAgentRequest(string(agentType))

	fields, err := readFields(w, r, "question")
	if err != nil {
		handleServiceError(w, err, "processing general question")
		return
	}

	answer, err := h.strategy.GeneralQuestion(r.Context(), fields["question"])
	if err != nil {
		handleServiceError(w, err, "processing general question")
		return
	}

	h.record(r, agentType, fields["question"], answer, start)
	writeJSON(w, http.StatusOK, answerResponse{Answer: answer})
}

// record はレイテンシを記録し、認証済みであれば履歴を書き込む。
// クライアント切断で書き込みが中断されないよう、キャンセルを引き継がないコンテキストを使う。
func (h *AgentHandler) record(r *http.Request, agentType model.AgentType, question, answer string, start time.Time) {
	h.metrics.RecordAgentLatency(string(agentType), time.Since(start))

	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return
	}
	h.history.Record(context.WithoutCancel(r.Context()), identity, agentType, question, answer)
}
