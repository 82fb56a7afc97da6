package model

import "time"

// AgentType はエージェント種別を表す。
type AgentType string

const (
	AgentTypeExamAnalyzer     AgentType = "exam-analyzer"
	AgentTypeExamFollowUp     AgentType = "exam-follow-up"
	AgentTypeMedicationInfo   AgentType = "medication-info"
	AgentTypeMedicationPrices AgentType = "medication-prices"
	AgentTypeGeneralQuestion  AgentType = "general-question"
)

// Valid は定義済みのエージェント種別かどうかを返す。
func (t AgentType) Valid() bool {
	switch t {
	case AgentTypeExamAnalyzer, AgentTypeExamFollowUp, AgentTypeMedicationInfo,
		AgentTypeMedicationPrices, AgentTypeGeneralQuestion:
		return true
	}
	return false
}

// Interaction は1回の質問と回答の記録。
// 作成後は不変で、アプリケーションから削除されることはない。
type Interaction struct {
	ID        string    `firestore:"-" json:"id"`
	UID       string    `firestore:"uid" json:"-"`
	UserEmail string    `firestore:"user_email" json:"-"`
	AgentType AgentType `firestore:"agent_type" json:"agent_type"`
	Question  string    `firestore:"question" json:"question"`
	Answer    string    `firestore:"answer" json:"answer"`
	Timestamp time.Time `firestore:"timestamp,serverTimestamp" json:"timestamp"`
}
