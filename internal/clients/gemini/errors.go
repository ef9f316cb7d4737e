package gemini

import "fmt"

// FailureKind 分類分析失敗的原因，由呼叫端決定重試策略
type FailureKind string

const (
	FailureUnreachable   FailureKind = "unreachable"    // 上游無法連線或回應異常，可重試
	FailureRejectedInput FailureKind = "rejected_input" // 上游拒絕輸入（格式錯誤、不支援的語言等），不應重試
	FailureTimeout       FailureKind = "timeout"        // 上游逾時，可重試
)

// AnalysisError 是分析後端失敗的分類錯誤。
// 轉接器本身不做任何靜默重試，只負責分類。
type AnalysisError struct {
	Kind FailureKind
	Err  error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("分析後端失敗（%s）: %v", e.Kind, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// Retryable 回報此類失敗是否值得重試
func (e *AnalysisError) Retryable() bool {
	return e.Kind != FailureRejectedInput
}
