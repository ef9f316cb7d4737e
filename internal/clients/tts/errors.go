package tts

import "fmt"

// FailureKind 分類語音合成失敗的原因
type FailureKind string

const (
	FailureUnavailable     FailureKind = "unavailable"      // 服務無法連線或回傳伺服器錯誤，可重試
	FailureRateLimited     FailureKind = "rate_limited"     // 配額或速率限制，可稍後重試
	FailureMalformedOutput FailureKind = "malformed_output" // 服務回傳了無法使用的內容
)

// SynthesisError 是語音後端失敗的分類錯誤。合成失敗永遠不是致命錯誤：
// 呼叫端把它對應為 service-unavailable，記錄保持在可重試的 failed 狀態。
type SynthesisError struct {
	Kind FailureKind
	Err  error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("語音後端失敗（%s）: %v", e.Kind, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// Retryable 回報此類失敗是否值得立即重試
func (e *SynthesisError) Retryable() bool {
	return e.Kind == FailureUnavailable || e.Kind == FailureRateLimited
}
