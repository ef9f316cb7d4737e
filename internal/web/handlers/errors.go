package handlers

import (
	"StoryLift-api/internal/clients/gemini"
	"StoryLift-api/internal/clients/tts"
	"StoryLift-api/internal/storage"
	"StoryLift-api/internal/validation"
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

// errorBody 是統一的錯誤回應格式
type errorBody struct {
	Error            string                  `json:"error"`
	Message          string                  `json:"message"`
	ValidationErrors []validation.FieldError `json:"validation_errors,omitempty"`
}

// writeJSON 輸出 JSON 回應
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("錯誤：[Handlers] 序列化 JSON 回應失敗: %v", err)
	}
}

// writeError 輸出統一格式的錯誤回應
func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, errorBody{Error: code, Message: message})
}

// writeServiceError 把服務層錯誤對應為 HTTP 回應。
// 驗證與 not-found 在邊界直接回報給呼叫端；上游 AI 失敗與儲存層失敗
// 對應為與客戶端錯誤可區分的 service-unavailable 訊號。
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error:            "VALIDATION_ERROR",
			Message:          "請求驗證失敗",
			ValidationErrors: verr.Fields,
		})
		return
	}
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "找不到指定的記錄")
		return
	}
	var aerr *gemini.AnalysisError
	if errors.As(err, &aerr) {
		log.Printf("錯誤：[Handlers] 分析服務失敗（%s）: %v", aerr.Kind, err)
		writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "分析服務暫時無法使用，請稍後再試")
		return
	}
	var serr *tts.SynthesisError
	if errors.As(err, &serr) {
		log.Printf("錯誤：[Handlers] 語音服務失敗（%s）: %v", serr.Kind, err)
		writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "語音服務暫時無法使用，請稍後再試")
		return
	}
	if errors.Is(err, storage.ErrUnavailable) {
		log.Printf("錯誤：[Handlers] 儲存層暫時無法使用: %v", err)
		writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "服務暫時無法使用，請稍後再試")
		return
	}
	log.Printf("錯誤：[Handlers] 未分類的內部錯誤: %v", err)
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "內部伺服器錯誤")
}
