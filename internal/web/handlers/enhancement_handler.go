package handlers

import (
	"StoryLift-api/internal/models"
	"StoryLift-api/internal/validation"
	"context"
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"time"
)

// 請求 body 上限：10MB 的照片經 base64 編碼後約 13.4MB，再留些餘裕
const maxRequestBodyBytes = 16 << 20

const transcriptPreviewChars = 100

var enhancementIDPattern = regexp.MustCompile(`^enh_[a-zA-Z0-9]+$`)

// Enhancer 介面定義了 handler 需要的加強流程操作
type Enhancer interface {
	CreateEnhancement(ctx context.Context, ownerID string, prompt models.EnhancementPrompt) (*models.Enhancement, error)
	EnsureAudio(ctx context.Context, ownerID string, id string) (*models.Enhancement, error)
	GetEnhancement(ctx context.Context, ownerID string, id string) (*models.Enhancement, error)
	ListEnhancements(ctx context.Context, ownerID string, limit int, offset int) (int, []models.Enhancement, error)
}

// EnhancementHandler 負責加強流程的所有 HTTP 端點
type EnhancementHandler struct {
	svc Enhancer
}

// NewEnhancementHandler 建立 EnhancementHandler 實例
func NewEnhancementHandler(svc Enhancer) *EnhancementHandler {
	if svc == nil {
		log.Panicln("EnhancementHandler：Enhancer 不得為空")
	}
	return &EnhancementHandler{svc: svc}
}

// textResponse 是第一階段的回應
type textResponse struct {
	EnhancementID      string            `json:"enhancement_id"`
	EnhancedTranscript string            `json:"enhanced_transcript"`
	Insights           map[string]string `json:"insights"`
}

// audioResponse 是第二階段的回應
type audioResponse struct {
	AudioBase64 string `json:"audio_base64"`
	AudioFormat string `json:"audio_format"`
}

// enhancementSummary 是歷史清單的單筆投影。兩種變體共用同一個形狀，
// 變體專屬欄位依儲存的 prompt 標籤選填。
type enhancementSummary struct {
	EnhancementID        string    `json:"enhancement_id"`
	CreatedAt            time.Time `json:"created_at"`
	PromptType           string    `json:"prompt_type"`
	PromptTitle          *string   `json:"prompt_title,omitempty"`
	TranscriptPreview    string    `json:"transcript_preview"`
	ThumbnailURL         *string   `json:"thumbnail_url,omitempty"`
	AudioStatus          string    `json:"audio_status"`
	AudioDurationSeconds *int64    `json:"audio_duration_seconds,omitempty"`
}

// historyResponse 是歷史清單的回應
type historyResponse struct {
	Total int                  `json:"total"`
	Items []enhancementSummary `json:"items"`
}

// enhancementDetails 是單筆記錄的完整投影
type enhancementDetails struct {
	EnhancementID        string            `json:"enhancement_id"`
	CreatedAt            time.Time         `json:"created_at"`
	PromptType           string            `json:"prompt_type"`
	UserTranscript       string            `json:"user_transcript"`
	EnhancedTranscript   string            `json:"enhanced_transcript"`
	Insights             map[string]string `json:"insights"`
	Language             string            `json:"language"`
	AudioStatus          string            `json:"audio_status"`
	AudioDurationSeconds *int64            `json:"audio_duration_seconds,omitempty"`

	// photo 變體專屬
	SourcePhotoBase64 *string `json:"source_photo_base64,omitempty"`
	SourcePhotoMIME   *string `json:"source_photo_mime,omitempty"`

	// youtube 變體專屬
	PromptTitle         *string `json:"prompt_title,omitempty"`
	YouTubeThumbnailURL *string `json:"prompt_youtube_thumbnail_url,omitempty"`
	SourceTranscript    *string `json:"source_transcript,omitempty"`
}

// Create 處理 POST /api/v1/enhancements（第一階段）
func (h *EnhancementHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	var req validation.EnhancementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("警告：[EnhancementHandler] 無法解析請求 body: %v", err)
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "請求 body 不是有效的 JSON")
		return
	}

	prompt, err := validation.ResolvePrompt(req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	e, err := h.svc.CreateEnhancement(r.Context(), owner, *prompt)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, textResponse{
		EnhancementID:      e.ID,
		EnhancedTranscript: e.EnhancedTranscript,
		Insights:           e.Insights,
	})
}

// Audio 處理 GET /api/v1/enhancements/{id}/audio（第二階段，冪等）
func (h *EnhancementHandler) Audio(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())
	id := r.PathValue("id")
	if !enhancementIDPattern.MatchString(id) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "找不到指定的記錄")
		return
	}
	e, err := h.svc.EnsureAudio(r.Context(), owner, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, audioResponse{
		AudioBase64: base64.StdEncoding.EncodeToString(e.AudioData),
		AudioFormat: e.AudioFormat.String,
	})
}

// Detail 處理 GET /api/v1/enhancements/{id}
func (h *EnhancementHandler) Detail(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())
	id := r.PathValue("id")
	if !enhancementIDPattern.MatchString(id) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "找不到指定的記錄")
		return
	}
	e, err := h.svc.GetEnhancement(r.Context(), owner, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projectDetails(e))
}

// List 處理 GET /api/v1/enhancements?limit&offset
func (h *EnhancementHandler) List(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())
	limit, offset, verr := parsePageParams(r)
	if verr != nil {
		writeServiceError(w, verr)
		return
	}
	total, items, err := h.svc.ListEnhancements(r.Context(), owner, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := historyResponse{Total: total, Items: make([]enhancementSummary, 0, len(items))}
	for i := range items {
		resp.Items = append(resp.Items, projectSummary(&items[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ExportCSV 處理 GET /api/v1/enhancements/export，匯出呼叫者的完整歷史
func (h *EnhancementHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"enhancements_%s.csv\"", time.Now().UTC().Format("20060102_150405")))

	writer := csv.NewWriter(w)
	header := []string{"enhancement_id", "created_at", "prompt_type", "language", "audio_status", "audio_duration_seconds", "transcript_preview"}
	if err := writer.Write(header); err != nil {
		log.Printf("錯誤：[EnhancementHandler] 寫入 CSV 標頭失敗: %v", err)
		return
	}

	const pageSize = 50
	for offset := 0; ; offset += pageSize {
		total, items, err := h.svc.ListEnhancements(r.Context(), owner, pageSize, offset)
		if err != nil {
			log.Printf("錯誤：[EnhancementHandler] 匯出時查詢歷史失敗: %v", err)
			return
		}
		for i := range items {
			e := &items[i]
			duration := ""
			if e.AudioDurationSecs.Valid {
				duration = strconv.FormatInt(e.AudioDurationSecs.Int64, 10)
			}
			record := []string{
				e.ID,
				e.CreatedAt.Format(time.RFC3339),
				string(e.PromptType),
				e.Language,
				string(e.AudioStatus),
				duration,
				e.TranscriptPreview(transcriptPreviewChars),
			}
			if err := writer.Write(record); err != nil {
				log.Printf("錯誤：[EnhancementHandler] 寫入 CSV 資料列失敗: %v", err)
				return
			}
		}
		if offset+pageSize >= total || len(items) == 0 {
			break
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Printf("錯誤：[EnhancementHandler] CSV 匯出發生錯誤: %v", err)
	}
}

// parsePageParams 解析並驗證分頁參數
func parsePageParams(r *http.Request) (limit int, offset int, verr *validation.Error) {
	limit, offset = 20, 0
	errs := &validation.Error{}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 50 {
			errs.Fields = append(errs.Fields, validation.FieldError{Field: "limit", Message: "必須是 1 到 50 之間的整數"})
		} else {
			limit = n
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			errs.Fields = append(errs.Fields, validation.FieldError{Field: "offset", Message: "必須是大於等於 0 的整數"})
		} else {
			offset = n
		}
	}
	if len(errs.Fields) > 0 {
		return 0, 0, errs
	}
	return limit, offset, nil
}

// projectSummary 依儲存的 prompt 標籤投影歷史清單項目
func projectSummary(e *models.Enhancement) enhancementSummary {
	s := enhancementSummary{
		EnhancementID:     e.ID,
		CreatedAt:         e.CreatedAt,
		PromptType:        string(e.PromptType),
		TranscriptPreview: e.TranscriptPreview(transcriptPreviewChars),
		AudioStatus:       string(e.AudioStatus),
	}
	if e.AudioDurationSecs.Valid {
		s.AudioDurationSeconds = &e.AudioDurationSecs.Int64
	}
	if e.PromptType == models.PromptTypeYouTube {
		if e.PromptTitle.Valid {
			s.PromptTitle = &e.PromptTitle.String
		}
		if e.YouTubeThumbnailURL.Valid {
			s.ThumbnailURL = &e.YouTubeThumbnailURL.String
		}
	}
	return s
}

// projectDetails 依儲存的 prompt 標籤投影完整記錄。
// photo 記錄絕不暴露 source_transcript，youtube 記錄絕不暴露照片欄位。
func projectDetails(e *models.Enhancement) enhancementDetails {
	d := enhancementDetails{
		EnhancementID:      e.ID,
		CreatedAt:          e.CreatedAt,
		PromptType:         string(e.PromptType),
		UserTranscript:     e.UserTranscript,
		EnhancedTranscript: e.EnhancedTranscript,
		Insights:           e.Insights,
		Language:           e.Language,
		AudioStatus:        string(e.AudioStatus),
	}
	if e.AudioDurationSecs.Valid {
		d.AudioDurationSeconds = &e.AudioDurationSecs.Int64
	}
	switch e.PromptType {
	case models.PromptTypePhoto:
		if e.SourcePhotoBase64.Valid {
			d.SourcePhotoBase64 = &e.SourcePhotoBase64.String
		}
		if e.SourcePhotoMIME.Valid {
			d.SourcePhotoMIME = &e.SourcePhotoMIME.String
		}
	case models.PromptTypeYouTube:
		if e.PromptTitle.Valid {
			d.PromptTitle = &e.PromptTitle.String
		}
		if e.YouTubeThumbnailURL.Valid {
			d.YouTubeThumbnailURL = &e.YouTubeThumbnailURL.String
		}
		if e.SourceTranscript.Valid {
			d.SourceTranscript = &e.SourceTranscript.String
		}
	}
	return d
}
