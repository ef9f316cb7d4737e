// Package validation 實作提示素材解析器：把帶判別欄位的原始請求
// 轉換為唯一一種已驗證的提示變體，或回傳逐欄位的驗證錯誤。
// 純驗證與轉換，沒有任何副作用。
package validation

import (
	"StoryLift-api/internal/clients/gemini"
	"StoryLift-api/internal/models"
	"encoding/base64"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxPhotoBytes 是照片解碼後的大小上限（10MB）
	MaxPhotoBytes = 10 << 20

	// MaxTranscriptChars 是使用者逐字稿的長度上限
	MaxTranscriptChars = 5000

	// DefaultLanguage 是未指定語言時的預設值
	DefaultLanguage = "en"
)

var languagePattern = regexp.MustCompile(`^[a-z]{2}$`)

// FieldError 描述單一欄位的驗證失敗
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error 彙整一次請求的所有欄位驗證失敗。
// 驗證錯誤屬於客戶端錯誤，永遠不會被持久化。
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "請求驗證失敗：" + strings.Join(parts, "；")
}

func (e *Error) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// EnhancementRequest 是加強請求的原始 JSON 載荷。
// Type 為判別欄位，決定照片或 youtube 變體的必填欄位。
type EnhancementRequest struct {
	Type             string `json:"type"`
	PhotoBase64      string `json:"photo_base64,omitempty"`
	CardID           string `json:"card_id,omitempty"`
	SourceTranscript string `json:"source_transcript,omitempty"`
	ThumbnailURL     string `json:"thumbnail_url,omitempty"`
	Title            string `json:"title,omitempty"`
	Transcript       string `json:"transcript"`
	Language         string `json:"language,omitempty"`
}

// ResolvePrompt 驗證請求並產生唯一一種提示變體。
// 任何欄位違規都會被收集進 *Error，而不是在第一個錯誤就中斷。
func ResolvePrompt(req EnhancementRequest) (*models.EnhancementPrompt, error) {
	verr := &Error{}

	prompt := &models.EnhancementPrompt{
		UserTranscript: req.Transcript,
		Language:       req.Language,
	}

	switch req.Type {
	case string(models.PromptTypePhoto):
		prompt.Type = models.PromptTypePhoto
		resolvePhoto(req, prompt, verr)
	case string(models.PromptTypeYouTube):
		prompt.Type = models.PromptTypeYouTube
		resolveYouTube(req, prompt, verr)
	case "":
		verr.add("type", "必填欄位，必須是 photo 或 youtube")
	default:
		verr.add("type", fmt.Sprintf("不支援的類型 '%s'，必須是 photo 或 youtube", req.Type))
	}

	if n := utf8.RuneCountInString(req.Transcript); n < 1 || n > MaxTranscriptChars {
		verr.add("transcript", fmt.Sprintf("長度必須介於 1 到 %d 字元（目前 %d）", MaxTranscriptChars, n))
	}

	if prompt.Language == "" {
		prompt.Language = DefaultLanguage
	} else if !languagePattern.MatchString(prompt.Language) {
		verr.add("language", "必須是兩個小寫字母的 ISO 639-1 語言碼")
	} else if !gemini.SupportedLanguage(prompt.Language) {
		verr.add("language", fmt.Sprintf("不支援的語言碼 '%s'", prompt.Language))
	}

	if len(verr.Fields) > 0 {
		return nil, verr
	}
	return prompt, nil
}

// resolvePhoto 驗證照片變體：base64 解碼、大小上限、影像 MIME 類型
func resolvePhoto(req EnhancementRequest, prompt *models.EnhancementPrompt, verr *Error) {
	if strings.TrimSpace(req.PhotoBase64) == "" {
		verr.add("photo_base64", "照片變體必須提供 base64 編碼的影像")
		return
	}
	data, err := base64.StdEncoding.DecodeString(req.PhotoBase64)
	if err != nil {
		verr.add("photo_base64", "不是有效的 base64 編碼")
		return
	}
	if len(data) == 0 {
		verr.add("photo_base64", "影像內容不得為空")
		return
	}
	if len(data) > MaxPhotoBytes {
		verr.add("photo_base64", fmt.Sprintf("影像超過大小上限 %d bytes（目前 %d）", MaxPhotoBytes, len(data)))
		return
	}
	mime := http.DetectContentType(data)
	if mime != "image/jpeg" && mime != "image/png" {
		verr.add("photo_base64", fmt.Sprintf("只支援 JPEG 或 PNG 影像（偵測到 %s）", mime))
		return
	}
	prompt.PhotoData = data
	prompt.PhotoMIME = mime
}

// resolveYouTube 驗證 youtube 變體：片段原始逐字稿為必填
func resolveYouTube(req EnhancementRequest, prompt *models.EnhancementPrompt, verr *Error) {
	if strings.TrimSpace(req.SourceTranscript) == "" {
		verr.add("source_transcript", "youtube 變體必須提供片段的原始逐字稿")
	}
	prompt.CardID = req.CardID
	prompt.SourceTranscript = req.SourceTranscript
	prompt.PromptTitle = req.Title
	prompt.ThumbnailURL = req.ThumbnailURL
}
