package models

import (
	"database/sql"
	"time"
)

// PromptType 定義 Enhancement 的提示素材類型（照片或 YouTube 片段）
type PromptType string

const (
	PromptTypePhoto   PromptType = "photo"
	PromptTypeYouTube PromptType = "youtube"
)

// AudioStatus 定義語音合成狀態
type AudioStatus string

const (
	AudioStatusNotGenerated AudioStatus = "not_generated" // 初始狀態，尚未產生語音
	AudioStatusReady        AudioStatus = "ready"         // 語音已產生並快取（終態）
	AudioStatusFailed       AudioStatus = "failed"        // 上次合成失敗，可重試
)

// EnhancementPrompt 是經過驗證後的提示素材。Type 決定哪一組欄位有效：
// photo 使用 PhotoData/PhotoMIME，youtube 使用 SourceTranscript 等欄位。
// 建立 Enhancement 之後 Type 不會再改變。
type EnhancementPrompt struct {
	Type PromptType

	// photo 變體
	PhotoData []byte
	PhotoMIME string

	// youtube 變體
	CardID           string
	SourceTranscript string
	PromptTitle      string
	ThumbnailURL     string

	// 兩種變體共用
	UserTranscript string
	Language       string
}

// EnhancementAnalysis 是分析後端回傳的第一階段結果
type EnhancementAnalysis struct {
	EnhancedTranscript string            `json:"enhanced_transcript"`
	Insights           map[string]string `json:"insights"`
}

// Enhancement 對應 enhancements 資料表
type Enhancement struct {
	ID                  string
	UserID              string
	CreatedAt           time.Time
	PromptType          PromptType
	PromptTitle         sql.NullString
	SourcePhotoBase64   JsonNullString
	SourcePhotoMIME     sql.NullString
	YouTubeThumbnailURL sql.NullString
	SourceTranscript    JsonNullString
	UserTranscript      string
	EnhancedTranscript  string
	Insights            map[string]string
	Language            string
	AudioStatus         AudioStatus
	AudioData           []byte
	AudioFormat         sql.NullString
	AudioDurationSecs   sql.NullInt64
}

// TranscriptPreview 回傳加強後逐字稿的前 n 個字元，供歷史清單顯示
func (e *Enhancement) TranscriptPreview(n int) string {
	runes := []rune(e.EnhancedTranscript)
	if len(runes) <= n {
		return e.EnhancedTranscript
	}
	return string(runes[:n])
}
