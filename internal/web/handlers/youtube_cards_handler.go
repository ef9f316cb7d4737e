package handlers

import (
	"log"
	"net/http"
	"time"
)

// YouTubeCardsHandler 負責提供精選片段目錄。目錄屬於輔助服務：
// 它的失敗不影響加強流程本身。
type YouTubeCardsHandler struct {
	db DBStore
}

// NewYouTubeCardsHandler 建立 YouTubeCardsHandler 實例
func NewYouTubeCardsHandler(db DBStore) *YouTubeCardsHandler {
	if db == nil {
		log.Panicln("YouTubeCardsHandler：DBStore 不得為空")
	}
	return &YouTubeCardsHandler{db: db}
}

// youTubeCardResponse 是單一片段的回應投影
type youTubeCardResponse struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	YouTubeVideoID   string    `json:"youtube_video_id"`
	ThumbnailURL     string    `json:"thumbnail_url"`
	DurationSeconds  int64     `json:"duration_seconds"`
	StartTimeSeconds *int64    `json:"start_time_seconds,omitempty"`
	EndTimeSeconds   *int64    `json:"end_time_seconds,omitempty"`
	ClipTranscript   string    `json:"clip_transcript"`
	CreatedAt        time.Time `json:"created_at"`
}

// ServeHTTP 實現 http.Handler 介面，回傳啟用中的精選片段清單
func (h *YouTubeCardsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cards, err := h.db.ListActiveYouTubeCards()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := make([]youTubeCardResponse, 0, len(cards))
	for _, c := range cards {
		item := youTubeCardResponse{
			ID:              c.ID,
			Title:           c.Title,
			YouTubeVideoID:  c.YouTubeVideoID,
			ThumbnailURL:    c.ThumbnailURL,
			DurationSeconds: c.DurationSeconds,
			ClipTranscript:  c.ClipTranscript,
			CreatedAt:       c.CreatedAt,
		}
		if c.StartTimeSeconds.Valid {
			item.StartTimeSeconds = &c.StartTimeSeconds.Int64
		}
		if c.EndTimeSeconds.Valid {
			item.EndTimeSeconds = &c.EndTimeSeconds.Int64
		}
		resp = append(resp, item)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"cards": resp})
}
