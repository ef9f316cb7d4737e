package handlers

import (
	"StoryLift-api/internal/models"
)

// DBStore 定義了應用程式需要的資料庫操作介面。
// Enhancement 的持久化狀態只透過這個介面變動：audio_status 的兩個
// 轉移（MarkAudioReady / MarkAudioFailed）之外沒有其他寫入路徑。
type DBStore interface {
	CreateEnhancement(e *models.Enhancement) error
	GetEnhancement(id string, ownerID string) (*models.Enhancement, error)
	ListEnhancements(ownerID string, limit int, offset int) (int, []models.Enhancement, error)
	MarkAudioReady(id string, ownerID string, audio []byte, format string, durationSecs int64) (*models.Enhancement, error)
	MarkAudioFailed(id string, ownerID string) error
	ListAudioFailed(limit int) ([]models.Enhancement, error)
	GetYouTubeCard(id string) (*models.YouTubeCard, error)
	ListActiveYouTubeCards() ([]models.YouTubeCard, error)
	Close() error
}
