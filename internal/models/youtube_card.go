package models

import (
	"database/sql"
	"time"
)

// YouTubeCard 對應 youtube_cards 資料表，為精選片段目錄的唯讀項目。
// 核心流程只在建立 youtube 變體的 Enhancement 時讀取它。
type YouTubeCard struct {
	ID               string
	Title            string
	YouTubeVideoID   string
	ThumbnailURL     string
	DurationSeconds  int64
	StartTimeSeconds sql.NullInt64
	EndTimeSeconds   sql.NullInt64
	ClipTranscript   string
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
