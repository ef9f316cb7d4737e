package mysql

import (
	"StoryLift-api/internal/config"
	"StoryLift-api/internal/models"
	"StoryLift-api/internal/storage"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore 結構，是 Enhancement 持久化狀態的唯一擁有者
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore 建立 MySQL 連線並設定連線池
func NewMySQLStore(dbCfg config.DatabaseConfig) (*MySQLStore, error) {
	if dbCfg.Driver != "mysql" {
		return nil, fmt.Errorf("不支援的資料庫驅動程式: %s", dbCfg.Driver)
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local", dbCfg.User, dbCfg.Password, dbCfg.Host, dbCfg.Port, dbCfg.DBName)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("開啟資料庫連線失敗: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("無法連線到資料庫 (ping 失敗): %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	log.Println("資訊：成功連線到 MySQL 資料庫。")
	return &MySQLStore{db: db}, nil
}

// Close 關閉資料庫連線
func (s *MySQLStore) Close() error {
	if s.db != nil {
		log.Println("資訊：正在關閉 MySQL 資料庫連線...")
		return s.db.Close()
	}
	return nil
}

// unavailable 將底層資料庫錯誤包裝為可重試的 ErrUnavailable
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w（%v）", op, storage.ErrUnavailable, err)
}

const enhancementColumns = `
	enhancement_id, user_id, created_at, prompt_type, prompt_title,
	source_photo_base64, source_photo_mime, prompt_youtube_thumbnail_url, source_transcript,
	user_transcript, enhanced_transcript, insights, language,
	audio_status, audio_data, audio_format, audio_duration_seconds
`

// CreateEnhancement 在第一階段結束時原子性地寫入新的 Enhancement。
// 寫入失敗時呼叫端不得回傳分析結果，避免產生沒有記錄的 AI 花費。
func (s *MySQLStore) CreateEnhancement(e *models.Enhancement) error {
	if e == nil || e.ID == "" || e.UserID == "" {
		return fmt.Errorf("無效的 Enhancement 或缺少 ID/UserID")
	}
	insightsJSON, err := json.Marshal(e.Insights)
	if err != nil {
		return fmt.Errorf("序列化 insights 失敗: %w", err)
	}
	query := `INSERT INTO enhancements (` + enhancementColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`
	_, err = s.db.Exec(query,
		e.ID, e.UserID, e.CreatedAt, e.PromptType, e.PromptTitle,
		e.SourcePhotoBase64, e.SourcePhotoMIME, e.YouTubeThumbnailURL, e.SourceTranscript,
		e.UserTranscript, e.EnhancedTranscript, insightsJSON, e.Language,
		e.AudioStatus, e.AudioData, e.AudioFormat, e.AudioDurationSecs,
	)
	if err != nil {
		return unavailable(fmt.Sprintf("寫入 Enhancement %s 失敗", e.ID), err)
	}
	log.Printf("資訊：[MySQLStore] Enhancement 已建立 (ID: %s, 類型: %s)\n", e.ID, e.PromptType)
	return nil
}

// scanEnhancement 從單一資料列掃描出 Enhancement
func scanEnhancement(row *sql.Row) (*models.Enhancement, error) {
	var e models.Enhancement
	var insightsRaw []byte
	err := row.Scan(
		&e.ID, &e.UserID, &e.CreatedAt, &e.PromptType, &e.PromptTitle,
		&e.SourcePhotoBase64, &e.SourcePhotoMIME, &e.YouTubeThumbnailURL, &e.SourceTranscript,
		&e.UserTranscript, &e.EnhancedTranscript, &insightsRaw, &e.Language,
		&e.AudioStatus, &e.AudioData, &e.AudioFormat, &e.AudioDurationSecs,
	)
	if err != nil {
		return nil, err
	}
	if len(insightsRaw) > 0 {
		if err := json.Unmarshal(insightsRaw, &e.Insights); err != nil {
			return nil, fmt.Errorf("解析 insights JSON 失敗 (ID: %s): %w", e.ID, err)
		}
	}
	return &e, nil
}

// GetEnhancement 依 ID 讀取 Enhancement，並限定擁有者。
// 不存在或不屬於該擁有者時回傳 storage.ErrNotFound。
func (s *MySQLStore) GetEnhancement(id string, ownerID string) (*models.Enhancement, error) {
	if id == "" || ownerID == "" {
		return nil, fmt.Errorf("無效的 ID 或擁有者")
	}
	query := `SELECT ` + enhancementColumns + ` FROM enhancements WHERE enhancement_id = ? AND user_id = ?;`
	e, err := scanEnhancement(s.db.QueryRow(query, id, ownerID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("Enhancement %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, unavailable(fmt.Sprintf("查詢 Enhancement %s 失敗", id), err)
	}
	return e, nil
}

// ListEnhancements 依擁有者分頁列出 Enhancement，依 created_at 遞減排序。
// 清單不載入 audio_data 與照片內容，保持歷史查詢輕量。
func (s *MySQLStore) ListEnhancements(ownerID string, limit int, offset int) (int, []models.Enhancement, error) {
	if ownerID == "" {
		return 0, nil, fmt.Errorf("無效的擁有者")
	}
	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM enhancements WHERE user_id = ?;`, ownerID).Scan(&total); err != nil {
		return 0, nil, unavailable("統計 Enhancement 總數失敗", err)
	}

	query := `SELECT
			enhancement_id, user_id, created_at, prompt_type, prompt_title,
			prompt_youtube_thumbnail_url, enhanced_transcript, language,
			audio_status, audio_duration_seconds
		FROM enhancements
		WHERE user_id = ?
		ORDER BY created_at DESC, enhancement_id DESC
		LIMIT ? OFFSET ?;`
	rows, err := s.db.Query(query, ownerID, limit, offset)
	if err != nil {
		return 0, nil, unavailable("查詢 Enhancement 清單失敗", err)
	}
	defer rows.Close()

	var items []models.Enhancement
	for rows.Next() {
		var e models.Enhancement
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.CreatedAt, &e.PromptType, &e.PromptTitle,
			&e.YouTubeThumbnailURL, &e.EnhancedTranscript, &e.Language,
			&e.AudioStatus, &e.AudioDurationSecs,
		); err != nil {
			log.Printf("錯誤：[MySQLStore] 掃描 Enhancement 清單行失敗: %v", err)
			continue
		}
		items = append(items, e)
	}
	if err = rows.Err(); err != nil {
		return 0, nil, unavailable("處理 Enhancement 清單結果集時發生錯誤", err)
	}
	return total, items, nil
}

// MarkAudioReady 以條件式更新把記錄轉為 ready，並填入語音欄位。
// WHERE audio_status <> 'ready' 保證語音欄位只會被寫入一次；
// 併發時輸掉的一方會重新讀取勝者寫入的結果，所有呼叫者看到相同語音。
func (s *MySQLStore) MarkAudioReady(id string, ownerID string, audio []byte, format string, durationSecs int64) (*models.Enhancement, error) {
	if id == "" || ownerID == "" {
		return nil, fmt.Errorf("無效的 ID 或擁有者")
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("語音資料不得為空 (ID: %s)", id)
	}
	query := `UPDATE enhancements
		SET audio_status = ?, audio_data = ?, audio_format = ?, audio_duration_seconds = ?
		WHERE enhancement_id = ? AND user_id = ? AND audio_status <> ?;`
	res, err := s.db.Exec(query, models.AudioStatusReady, audio, format, durationSecs, id, ownerID, models.AudioStatusReady)
	if err != nil {
		return nil, unavailable(fmt.Sprintf("更新 Enhancement %s 語音欄位失敗", id), err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		// 記錄不存在，或已經是 ready（另一個請求先完成）
		log.Printf("資訊：[MySQLStore] Enhancement %s 語音欄位未更新，讀取現存狀態。\n", id)
	} else {
		log.Printf("資訊：[MySQLStore] Enhancement %s 已轉為 ready（%d 秒）。\n", id, durationSecs)
	}
	return s.GetEnhancement(id, ownerID)
}

// MarkAudioFailed 把記錄標記為 failed（可重試的軟狀態）。
// 已經 ready 的記錄不會被降級。
func (s *MySQLStore) MarkAudioFailed(id string, ownerID string) error {
	if id == "" || ownerID == "" {
		return fmt.Errorf("無效的 ID 或擁有者")
	}
	query := `UPDATE enhancements SET audio_status = ?
		WHERE enhancement_id = ? AND user_id = ? AND audio_status <> ?;`
	if _, err := s.db.Exec(query, models.AudioStatusFailed, id, ownerID, models.AudioStatusReady); err != nil {
		return unavailable(fmt.Sprintf("標記 Enhancement %s 為 failed 失敗", id), err)
	}
	log.Printf("警告：[MySQLStore] Enhancement %s 已標記為 audio failed。\n", id)
	return nil
}

// ListAudioFailed 列出語音合成失敗的記錄（僅 ID 與擁有者），供重試掃描使用
func (s *MySQLStore) ListAudioFailed(limit int) ([]models.Enhancement, error) {
	query := `SELECT enhancement_id, user_id FROM enhancements
		WHERE audio_status = ? ORDER BY created_at ASC LIMIT ?;`
	rows, err := s.db.Query(query, models.AudioStatusFailed, limit)
	if err != nil {
		return nil, unavailable("查詢語音失敗記錄失敗", err)
	}
	defer rows.Close()
	var items []models.Enhancement
	for rows.Next() {
		var e models.Enhancement
		if err := rows.Scan(&e.ID, &e.UserID); err != nil {
			log.Printf("錯誤：[MySQLStore] 掃描語音失敗記錄行失敗: %v", err)
			continue
		}
		items = append(items, e)
	}
	if err = rows.Err(); err != nil {
		return nil, unavailable("處理語音失敗記錄結果集時發生錯誤", err)
	}
	return items, nil
}

// GetYouTubeCard 依 ID 讀取精選片段
func (s *MySQLStore) GetYouTubeCard(id string) (*models.YouTubeCard, error) {
	if id == "" {
		return nil, fmt.Errorf("無效的片段 ID")
	}
	query := `SELECT id, title, youtube_video_id, thumbnail_url, duration_seconds,
			start_time_seconds, end_time_seconds, clip_transcript, is_active, created_at, updated_at
		FROM youtube_cards WHERE id = ?;`
	var c models.YouTubeCard
	err := s.db.QueryRow(query, id).Scan(
		&c.ID, &c.Title, &c.YouTubeVideoID, &c.ThumbnailURL, &c.DurationSeconds,
		&c.StartTimeSeconds, &c.EndTimeSeconds, &c.ClipTranscript, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("片段 %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, unavailable(fmt.Sprintf("查詢片段 %s 失敗", id), err)
	}
	return &c, nil
}

// ListActiveYouTubeCards 列出啟用中的精選片段
func (s *MySQLStore) ListActiveYouTubeCards() ([]models.YouTubeCard, error) {
	query := `SELECT id, title, youtube_video_id, thumbnail_url, duration_seconds,
			start_time_seconds, end_time_seconds, clip_transcript, is_active, created_at, updated_at
		FROM youtube_cards WHERE is_active = TRUE ORDER BY created_at ASC;`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, unavailable("查詢精選片段清單失敗", err)
	}
	defer rows.Close()
	var cards []models.YouTubeCard
	for rows.Next() {
		var c models.YouTubeCard
		if err := rows.Scan(
			&c.ID, &c.Title, &c.YouTubeVideoID, &c.ThumbnailURL, &c.DurationSeconds,
			&c.StartTimeSeconds, &c.EndTimeSeconds, &c.ClipTranscript, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			log.Printf("錯誤：[MySQLStore] 掃描精選片段行失敗: %v", err)
			continue
		}
		cards = append(cards, c)
	}
	if err = rows.Err(); err != nil {
		return nil, unavailable("處理精選片段結果集時發生錯誤", err)
	}
	log.Printf("資訊：[MySQLStore] 查詢到 %d 個啟用中的精選片段。\n", len(cards))
	return cards, nil
}
