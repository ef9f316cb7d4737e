package services

import (
	"StoryLift-api/internal/clients/gemini"
	"StoryLift-api/internal/clients/tts"
	"StoryLift-api/internal/config"
	"StoryLift-api/internal/models"
	"StoryLift-api/internal/web/handlers"
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EnhanceService 是加強流程的協調器。第一階段（CreateEnhancement）
// 驅動文字分析並原子性地寫入記錄；第二階段（EnsureAudio）以冪等方式
// 產生語音。兩階段之間不共享任何進行中狀態，記錄的唯一擁有者是儲存層。
type EnhanceService struct {
	cfg      *config.Config
	db       handlers.DBStore
	analysis AnalysisClient
	speech   SpeechClient
	locks    *keyedMutex

	// 測試掛鉤
	now   func() time.Time
	newID func() string
	sleep func(ctx context.Context, d time.Duration) error
}

// NewEnhanceService 建立 EnhanceService 實例
func NewEnhanceService(
	cfg *config.Config,
	db handlers.DBStore,
	analysis AnalysisClient,
	speech SpeechClient,
) (*EnhanceService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("EnhanceService：設定不得為空")
	}
	if db == nil {
		return nil, fmt.Errorf("EnhanceService：DBStore 不得為空")
	}
	if analysis == nil {
		return nil, fmt.Errorf("EnhanceService：分析客戶端不得為空")
	}
	if speech == nil {
		return nil, fmt.Errorf("EnhanceService：語音客戶端不得為空")
	}
	log.Println("資訊：EnhanceService 初始化完成。")
	return &EnhanceService{
		cfg:      cfg,
		db:       db,
		analysis: analysis,
		speech:   speech,
		locks:    newKeyedMutex(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    newEnhancementID,
		sleep:    sleepCtx,
	}, nil
}

// newEnhancementID 產生 enh_ 開頭的不透明識別碼
func newEnhancementID() string {
	return "enh_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// maxAttempts 回傳對單一上游呼叫的嘗試次數上限（至少 1）
func (s *EnhanceService) maxAttempts() int {
	if s.cfg.Providers.MaxAttempts < 1 {
		return 1
	}
	return s.cfg.Providers.MaxAttempts
}

// backoff 回傳第 attempt 次失敗後的等待時間（指數成長）
func (s *EnhanceService) backoff(attempt int) time.Duration {
	base := time.Duration(s.cfg.Providers.BackoffBaseMillis) * time.Millisecond
	if base <= 0 {
		base = 300 * time.Millisecond
	}
	return base << attempt
}

// CreateEnhancement 執行第一階段：分析成功後才建立記錄。
// 分析失敗時不持久化任何東西；寫入失敗時錯誤會大聲地回給呼叫端，
// 絕不回傳沒有被記錄下來的分析結果。
func (s *EnhanceService) CreateEnhancement(ctx context.Context, ownerID string, prompt models.EnhancementPrompt) (*models.Enhancement, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("擁有者身分不得為空")
	}

	if prompt.Type == models.PromptTypeYouTube && prompt.CardID != "" {
		s.enrichFromCard(&prompt)
	}

	analysis, err := s.analyzeWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	e := &models.Enhancement{
		ID:                 s.newID(),
		UserID:             ownerID,
		CreatedAt:          s.now(),
		PromptType:         prompt.Type,
		UserTranscript:     prompt.UserTranscript,
		EnhancedTranscript: analysis.EnhancedTranscript,
		Insights:           analysis.Insights,
		Language:           prompt.Language,
		AudioStatus:        models.AudioStatusNotGenerated,
	}
	switch prompt.Type {
	case models.PromptTypePhoto:
		e.SourcePhotoBase64 = models.NewJsonNullString(base64.StdEncoding.EncodeToString(prompt.PhotoData))
		e.SourcePhotoMIME = sql.NullString{String: prompt.PhotoMIME, Valid: true}
	case models.PromptTypeYouTube:
		e.SourceTranscript = models.NewJsonNullString(prompt.SourceTranscript)
		if prompt.PromptTitle != "" {
			e.PromptTitle = sql.NullString{String: prompt.PromptTitle, Valid: true}
		}
		if prompt.ThumbnailURL != "" {
			e.YouTubeThumbnailURL = sql.NullString{String: prompt.ThumbnailURL, Valid: true}
		}
	}

	if err := s.db.CreateEnhancement(e); err != nil {
		return nil, fmt.Errorf("分析完成但寫入記錄失敗: %w", err)
	}
	log.Printf("資訊：[EnhanceService] 第一階段完成 (ID: %s, 類型: %s, insights: %d 項)\n", e.ID, e.PromptType, len(e.Insights))
	return e, nil
}

// enrichFromCard 以片段目錄補齊標題與縮圖。目錄屬於輔助服務，
// 查詢失敗只記錄警告，不阻斷加強流程。
func (s *EnhanceService) enrichFromCard(prompt *models.EnhancementPrompt) {
	card, err := s.db.GetYouTubeCard(prompt.CardID)
	if err != nil {
		log.Printf("警告：[EnhanceService] 查詢片段 %s 失敗，略過補齊: %v\n", prompt.CardID, err)
		return
	}
	if prompt.PromptTitle == "" {
		prompt.PromptTitle = card.Title
	}
	if prompt.ThumbnailURL == "" {
		prompt.ThumbnailURL = card.ThumbnailURL
	}
}

// analyzeWithRetry 呼叫分析轉接器，只對可重試的失敗種類做有限次重試
func (s *EnhanceService) analyzeWithRetry(ctx context.Context, prompt models.EnhancementPrompt) (*models.EnhancementAnalysis, error) {
	var lastErr error
	for attempt := 0; attempt < s.maxAttempts(); attempt++ {
		if attempt > 0 {
			log.Printf("警告：[EnhanceService] 分析重試（第 %d 次）...\n", attempt+1)
			if err := s.sleep(ctx, s.backoff(attempt-1)); err != nil {
				return nil, lastErr
			}
		}
		analysis, err := s.analysis.Analyze(ctx, prompt)
		if err == nil {
			return analysis, nil
		}
		lastErr = err
		var aerr *gemini.AnalysisError
		if !errors.As(err, &aerr) || !aerr.Retryable() {
			return nil, err
		}
	}
	return nil, lastErr
}

// EnsureAudio 執行第二階段：冪等地產生語音。
// 已經 ready 的記錄直接回傳快取結果，不會再次呼叫語音服務；
// 同一個 ID 的併發呼叫以每 ID 臨界區序列化，語音服務最多被有效呼叫一次。
// 失敗時記錄轉為 failed（可重試），第一階段的欄位永遠不被碰觸。
func (s *EnhanceService) EnsureAudio(ctx context.Context, ownerID string, id string) (*models.Enhancement, error) {
	if ownerID == "" || id == "" {
		return nil, fmt.Errorf("擁有者身分與 ID 不得為空")
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	e, err := s.db.GetEnhancement(id, ownerID)
	if err != nil {
		return nil, err
	}
	if e.AudioStatus == models.AudioStatusReady {
		log.Printf("資訊：[EnhanceService] Enhancement %s 語音已存在，直接回傳快取。\n", id)
		return e, nil
	}

	result, err := s.synthesizeWithRetry(ctx, e.EnhancedTranscript)
	if err != nil {
		if markErr := s.db.MarkAudioFailed(id, ownerID); markErr != nil {
			log.Printf("錯誤：[EnhanceService] 標記 Enhancement %s 為 failed 失敗: %v\n", id, markErr)
		}
		return nil, err
	}

	updated, err := s.db.MarkAudioReady(id, ownerID, result.Audio, result.Format, result.DurationSeconds)
	if err != nil {
		return nil, fmt.Errorf("語音合成完成但寫入記錄失敗: %w", err)
	}
	log.Printf("資訊：[EnhanceService] 第二階段完成 (ID: %s, %d bytes, %d 秒)\n", id, len(updated.AudioData), updated.AudioDurationSecs.Int64)
	return updated, nil
}

// synthesizeWithRetry 呼叫語音轉接器，只對可重試的失敗種類做有限次重試
func (s *EnhanceService) synthesizeWithRetry(ctx context.Context, text string) (*tts.Result, error) {
	var lastErr error
	for attempt := 0; attempt < s.maxAttempts(); attempt++ {
		if attempt > 0 {
			log.Printf("警告：[EnhanceService] 語音合成重試（第 %d 次）...\n", attempt+1)
			if err := s.sleep(ctx, s.backoff(attempt-1)); err != nil {
				return nil, lastErr
			}
		}
		result, err := s.speech.Synthesize(ctx, text)
		if err == nil {
			return result, nil
		}
		lastErr = err
		var serr *tts.SynthesisError
		if !errors.As(err, &serr) || !serr.Retryable() {
			return nil, err
		}
	}
	return nil, lastErr
}

// GetEnhancement 讀取單筆記錄（限定擁有者）
func (s *EnhanceService) GetEnhancement(ctx context.Context, ownerID string, id string) (*models.Enhancement, error) {
	return s.db.GetEnhancement(id, ownerID)
}

// ListEnhancements 分頁讀取歷史記錄
func (s *EnhanceService) ListEnhancements(ctx context.Context, ownerID string, limit int, offset int) (int, []models.Enhancement, error) {
	if limit < 1 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.db.ListEnhancements(ownerID, limit, offset)
}

// RetryFailedAudio 重新驅動語音合成失敗的記錄，走與使用者請求完全
// 相同的 EnsureAudio 路徑。供排程掃描使用。
func (s *EnhanceService) RetryFailedAudio(ctx context.Context, batch int) error {
	if batch < 1 {
		batch = 10
	}
	items, err := s.db.ListAudioFailed(batch)
	if err != nil {
		return fmt.Errorf("查詢語音失敗記錄失敗: %w", err)
	}
	if len(items) == 0 {
		return nil
	}
	log.Printf("資訊：[EnhanceService] 重試 %d 筆語音合成失敗的記錄...\n", len(items))
	var retried, succeeded int
	for _, item := range items {
		retried++
		if _, err := s.EnsureAudio(ctx, item.UserID, item.ID); err != nil {
			log.Printf("警告：[EnhanceService] Enhancement %s 語音重試仍失敗: %v\n", item.ID, err)
			continue
		}
		succeeded++
	}
	log.Printf("資訊：[EnhanceService] 語音重試完成（%d/%d 成功）。\n", succeeded, retried)
	return nil
}
