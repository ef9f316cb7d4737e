package scheduler

import (
	"StoryLift-api/internal/services"
	"context"
	"log"
	"sync"
)

// AudioRetryJob 定期重試語音合成失敗的記錄
type AudioRetryJob struct {
	enhanceService *services.EnhanceService
	batch          int
	mu             sync.Mutex
	isRunning      bool
}

// NewAudioRetryJob 建立 AudioRetryJob 實例
func NewAudioRetryJob(es *services.EnhanceService, batch int) *AudioRetryJob {
	if es == nil {
		log.Panicln("AudioRetryJob：EnhanceService 不得為空")
	}
	return &AudioRetryJob{enhanceService: es, batch: batch}
}

// Run 實現 cron.Job 介面。上一輪尚未結束時跳過本輪。
func (j *AudioRetryJob) Run() {
	j.mu.Lock()
	if j.isRunning {
		j.mu.Unlock()
		log.Println("警告：[AudioRetryJob] 上一輪語音重試仍在進行中，跳過本輪。")
		return
	}
	j.isRunning = true
	j.mu.Unlock()

	defer func() {
		j.mu.Lock()
		j.isRunning = false
		j.mu.Unlock()
	}()

	log.Println("資訊：[AudioRetryJob] 開始執行語音重試掃描...")
	if err := j.enhanceService.RetryFailedAudio(context.Background(), j.batch); err != nil {
		log.Printf("錯誤：[AudioRetryJob] 語音重試掃描失敗: %v", err)
		return
	}
	log.Println("資訊：[AudioRetryJob] 語音重試掃描完成。")
}
