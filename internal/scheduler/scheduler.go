package scheduler

import (
	"StoryLift-api/internal/services"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler 結構。唯一的排程任務是語音重試掃描：
// 把合成失敗的記錄重新送進與使用者請求相同的 EnsureAudio 路徑。
type Scheduler struct {
	cron          *cron.Cron
	audioRetryJob *AudioRetryJob
}

// NewScheduler 建立排程器並註冊語音重試任務
func NewScheduler(es *services.EnhanceService, audioRetryCronSpec string, batch int) *Scheduler {
	c := cron.New(cron.WithSeconds())

	audioRetryJob := NewAudioRetryJob(es, batch)
	if audioRetryCronSpec != "" {
		_, err := c.AddJob(audioRetryCronSpec, audioRetryJob)
		if err != nil {
			log.Fatalf("錯誤：無法新增語音重試任務到排程器 (spec: %s): %v", audioRetryCronSpec, err)
		}
		log.Printf("資訊：語音重試任務已註冊，排程：%s\n", audioRetryCronSpec)
	} else {
		log.Println("警告：未提供語音重試任務的 Cron 表達式，該任務將不會被排程。")
	}

	return &Scheduler{
		cron:          c,
		audioRetryJob: audioRetryJob,
	}
}

// Start 非阻塞啟動排程器
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("資訊：排程器已非阻塞啟動 (如果任務已註冊)。")
}

// Stop 優雅停止排程器
func (s *Scheduler) Stop() {
	log.Println("資訊：正在停止排程器...")
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
		log.Println("資訊：排程器已優雅停止，所有運行中任務已完成。")
	case <-time.After(10 * time.Second):
		log.Println("警告：排程器停止超時，可能仍有任務在執行。")
	}
}
