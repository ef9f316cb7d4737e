package web

import (
	"StoryLift-api/internal/auth"
	"StoryLift-api/internal/config"
	"StoryLift-api/internal/services"
	"StoryLift-api/internal/web/handlers"
	"log"
	"net/http"
)

// SetupRouter 組合所有 HTTP 路由。加強流程的端點都經過身分解析；
// 精選片段目錄與健康檢查不需要身分。
func SetupRouter(appConfig *config.Config, db handlers.DBStore, enhanceService *services.EnhanceService, verifier auth.TokenVerifier) http.Handler {
	if enhanceService == nil {
		log.Panicln("SetupRouter：EnhanceService 不得為空")
	}
	mux := http.NewServeMux()

	authMW := handlers.NewAuthMiddleware(appConfig.Auth.Enabled, verifier)
	enhancementHandler := handlers.NewEnhancementHandler(enhanceService)

	mux.Handle("POST /api/v1/enhancements", authMW.Wrap(http.HandlerFunc(enhancementHandler.Create)))
	mux.Handle("GET /api/v1/enhancements", authMW.Wrap(http.HandlerFunc(enhancementHandler.List)))
	mux.Handle("GET /api/v1/enhancements/export", authMW.Wrap(http.HandlerFunc(enhancementHandler.ExportCSV)))
	mux.Handle("GET /api/v1/enhancements/{id}", authMW.Wrap(http.HandlerFunc(enhancementHandler.Detail)))
	mux.Handle("GET /api/v1/enhancements/{id}/audio", authMW.Wrap(http.HandlerFunc(enhancementHandler.Audio)))

	mux.Handle("GET /api/v1/youtube-cards", handlers.NewYouTubeCardsHandler(db))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write([]byte(`{"status":"ok"}`))
	})

	log.Println("資訊：HTTP 路由設定完成。")
	return mux
}
