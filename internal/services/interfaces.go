package services

import (
	"StoryLift-api/internal/clients/tts"
	"StoryLift-api/internal/models"
	"context"
)

// AnalysisClient 介面定義了分析後端的操作
type AnalysisClient interface {
	Analyze(ctx context.Context, prompt models.EnhancementPrompt) (*models.EnhancementAnalysis, error)
}

// SpeechClient 介面定義了語音合成後端的操作
type SpeechClient interface {
	Synthesize(ctx context.Context, text string) (*tts.Result, error)
}
