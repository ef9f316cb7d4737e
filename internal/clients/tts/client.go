package tts

import (
	"StoryLift-api/internal/config"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"strings"
	"time"
)

const (
	synthesizePathFormat = "/v1/text-to-speech/%s"

	headerAPIKey      = "xi-api-key"
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
	contentTypeMPEG   = "audio/mpeg"

	audioFormat = "mp3"

	// 語速估計值，用於從文字長度推算語音長度
	wordsPerSecond = 2.6
)

// Client 是語音合成服務的 HTTP 客戶端。對相同文字重複呼叫是安全的，
// 但不保證位元組層級相同的輸出；是否重複呼叫由協調器控制。
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	voiceID    string
	modelID    string
}

// synthesisRequest 是合成請求的 JSON 載荷
type synthesisRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// errorResponse 是服務回傳的結構化錯誤
type errorResponse struct {
	Detail struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"detail"`
}

// Result 是一次成功合成的輸出
type Result struct {
	Audio           []byte
	Format          string
	DurationSeconds int64
}

// NewClient 依設定建立語音合成客戶端
func NewClient(cfg config.TTSClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("TTS baseURL 不得為空")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("TTS API Key 不得為空")
	}
	if cfg.VoiceID == "" {
		return nil, fmt.Errorf("TTS voiceID 不得為空")
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	log.Printf("資訊：[TTS Client] 初始化成功（voice: %s, model: %s）。\n", cfg.VoiceID, cfg.ModelID)
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		voiceID:    cfg.VoiceID,
		modelID:    cfg.ModelID,
	}, nil
}

// Synthesize 把文字轉為 MP3 語音。所有失敗都會被分類為 *SynthesisError。
func (c *Client) Synthesize(ctx context.Context, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &SynthesisError{Kind: FailureMalformedOutput, Err: fmt.Errorf("要合成的文字不得為空")}
	}

	body, err := json.Marshal(synthesisRequest{Text: text, ModelID: c.modelID})
	if err != nil {
		return nil, &SynthesisError{Kind: FailureMalformedOutput, Err: fmt.Errorf("序列化合成請求失敗: %w", err)}
	}

	url := c.baseURL + fmt.Sprintf(synthesizePathFormat, c.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &SynthesisError{Kind: FailureUnavailable, Err: fmt.Errorf("建立合成請求失敗: %w", err)}
	}
	req.Header.Set(headerAPIKey, c.apiKey)
	req.Header.Set(headerContentType, contentTypeJSON)
	req.Header.Set(headerAccept, contentTypeMPEG)

	log.Printf("資訊：[TTS Client] Synthesize - 正在發送合成請求（文字長度: %d 字元）...\n", len(text))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &SynthesisError{Kind: FailureUnavailable, Err: fmt.Errorf("合成請求失敗: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		kind := FailureUnavailable
		if resp.StatusCode == http.StatusTooManyRequests {
			kind = FailureRateLimited
		}
		var detail errorResponse
		if json.Unmarshal(raw, &detail) == nil && detail.Detail.Message != "" {
			return nil, &SynthesisError{Kind: kind, Err: fmt.Errorf("語音服務回傳 %d（%s）: %s", resp.StatusCode, detail.Detail.Status, detail.Detail.Message)}
		}
		return nil, &SynthesisError{Kind: kind, Err: fmt.Errorf("語音服務回傳非預期狀態 %d: %s", resp.StatusCode, string(raw))}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &SynthesisError{Kind: FailureUnavailable, Err: fmt.Errorf("讀取語音資料失敗: %w", err)}
	}
	if len(audio) == 0 {
		return nil, &SynthesisError{Kind: FailureMalformedOutput, Err: fmt.Errorf("語音服務回傳空的音訊資料")}
	}
	if ct := resp.Header.Get(headerContentType); ct != "" && !strings.HasPrefix(ct, "audio/") {
		return nil, &SynthesisError{Kind: FailureMalformedOutput, Err: fmt.Errorf("非預期的 Content-Type: %s", ct)}
	}

	duration := estimateDurationSeconds(text)
	log.Printf("資訊：[TTS Client] Synthesize - 合成完成（%d bytes，約 %d 秒）。\n", len(audio), duration)
	return &Result{Audio: audio, Format: audioFormat, DurationSeconds: duration}, nil
}

// estimateDurationSeconds 依字數推算語音長度。
// 語音服務只回傳原始 MP3，不附長度中繼資料。
func estimateDurationSeconds(text string) int64 {
	words := len(strings.Fields(text))
	secs := int64(math.Round(float64(words) / wordsPerSecond))
	if secs < 1 {
		secs = 1
	}
	return secs
}
