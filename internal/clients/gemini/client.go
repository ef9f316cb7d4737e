package gemini

import (
	"StoryLift-api/internal/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// languageNames 對應 ISO 639-1 語言碼到提示中使用的語言名稱，
// 同時也是支援語言的白名單。
var languageNames = map[string]string{
	"en": "English", "es": "Spanish", "fr": "French", "de": "German",
	"it": "Italian", "pt": "Portuguese", "ja": "Japanese", "ko": "Korean",
	"zh": "Chinese", "ru": "Russian", "ar": "Arabic", "hi": "Hindi",
}

// SupportedLanguage 回報語言碼是否在支援清單內
func SupportedLanguage(code string) bool {
	_, ok := languageNames[code]
	return ok
}

// Client 結構用於與 Gemini API 互動，是分析階段的唯一轉接器
type Client struct {
	model        *genai.GenerativeModel
	promptHeader string
}

// NewClient 建立一個 Gemini 客戶端實例。promptHeader 是設定檔中
// 目前版本的加強指令，會放在每次請求的最前面。
func NewClient(apiKey string, modelName string, promptHeader string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API Key 不得為空")
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash-latest"
		log.Printf("警告：[Gemini Client] 未提供模型名稱，使用預設值: %s\n", modelName)
	}
	if strings.TrimSpace(promptHeader) == "" {
		return nil, fmt.Errorf("加強指令 (promptHeader) 不得為空")
	}

	ctx := context.Background()
	genaiSDKClient, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("無法建立 Gemini GenAI SDK 客戶端: %w", err)
	}

	model := genaiSDKClient.GenerativeModel(modelName)
	var genConfig genai.GenerationConfig
	genConfig.ResponseMIMEType = "application/json"
	model.GenerationConfig = genConfig
	log.Printf("資訊：[Gemini Client] 模型 '%s' 初始化成功。\n", modelName)

	return &Client{model: model, promptHeader: promptHeader}, nil
}

// buildPrompt 組合完整的分析指令。兩種變體共用同一份輸出契約，
// 差別只在素材：照片變體附上影像，youtube 變體附上片段原始逐字稿。
func (c *Client) buildPrompt(prompt models.EnhancementPrompt) string {
	langName := languageNames[prompt.Language]
	if langName == "" {
		langName = "English"
	}

	var sb strings.Builder
	sb.WriteString(c.promptHeader)
	sb.WriteString("\n\nORIGINAL STORY:\n\"")
	sb.WriteString(prompt.UserTranscript)
	sb.WriteString("\"\n\nLANGUAGE: ")
	sb.WriteString(langName)

	switch prompt.Type {
	case models.PromptTypePhoto:
		sb.WriteString("\n\nA photo accompanies this story. Ground every enhancement in what the photo actually shows: scenery, colors, people, mood and atmosphere.")
	case models.PromptTypeYouTube:
		sb.WriteString("\n\nThe story is the user's take on the following video clip. Use the clip transcript as grounding context:\n\nSOURCE CLIP TRANSCRIPT:\n\"")
		sb.WriteString(prompt.SourceTranscript)
		sb.WriteString("\"")
	}

	sb.WriteString("\n\nRespond in ")
	sb.WriteString(langName)
	sb.WriteString(`. Keep the core narrative intact.

OUTPUT FORMAT (valid JSON only):
{
  "enhanced_transcript": "the enhanced story",
  "insights": {
    "plot": "plot improvements made",
    "character": "character development enhancements",
    "setting": "setting and atmosphere improvements",
    "mood": "tone and mood enhancements"
  }
}`)
	return sb.String()
}

// Analyze 向 Gemini 發送提示素材與使用者逐字稿，回傳加強後的
// 逐字稿與 insights。所有失敗都會被分類為 *AnalysisError。
func (c *Client) Analyze(ctx context.Context, prompt models.EnhancementPrompt) (*models.EnhancementAnalysis, error) {
	log.Printf("資訊：[Gemini Client] Analyze - 開始分析（類型: %s, 逐字稿長度: %d 字元）\n", prompt.Type, len(prompt.UserTranscript))

	requestParts := []genai.Part{genai.Text(c.buildPrompt(prompt))}
	if prompt.Type == models.PromptTypePhoto {
		requestParts = append(requestParts, genai.Blob{MIMEType: prompt.PhotoMIME, Data: prompt.PhotoData})
	}

	log.Println("資訊：[Gemini Client] Analyze - 正在向 Gemini API 發送請求...")
	resp, err := c.model.GenerateContent(ctx, requestParts...)
	if err != nil {
		return nil, classify(err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, &AnalysisError{Kind: FailureUnreachable, Err: fmt.Errorf("Gemini API 回應無效或為空 (nil response or no candidates)")}
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		if candidate.FinishReason != genai.FinishReasonStop && candidate.FinishReason != genai.FinishReasonUnspecified {
			for _, rating := range candidate.SafetyRatings {
				log.Printf("警告：[Gemini Client] 安全評級 - Category: %s, Probability: %s\n", rating.Category, rating.Probability)
			}
			return nil, &AnalysisError{Kind: FailureRejectedInput, Err: fmt.Errorf("內容被阻止，原因: %s", candidate.FinishReason.String())}
		}
		return nil, &AnalysisError{Kind: FailureUnreachable, Err: fmt.Errorf("Gemini API 回應無內容 (FinishReason: %s)", candidate.FinishReason.String())}
	}

	var responseTextBuilder strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseTextBuilder.WriteString(string(txt))
		} else {
			log.Printf("警告：[Gemini Client] Analyze - 收到非預期的 Part 類型: %T\n", part)
		}
	}
	rawResponse := responseTextBuilder.String()
	if strings.TrimSpace(rawResponse) == "" {
		return nil, &AnalysisError{Kind: FailureUnreachable, Err: fmt.Errorf("Gemini API 回傳的內容為空")}
	}

	cleaned := cleanJSONString(rawResponse)
	var analysis models.EnhancementAnalysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		log.Printf("錯誤：[Gemini Client] Analyze - 無法解析回應 JSON: %v\nCLEANED_JSON_START\n%s\nCLEANED_JSON_END\n", err, cleaned)
		return nil, &AnalysisError{Kind: FailureUnreachable, Err: fmt.Errorf("無法將 Gemini API 回應解析為 JSON: %w", err)}
	}
	if strings.TrimSpace(analysis.EnhancedTranscript) == "" {
		return nil, &AnalysisError{Kind: FailureUnreachable, Err: fmt.Errorf("回應缺少 enhanced_transcript")}
	}
	if len(analysis.Insights) == 0 {
		return nil, &AnalysisError{Kind: FailureUnreachable, Err: fmt.Errorf("回應的 insights 為空")}
	}

	log.Printf("資訊：[Gemini Client] Analyze - 分析成功（insights: %d 項）。\n", len(analysis.Insights))
	return &analysis, nil
}

// classify 把 SDK 層的錯誤分類為 AnalysisError
func classify(err error) *AnalysisError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &AnalysisError{Kind: FailureTimeout, Err: err}
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
			return &AnalysisError{Kind: FailureRejectedInput, Err: err}
		case http.StatusGatewayTimeout, http.StatusRequestTimeout:
			return &AnalysisError{Kind: FailureTimeout, Err: err}
		}
	}
	return &AnalysisError{Kind: FailureUnreachable, Err: err}
}

// cleanJSONString 清理從 LLM 收到的可能包含雜質的 JSON 字串：
// 移除 markdown 代碼塊、截取最外層物件、剔除無效 UTF-8 與控制字元。
func cleanJSONString(rawResponse string) string {
	cleaned := strings.TrimSpace(rawResponse)

	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	}
	cleaned = strings.TrimSpace(cleaned)

	// 截取最外層的 JSON 物件
	firstBrace := strings.Index(cleaned, "{")
	lastBrace := strings.LastIndex(cleaned, "}")
	if firstBrace != -1 && lastBrace > firstBrace {
		cleaned = cleaned[firstBrace : lastBrace+1]
	}

	if !utf8.ValidString(cleaned) {
		log.Println("警告：[Gemini Client Clean] 回應包含無效的 UTF-8 字元，嘗試替換...")
		cleaned = strings.ToValidUTF8(cleaned, "")
	}

	// 移除控制字元（保留換行與 tab，JSON 字串內的已被跳脫）
	var sb strings.Builder
	for _, r := range cleaned {
		if (r >= 0 && r < 9) || (r > 10 && r < 13) || (r > 13 && r < 32) || r == 127 {
			continue
		}
		sb.WriteRune(r)
	}
	return strings.TrimPrefix(strings.TrimSpace(sb.String()), "\uFEFF")
}
