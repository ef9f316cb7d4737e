package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnhancementPrompts 保存故事加強指令的版本集合
type EnhancementPrompts struct {
	CurrentVersion string            `mapstructure:"currentVersion"`
	Versions       map[string]string `mapstructure:"versions"`
}

// PromptConfig 結構
type PromptConfig struct {
	Enhancement EnhancementPrompts `mapstructure:"enhancement"`
}

// SchedulerConfig 控制語音重試掃描任務
type SchedulerConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	AudioRetryCronSpec string `mapstructure:"audioRetryCronSpec"`
	AudioRetryBatch    int    `mapstructure:"audioRetryBatch"`
}

// ServerConfig 結構
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// GeminiClientConfig 結構
type GeminiClientConfig struct {
	APIKey string `mapstructure:"apiKey"`
	Model  string `mapstructure:"model"`
}

// TTSClientConfig 是語音合成服務的連線設定
type TTSClientConfig struct {
	BaseURL        string `mapstructure:"baseURL"`
	APIKey         string `mapstructure:"apiKey"`
	VoiceID        string `mapstructure:"voiceID"`
	ModelID        string `mapstructure:"modelID"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds"`
}

// ProviderConfig 控制對上游 AI 服務的重試策略
type ProviderConfig struct {
	MaxAttempts       int `mapstructure:"maxAttempts"`
	BackoffBaseMillis int `mapstructure:"backoffBaseMillis"`
}

// AuthConfig 結構。Enabled 為 false 時以 X-Session-ID 作為匿名身分。
type AuthConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	GoogleClientID string `mapstructure:"googleClientID"`
}

// DatabaseConfig 結構
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbName"`
}

// Config 結構
type Config struct {
	AppName      string             `mapstructure:"appName"`
	Server       ServerConfig       `mapstructure:"server"`
	GeminiClient GeminiClientConfig `mapstructure:"geminiClient"`
	TTSClient    TTSClientConfig    `mapstructure:"ttsClient"`
	Providers    ProviderConfig     `mapstructure:"providers"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Prompts      PromptConfig       `mapstructure:"prompts"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
}

// CurrentEnhancementPrompt 回傳目前版本的加強指令文字
func (c *Config) CurrentEnhancementPrompt() string {
	return c.Prompts.Enhancement.Versions[c.Prompts.Enhancement.CurrentVersion]
}

// Load 讀取設定檔並套用預設值與環境變數
func Load(configPath string, configName string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(configPath)
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 設定預設值
	v.SetDefault("appName", "StoryLift-api")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 3306)
	v.SetDefault("geminiClient.model", "gemini-1.5-flash-latest")
	v.SetDefault("ttsClient.baseURL", "https://api.elevenlabs.io")
	v.SetDefault("ttsClient.voiceID", "21m00Tcm4TlvDq8ikWAM")
	v.SetDefault("ttsClient.modelID", "eleven_multilingual_v2")
	v.SetDefault("ttsClient.timeoutSeconds", 60)
	v.SetDefault("providers.maxAttempts", 2)
	v.SetDefault("providers.backoffBaseMillis", 300)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("prompts.enhancement.currentVersion", "default-v1")
	v.SetDefault("prompts.enhancement.versions.default-v1",
		"You are a creative story enhancement assistant. Enhance the user's story with rich, immersive detail while keeping its essence intact, and explain the improvements you made.")
	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.audioRetryCronSpec", "0 */5 * * * *")
	v.SetDefault("scheduler.audioRetryBatch", 10)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("警告：找不到設定檔，將使用預設值和環境變數。")
		} else {
			return nil, fmt.Errorf("讀取設定檔時發生錯誤: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("無法解析設定檔到結構: %w", err)
	}

	if cfg.GeminiClient.APIKey == "" {
		fmt.Println("警告：Gemini API Key 未設定！")
	}
	if cfg.TTSClient.APIKey == "" {
		fmt.Println("警告：TTS API Key 未設定！")
	}
	if cfg.Auth.Enabled && cfg.Auth.GoogleClientID == "" {
		return nil, fmt.Errorf("auth.enabled 為 true 時必須設定 auth.googleClientID")
	}

	fmt.Println("資訊：設定載入成功。")
	return &cfg, nil
}
