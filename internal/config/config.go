package config

import (
	"log"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type Config struct {
	// HTTP API
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// Interaction log store
	StoreDriver   string `env:"STORE_DRIVER" envDefault:"sqlite"`
	StoreDSN      string `env:"STORE_DSN" envDefault:"data/fairbot.db"`
	StorePageSize int    `env:"STORE_PAGE_SIZE" envDefault:"100"`

	// Correction matching
	CorrectionWindow int `env:"CORRECTION_WINDOW" envDefault:"20"`

	// Agent
	SystemPromptPath string `env:"SYSTEM_PROMPT_PATH"`
	AgentMaxSteps    int    `env:"AGENT_MAX_STEPS" envDefault:"4"`
	KnowledgeURL     string `env:"KNOWLEDGE_URL"`
	KnowledgeResults int    `env:"KNOWLEDGE_RESULTS" envDefault:"5"`

	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Telegram transport is started only when a token is set.
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	// Chat that receives the daily report; 0 disables delivery.
	TelegramReportChatID int64 `env:"TELEGRAM_REPORT_CHAT_ID"`

	// Daily report
	ReportCron string `env:"REPORT_CRON" envDefault:"0 21 * * *"`

	// Logging
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFilePath   string `env:"LOG_FILE_PATH"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"50"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	LogMaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"30"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func New() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
