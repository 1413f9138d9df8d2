package config

import (
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log    Log    `yaml:"log"`
	Server Server `yaml:"server"`
	Game   Game   `yaml:"game"`
	LLM    LLM    `yaml:"llm"`
}

type Server struct {
	// Address the HTTP API listens on
	Listen string `yaml:"listen" example:":8790"`
}

type Game struct {
	// Display name of the player, substituted for the @ placeholder
	PlayerName string `yaml:"player_name" example:"Farmer" validate:"required"`
	// Game locale, e.g. en, ru, zh-CN; drives punctuation fixing
	Locale string `yaml:"locale" example:"en"`
	// Directory holding bio and dialogue data files
	DataDir string `yaml:"data_dir" example:"data"`
}

type LLM struct {
	// Backend provider: openai, ollama or dummy
	Provider string `yaml:"provider" example:"openai" validate:"required,oneof=openai ollama dummy"`
	// Base URL of the inference server
	BaseURL string `yaml:"base_url" example:"https://openrouter.ai/api/v1"`
	// API token
	Token string `yaml:"token" example:"sk-proj-abc123456789DEF789ghi012JKL345mno678PQR901stu234VWX"`
	// Model name
	Model string `yaml:"model" example:"deepseek/deepseek-chat-v3-0324:free"`
	// Per-attempt inference timeout in seconds
	QueryTimeout int `yaml:"query_timeout" example:"30" validate:"min=1"`
	// Dump prompts and raw model output to the log
	Debug bool `yaml:"debug" example:"false"`
	// Skip the startup connection probe
	SuppressConnectionCheck bool `yaml:"suppress_connection_check" example:"false"`
}

type Log struct {
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

// punctuationLocales are languages where dialogue lines end with western
// sentence punctuation, so a missing terminator can be fixed by appending one.
var punctuationLocales = []string{"en", "fr", "de", "es", "tr", "pt", "it", "nl", "pl", "id"}

// FixPunctuation reports whether normalized lines should get a terminal
// period appended when the model left one out.
func (c *Config) FixPunctuation() bool {
	if c.Game.Locale == "" {
		return true
	}
	lang := strings.SplitN(c.Game.Locale, "-", 2)[0]
	for _, l := range punctuationLocales {
		if strings.EqualFold(lang, l) {
			return true
		}
	}
	return false
}

// QueryTimeout is the configured per-attempt timeout as a duration.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.LLM.QueryTimeout) * time.Second
}

func Load() (*Config, error) {
	var result Config

	data, err := os.ReadFile("config.yaml")
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	if err = yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	if result.Server.Listen == "" {
		result.Server.Listen = ":8790"
	}
	if result.Game.Locale == "" {
		result.Game.Locale = "en"
	}
	if result.Game.DataDir == "" {
		result.Game.DataDir = "data"
	}
	if result.LLM.QueryTimeout == 0 {
		result.LLM.QueryTimeout = 30
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}
