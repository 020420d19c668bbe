package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config holds all configuration for the contentdesk server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	AI       AIConfig
	Video    VideoConfig
	Drive    DriveConfig
	RabbitMQ RabbitMQConfig
	Firm     FirmProfile
}

type ServerConfig struct {
	Port            int
	Env             string
	LogLevel        string
	APIKeyHash      string
	RateLimitPerMin int
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type AIConfig struct {
	Provider         string
	InferenceTimeout time.Duration
	OpenAI           OpenAIConfig
	Anthropic        AnthropicConfig
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// VideoConfig groups the poller schedule and the per-vendor adapter settings.
type VideoConfig struct {
	PollInterval   time.Duration
	PollCeiling    time.Duration
	RequestTimeout time.Duration
	HeyGen         HeyGenConfig
	Pictory        PictoryConfig
}

type HeyGenConfig struct {
	APIKey       string
	BaseURL      string
	AvatarMale   string
	AvatarFemale string
	VoiceEN      string
	VoiceES      string
}

type PictoryConfig struct {
	ClientID     string
	ClientSecret string
	UserID       string
	BaseURL      string
}

type DriveConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	TokenURL     string
	BaseURL      string
	UploadURL    string
	RootFolderID string
}

// Enabled reports whether enough credentials are present to attempt uploads.
func (d DriveConfig) Enabled() bool {
	return d.RefreshToken != ""
}

type RabbitMQConfig struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
}

var validProviders = map[string]bool{
	"openai":    true,
	"anthropic": true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Vendor credentials are deliberately optional here; adapters report their absence per call.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            envInt("CONTENTDESK_PORT", 8080),
			Env:             envString("CONTENTDESK_ENV", "development"),
			LogLevel:        envString("CONTENTDESK_LOG_LEVEL", "info"),
			APIKeyHash:      os.Getenv("CONTENTDESK_API_KEY_HASH"),
			RateLimitPerMin: envInt("CONTENTDESK_RATE_LIMIT", 120),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		AI: AIConfig{
			Provider:         envString("AI_PROVIDER", "openai"),
			InferenceTimeout: envDurationSecs("AI_INFERENCE_TIMEOUT_SECS", 90*time.Second),
			OpenAI: OpenAIConfig{
				APIKey:  os.Getenv("OPENAI_API_KEY"),
				Model:   envString("OPENAI_MODEL", "gpt-4-turbo-preview"),
				BaseURL: envString("OPENAI_BASE_URL", "https://api.openai.com"),
			},
			Anthropic: AnthropicConfig{
				APIKey:  os.Getenv("ANTHROPIC_API_KEY"),
				Model:   envString("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
				BaseURL: envString("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
			},
		},
		Video: VideoConfig{
			PollInterval:   envDuration("VIDEO_POLL_INTERVAL", 10*time.Second),
			PollCeiling:    envDuration("VIDEO_POLL_CEILING", 20*time.Minute),
			RequestTimeout: envDuration("VIDEO_REQUEST_TIMEOUT", 10*time.Second),
			HeyGen: HeyGenConfig{
				APIKey:       os.Getenv("HEYGEN_API_KEY"),
				BaseURL:      envString("HEYGEN_BASE_URL", "https://api.heygen.com"),
				AvatarMale:   envString("HEYGEN_AVATAR_MALE", "default_avatar_id"),
				AvatarFemale: envString("HEYGEN_AVATAR_FEMALE", "default_avatar_id"),
				VoiceEN:      envString("HEYGEN_VOICE_EN", "en-US-Standard-A"),
				VoiceES:      envString("HEYGEN_VOICE_ES", "es-ES-Standard-A"),
			},
			Pictory: PictoryConfig{
				ClientID:     os.Getenv("PICTORY_CLIENT_ID"),
				ClientSecret: os.Getenv("PICTORY_CLIENT_SECRET"),
				UserID:       envString("PICTORY_USER_ID", "default"),
				BaseURL:      envString("PICTORY_BASE_URL", "https://api.pictory.ai"),
			},
		},
		Drive: DriveConfig{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RefreshToken: os.Getenv("GOOGLE_REFRESH_TOKEN"),
			TokenURL:     envString("GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token"),
			BaseURL:      envString("DRIVE_BASE_URL", "https://www.googleapis.com"),
			UploadURL:    envString("DRIVE_UPLOAD_URL", "https://www.googleapis.com/upload"),
			RootFolderID: os.Getenv("DRIVE_ROOT_FOLDER_ID"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:        os.Getenv("RABBITMQ_URL"),
			Exchange:   envString("RABBITMQ_EXCHANGE", "contentdesk.videos"),
			RoutingKey: envString("RABBITMQ_ROUTING_KEY", "video.finished"),
			QueueName:  envString("RABBITMQ_QUEUE", "contentdesk.video-events"),
		},
	}

	firm, err := LoadFirmProfile(os.Getenv("FIRM_PROFILE_PATH"))
	if err != nil {
		return nil, fmt.Errorf("load firm profile: %w", err)
	}
	cfg.Firm = firm

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("AI_PROVIDER must be one of openai, anthropic; got %q", c.AI.Provider)
	}

	urls := map[string]string{
		"OPENAI_BASE_URL":    c.AI.OpenAI.BaseURL,
		"ANTHROPIC_BASE_URL": c.AI.Anthropic.BaseURL,
		"HEYGEN_BASE_URL":    c.Video.HeyGen.BaseURL,
		"PICTORY_BASE_URL":   c.Video.Pictory.BaseURL,
		"GOOGLE_TOKEN_URL":   c.Drive.TokenURL,
		"DRIVE_BASE_URL":     c.Drive.BaseURL,
		"DRIVE_UPLOAD_URL":   c.Drive.UploadURL,
	}
	for key, u := range urls {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("%s must start with http:// or https://, got %q", key, u)
		}
	}

	if c.Video.PollInterval <= 0 {
		return fmt.Errorf("VIDEO_POLL_INTERVAL must be positive, got %s", c.Video.PollInterval)
	}
	if c.Video.PollCeiling <= c.Video.PollInterval {
		return fmt.Errorf("VIDEO_POLL_CEILING (%s) must exceed VIDEO_POLL_INTERVAL (%s)",
			c.Video.PollCeiling, c.Video.PollInterval)
	}

	if c.Server.APIKeyHash != "" {
		if _, err := bcrypt.Cost([]byte(c.Server.APIKeyHash)); err != nil {
			return fmt.Errorf("CONTENTDESK_API_KEY_HASH is not a bcrypt hash: %w", err)
		}
	}

	if _, err := ParseLogLevel(c.Server.LogLevel); err != nil {
		return err
	}

	return nil
}

// ParseLogLevel maps a level name onto slog.Level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("CONTENTDESK_LOG_LEVEL must be one of debug, info, warn, error; got %q", level)
	}
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
