package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Batch     BatchConfig
	Media     MediaConfig
	Providers ProviderConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration int // hours
}

type RateLimitConfig struct {
	UploadPerHour   int
	GeneratePerHour int
	ExportPerHour   int
}

type BatchConfig struct {
	MaxSize          int
	DailyFreeCredits int64
	MinUploadMs      int
}

type MediaConfig struct {
	MaxDimension int
	FFmpegPath   string
}

type ProviderConfig struct {
	GroqBaseURL   string
	GeminiBaseURL string
	OpenAIBaseURL string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("server.port", "3000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.expiration", 24)
	viper.SetDefault("ratelimit.upload_per_hour", 120)
	viper.SetDefault("ratelimit.generate_per_hour", 60)
	viper.SetDefault("ratelimit.export_per_hour", 60)
	viper.SetDefault("batch.max_size", 800)
	viper.SetDefault("batch.daily_free_credits", 50)
	viper.SetDefault("batch.min_upload_ms", 1000)
	viper.SetDefault("media.max_dimension", 800)
	viper.SetDefault("media.ffmpeg_path", "ffmpeg")
	viper.SetDefault("providers.groq_base_url", "https://api.groq.com/openai/v1")
	viper.SetDefault("providers.gemini_base_url", "https://generativelanguage.googleapis.com/v1beta")
	viper.SetDefault("providers.openai_base_url", "https://api.openai.com/v1")

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetString("server.port"),
			Env:  viper.GetString("server.env"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     viper.GetString("jwt.secret"),
			Expiration: viper.GetInt("jwt.expiration"),
		},
		RateLimit: RateLimitConfig{
			UploadPerHour:   viper.GetInt("ratelimit.upload_per_hour"),
			GeneratePerHour: viper.GetInt("ratelimit.generate_per_hour"),
			ExportPerHour:   viper.GetInt("ratelimit.export_per_hour"),
		},
		Batch: BatchConfig{
			MaxSize:          viper.GetInt("batch.max_size"),
			DailyFreeCredits: viper.GetInt64("batch.daily_free_credits"),
			MinUploadMs:      viper.GetInt("batch.min_upload_ms"),
		},
		Media: MediaConfig{
			MaxDimension: viper.GetInt("media.max_dimension"),
			FFmpegPath:   viper.GetString("media.ffmpeg_path"),
		},
		Providers: ProviderConfig{
			GroqBaseURL:   viper.GetString("providers.groq_base_url"),
			GeminiBaseURL: viper.GetString("providers.gemini_base_url"),
			OpenAIBaseURL: viper.GetString("providers.openai_base_url"),
		},
	}

	return cfg, nil
}
