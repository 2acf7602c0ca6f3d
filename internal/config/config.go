package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Ai         AIConfig
	Moderation ModerationConfig
	Chat       ChatConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	AlertLogFilePath   string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
	OtelEnabled        bool
}

type DatabaseConfig struct {
	Connection      string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogSQL          bool
}

type AIConfig struct {
	LLMProvider       string // "openai" or "ollama"
	LLMModel          string
	EmbeddingProvider string // "openai" or "ollama"
	EmbeddingModel    string
	EmbeddingDims     int
	OpenAIKey         string
	OpenAIBaseURL     string
	OllamaBaseURL     string
}

type ModerationConfig struct {
	Provider string // "openai" or "keyword"
	Model    string
}

// ChatConfig groups every knob the turn pipeline reads. It is handed to the
// memory window, the orchestrator and the anonymous adapter at construction.
type ChatConfig struct {
	DefaultTitle    string
	TitleLength     int
	MaxMessageChars int

	// Memory window, all sizes in characters.
	WindowBudget       int
	SummaryThreshold   int
	RecentTurns        int
	SummaryMaxMessages int

	PassageLimit           int
	PassageMaxChars        int
	RetrievalMinSimilarity float64

	ModelTimeout      time.Duration
	ModerationTimeout time.Duration
	RetrievalTimeout  time.Duration
	TurnLockTTL       time.Duration

	AnonDailyQuota  int
	AnonGroupScope  string
	QuotaTimezone   string
	FeatureFlagsTTL time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			AlertLogFilePath:   getEnv("ALERT_LOG_FILE_PATH", "logs/moderation_alerts.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Database: DatabaseConfig{
			Connection:      getEnv("DB_CONNECTION_STRING", ""),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 50),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			LogSQL:          getEnvAsBool("DB_LOG_SQL", false),
		},
		Ai: AIConfig{
			LLMProvider:       getEnv("LLM_PROVIDER", "openai"),
			LLMModel:          getEnv("LLM_MODEL", "gpt-4o-mini"),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "openai"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDims:     getEnvAsInt("EMBEDDING_DIMENSIONS", 1536),
			OpenAIKey:         getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		},
		Moderation: ModerationConfig{
			Provider: getEnv("MODERATION_PROVIDER", "openai"),
			Model:    getEnv("MODERATION_MODEL", "omni-moderation-latest"),
		},
		Chat: LoadChatConfig(),
	}
}

// LoadChatConfig reads only the chat section. Tests and tools that do not
// need the rest of the environment use it directly.
func LoadChatConfig() ChatConfig {
	return ChatConfig{
		DefaultTitle:           getEnv("CHAT_DEFAULT_TITLE", "New Chat"),
		TitleLength:            getEnvAsInt("CHAT_TITLE_LENGTH", 40),
		MaxMessageChars:        getEnvAsInt("CHAT_MAX_MESSAGE_CHARS", 4000),
		WindowBudget:           getEnvAsInt("CHAT_WINDOW_BUDGET", 12000),
		SummaryThreshold:       getEnvAsInt("CHAT_SUMMARY_THRESHOLD", 6000),
		RecentTurns:            getEnvAsInt("CHAT_RECENT_TURNS", 4),
		SummaryMaxMessages:     getEnvAsInt("CHAT_SUMMARY_MAX_MESSAGES", 40),
		PassageLimit:           getEnvAsInt("CHAT_PASSAGE_LIMIT", 3),
		PassageMaxChars:        getEnvAsInt("CHAT_PASSAGE_MAX_CHARS", 500),
		RetrievalMinSimilarity: getEnvAsFloat("CHAT_RETRIEVAL_MIN_SIMILARITY", 0.3),
		ModelTimeout:           getEnvAsDuration("CHAT_MODEL_TIMEOUT", 90*time.Second),
		ModerationTimeout:      getEnvAsDuration("CHAT_MODERATION_TIMEOUT", 10*time.Second),
		RetrievalTimeout:       getEnvAsDuration("CHAT_RETRIEVAL_TIMEOUT", 15*time.Second),
		TurnLockTTL:            getEnvAsDuration("CHAT_TURN_LOCK_TTL", 3*time.Minute),
		AnonDailyQuota:         getEnvAsInt("ANON_DAILY_QUOTA", 5),
		AnonGroupScope:         getEnv("ANON_GROUP_SCOPE", "public"),
		QuotaTimezone:          getEnv("QUOTA_TIMEZONE", "UTC"),
		FeatureFlagsTTL:        getEnvAsDuration("FEATURE_FLAGS_TTL", 30*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
