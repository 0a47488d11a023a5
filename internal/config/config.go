// Package config provides configuration loading, validation, and management
// for the oppscout application. It handles reading from YAML files,
// environment variables, default values, and validating configuration
// parameters.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config defines the application configuration parameters for all components
// of the oppscout system: logging, HTTP server, database, queue, debounce
// batching, AI integration, delivery, workers, and scheduled tasks.
type Config struct {
	Log          LogConfig          `mapstructure:"log"`
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Queue        QueueConfig        `mapstructure:"queue"`
	Batcher      BatcherConfig      `mapstructure:"batcher"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	AI           AIConfig           `mapstructure:"ai"`
	Delivery     DeliveryConfig     `mapstructure:"delivery"`
	Worker       WorkerConfig       `mapstructure:"worker"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	Messages     MessagesConfig     `mapstructure:"messages"`
}

// LogConfig controls log level and output format.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// ServerConfig holds HTTP server settings for the ingestion endpoints.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"             validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"     validate:"min=1s"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"    validate:"min=1s"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=1s"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// QueueConfig holds Redis connection parameters for the durable queue.
type QueueConfig struct {
	RedisURL   string        `mapstructure:"redis_url"   validate:"required"`
	Name       string        `mapstructure:"name"        validate:"required"`
	PopTimeout time.Duration `mapstructure:"pop_timeout" validate:"min=100ms,max=1m"`
}

// BatcherConfig controls the per-sender debounce window.
type BatcherConfig struct {
	Window time.Duration `mapstructure:"window" validate:"min=100ms,max=5m"`
}

// ConversationConfig controls conversation history retention.
type ConversationConfig struct {
	MaxHistory int `mapstructure:"max_history" validate:"min=1,max=1000"`
}

// AIConfig holds settings for the language-model collaborator.
type AIConfig struct {
	APIKey             string        `mapstructure:"api_key"              validate:"required"`
	Model              string        `mapstructure:"model"                validate:"required"`
	EmbeddingModel     string        `mapstructure:"embedding_model"      validate:"required"`
	Temperature        float32       `mapstructure:"temperature"          validate:"min=0,max=2"`
	Instruction        string        `mapstructure:"instruction"          validate:"required"`
	ExtractInstruction string        `mapstructure:"extract_instruction"  validate:"required"`
	MaxRetries         int           `mapstructure:"max_retries"          validate:"min=0,max=10"`
	RetryDelaySeconds  int           `mapstructure:"retry_delay_seconds"  validate:"min=1,max=60"`
	Timeout            time.Duration `mapstructure:"timeout"              validate:"min=1s,max=10m"`
}

// DeliveryConfig holds credentials and endpoint for the SMS delivery API.
type DeliveryConfig struct {
	BaseURL    string        `mapstructure:"base_url"    validate:"required,url"`
	AccountSID string        `mapstructure:"account_sid" validate:"required"`
	AuthToken  string        `mapstructure:"auth_token"  validate:"required"`
	FromNumber string        `mapstructure:"from_number" validate:"required"`
	Timeout    time.Duration `mapstructure:"timeout"     validate:"min=1s,max=2m"`
}

// WorkerConfig controls the dispatch worker pool size.
type WorkerConfig struct {
	Count int `mapstructure:"count" validate:"min=1,max=64"`
}

// SchedulerConfig holds the scheduled task definitions.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig configures one scheduled task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// MessagesConfig holds canned user-facing reply texts.
type MessagesConfig struct {
	Welcome           string `mapstructure:"welcome"            validate:"required"`
	AskBackground     string `mapstructure:"ask_background"     validate:"required"`
	AskInterests      string `mapstructure:"ask_interests"      validate:"required"`
	OnboardingDone    string `mapstructure:"onboarding_done"    validate:"required"`
	GeneralError      string `mapstructure:"general_error"      validate:"required"`
	RetryPrompt       string `mapstructure:"retry_prompt"       validate:"required"`
	NoRecommendations string `mapstructure:"no_recommendations" validate:"required"`
}

// Load reads configuration from defaults, then the given YAML file (if it
// exists), then OPPSCOUT_* environment variables, and validates the result.
func Load(configPath string) (*Config, error) {
	setDefaults()

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("OPPSCOUT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Missing config file is fine, defaults plus env apply.
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.json", true)

	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.read_timeout", 10*time.Second)
	viper.SetDefault("server.write_timeout", 10*time.Second)
	viper.SetDefault("server.shutdown_timeout", 15*time.Second)

	viper.SetDefault("database.path", "oppscout.db")

	viper.SetDefault("queue.name", "sms_messages")
	viper.SetDefault("queue.pop_timeout", 5*time.Second)

	viper.SetDefault("batcher.window", 3*time.Second)

	viper.SetDefault("conversation.max_history", 50)

	viper.SetDefault("ai.model", "gemini-2.0-flash")
	viper.SetDefault("ai.embedding_model", "text-embedding-004")
	viper.SetDefault("ai.temperature", 1.0)
	viper.SetDefault("ai.instruction", "You are a friendly assistant who helps people discover opportunities that match their background and interests. Keep replies short enough for SMS.")
	viper.SetDefault("ai.extract_instruction", "Extract structured profile information from the onboarding conversation. Use empty strings for fields with no information. For username, prefer the person's first name. For location, use the most detailed location mentioned. Write the bio as a dense 5-6 sentence summary of everything known about the person.")
	viper.SetDefault("ai.max_retries", 3)
	viper.SetDefault("ai.retry_delay_seconds", 2)
	viper.SetDefault("ai.timeout", 2*time.Minute)

	viper.SetDefault("delivery.base_url", "https://api.twilio.com")
	viper.SetDefault("delivery.timeout", 30*time.Second)

	viper.SetDefault("worker.count", 1)

	viper.SetDefault("scheduler.tasks.daily_recommendations.enabled", true)
	viper.SetDefault("scheduler.tasks.daily_recommendations.schedule", "0 * * * *")
	viper.SetDefault("scheduler.tasks.embed_opportunities.enabled", true)
	viper.SetDefault("scheduler.tasks.embed_opportunities.schedule", "*/15 * * * *")
	viper.SetDefault("scheduler.tasks.sql_maintenance.enabled", true)
	viper.SetDefault("scheduler.tasks.sql_maintenance.schedule", "0 3 * * *")

	viper.SetDefault("messages.welcome", "Welcome! To get started, I'd like to know your name. What should I call you?")
	viper.SetDefault("messages.ask_background", "Great! Could you tell me a bit about your background? Where are you from, what's your education, and what do you do?")
	viper.SetDefault("messages.ask_interests", "Thanks! What are your main interests and what kind of opportunities are you looking for?")
	viper.SetDefault("messages.onboarding_done", "Thanks for sharing all this information! Your profile is now complete.")
	viper.SetDefault("messages.general_error", "Sorry, I encountered an error. Please try again later.")
	viper.SetDefault("messages.retry_prompt", "Sorry, I lost track of where we were. Could you send that again?")
	viper.SetDefault("messages.no_recommendations", "Sorry, no new opportunities found for you right now. I'll keep looking!")
}
