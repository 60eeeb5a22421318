package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	SQLite  SQLiteConfig
	Redis   RedisConfig
	Vector  VectorConfig
	LLM     LLMConfig
	Mail    MailConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// VectorConfig is optional: an empty Endpoint disables the retrieval path.
type VectorConfig struct {
	Endpoint       string
	APIKey         string
	CollectionName string
	VectorDim      int
	TopK           int
	SpliceLimit    int
}

type LLMConfig struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	Temperature    float32
	MaxTokens      int
	TimeoutSec     int
}

type MailConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	Recipient string
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/facultyinsight")

	viper.SetEnvPrefix("FACULTYINSIGHT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Secrets carry no defaults, so they must be bound explicitly for
	// AutomaticEnv to surface them through Unmarshal.
	viper.MustBindEnv("llm.apikey")
	viper.MustBindEnv("redis.password")
	viper.MustBindEnv("vector.apikey")
	viper.MustBindEnv("mail.username")
	viper.MustBindEnv("mail.password")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 120)
	viper.SetDefault("server.bodyLimit", 1048576)

	viper.SetDefault("sqlite.path", "./data/facultyinsight.db")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("vector.endpoint", "")
	viper.SetDefault("vector.collectionName", "review_passages")
	viper.SetDefault("vector.vectorDim", 1536)
	viper.SetDefault("vector.topK", 310)
	viper.SetDefault("vector.spliceLimit", 10)

	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.embeddingModel", "text-embedding-3-small")
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.maxTokens", 2048)
	viper.SetDefault("llm.timeoutSec", 60)

	viper.SetDefault("mail.host", "smtp.gmail.com")
	viper.SetDefault("mail.port", 587)
	viper.SetDefault("mail.recipient", "facultyinsights@gmail.com")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
