package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all configuration for chatdocs
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Feishu   FeishuConfig   `mapstructure:"feishu"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// AdminConfig holds admin authentication configuration
type AdminConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// DatabaseConfig holds the transcript database configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// StorageConfig holds document and index storage configuration
type StorageConfig struct {
	UploadRoot string `mapstructure:"upload_root"`
	VectorRoot string `mapstructure:"vector_root"`
}

// LLMConfig holds QA engine provider configuration
type LLMConfig struct {
	BaseURL        string  `mapstructure:"base_url"`
	APIKey         string  `mapstructure:"api_key"`
	EmbeddingModel string  `mapstructure:"embedding_model"`
	ChatModel      string  `mapstructure:"chat_model"`
	TopK           int     `mapstructure:"top_k"`
	ChunkSize      int     `mapstructure:"chunk_size"`
	ChunkOverlap   int     `mapstructure:"chunk_overlap"`
	ScoreThreshold float64 `mapstructure:"score_threshold"`
}

// FeishuConfig holds the Feishu bot integration configuration
type FeishuConfig struct {
	BaseURL           string `mapstructure:"base_url"`
	AppID             string `mapstructure:"app_id"`
	AppSecret         string `mapstructure:"app_secret"`
	VerificationToken string `mapstructure:"verification_token"`
	KnowledgeBaseID   string `mapstructure:"knowledge_base_id"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file if specified
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("CHATDOCS")
	v.AutomaticEnv()

	// Read config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 6006)

	v.SetDefault("admin.api_key", "")

	v.SetDefault("database.path", "./data/chatdocs.db")
	v.SetDefault("storage.upload_root", "./data/content")
	v.SetDefault("storage.vector_root", "./data/vector_store")

	v.SetDefault("llm.base_url", "http://localhost:11434/v1")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.embedding_model", "nomic-embed-text")
	v.SetDefault("llm.chat_model", "qwen2.5:7b")
	v.SetDefault("llm.top_k", 5)
	v.SetDefault("llm.chunk_size", 1000)
	v.SetDefault("llm.chunk_overlap", 200)
	v.SetDefault("llm.score_threshold", 0)

	v.SetDefault("feishu.base_url", "https://open.feishu.cn")
	v.SetDefault("feishu.app_id", "")
	v.SetDefault("feishu.app_secret", "")
	v.SetDefault("feishu.verification_token", "")
	v.SetDefault("feishu.knowledge_base_id", "default")
}

// Address returns the server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
