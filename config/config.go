package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port                string              `mapstructure:"port"`
	CorpusDir           string              `mapstructure:"corpus_dir"`
	CORSAllowedOrigin   string              `mapstructure:"cors_allowed_origin"`
	AIConfig            AIConfig            `mapstructure:"ai_config"`
	WeaviateStoreConfig WeaviateStoreConfig `mapstructure:"weaviate_store_config"`
	MongoConfig         MongoConfig         `mapstructure:"mongo_config"`
	PipelineConfig      PipelineConfig      `mapstructure:"pipeline_config"`
	SearchConfig        SearchConfig        `mapstructure:"search_config"`
}

type AIConfig struct {
	Provider       string `mapstructure:"provider"` // "openai" or "gemini"
	Endpoint       string `mapstructure:"endpoint"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
	OpenAIAPIKey   string `mapstructure:"OPENAI_API_KEY"`
	GeminiAPIKeys  string `mapstructure:"GEMINI_API_KEYS"` // comma separated
}

type WeaviateStoreConfig struct {
	Host      string `mapstructure:"host"`
	APIKey    string `mapstructure:"WEAVIATE_APIKEY"`
	ClassName string `mapstructure:"class_name"`
}

type MongoConfig struct {
	URI      string `mapstructure:"MONGODB_URI"`
	Database string `mapstructure:"database"`
}

type PipelineConfig struct {
	MaxChunkSize   int      `mapstructure:"max_chunk_size"`
	OverlapSize    int      `mapstructure:"overlap_size"`
	EmbedBatchSize int      `mapstructure:"embed_batch_size"`
	TopK           int      `mapstructure:"top_k"`
	DomainKeywords []string `mapstructure:"domain_keywords"`
}

type SearchConfig struct {
	APIKey   string `mapstructure:"GOOGLE_SEARCH_API_KEY"`
	EngineID string `mapstructure:"search_engine_id"`
}

func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set up Viper to read from config file
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Set up Viper to read from environment variables
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Bind environment variables for secrets
	v.BindEnv("ai_config.OPENAI_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("ai_config.GEMINI_API_KEYS", "GEMINI_API_KEYS")
	v.BindEnv("weaviate_store_config.WEAVIATE_APIKEY", "WEAVIATE_APIKEY")
	v.BindEnv("mongo_config.MONGODB_URI", "MONGODB_URI")
	v.BindEnv("search_config.GOOGLE_SEARCH_API_KEY", "GOOGLE_SEARCH_API_KEY")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate reports missing required settings. A failure here is fatal at
// startup, nothing else in the pipeline is allowed to halt the process.
func (c *Config) Validate() error {
	if c.WeaviateStoreConfig.Host == "" {
		return fmt.Errorf("missing weaviate host")
	}
	if c.WeaviateStoreConfig.ClassName == "" {
		return fmt.Errorf("missing weaviate class name")
	}
	switch c.AIConfig.Provider {
	case "", "openai":
		if c.AIConfig.OpenAIAPIKey == "" {
			return fmt.Errorf("missing OPENAI_API_KEY")
		}
	case "gemini":
		if c.AIConfig.GeminiAPIKeys == "" {
			return fmt.Errorf("missing GEMINI_API_KEYS")
		}
	default:
		return fmt.Errorf("unknown ai provider: %s", c.AIConfig.Provider)
	}
	return nil
}
