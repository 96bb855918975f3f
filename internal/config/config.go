package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config is the complete service configuration
type Config struct {
	Server   ServerConfig   `json:"server" mapstructure:"server"`
	Dataset  DatasetConfig  `json:"dataset" mapstructure:"dataset"`
	Postgres PostgresConfig `json:"postgres" mapstructure:"postgres"`
	LLM      LLMConfig      `json:"llm" mapstructure:"llm"`
	Store    StoreConfig    `json:"store" mapstructure:"store"`
	Review   ReviewConfig   `json:"review" mapstructure:"review"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port           string   `json:"port" mapstructure:"port"`
	AllowedOrigins []string `json:"allowed_origins" mapstructure:"allowed_origins"`
	MaxUploadBytes int64    `json:"max_upload_bytes" mapstructure:"max_upload_bytes"`
}

// DatasetConfig says where the question and sector tables come from
type DatasetConfig struct {
	Source             string `json:"source" mapstructure:"source"`
	QuestionsPath      string `json:"questions_path" mapstructure:"questions_path"`
	SectorsPath        string `json:"sectors_path" mapstructure:"sectors_path"`
	QuestionTextColumn string `json:"question_text_column" mapstructure:"question_text_column"`
	AliasesPath        string `json:"aliases_path" mapstructure:"aliases_path"`
}

// PostgresConfig is used when dataset.source is postgres
type PostgresConfig struct {
	Host           string `json:"host" mapstructure:"host"`
	Port           int    `json:"port" mapstructure:"port"`
	User           string `json:"user" mapstructure:"user"`
	Password       string `json:"-" mapstructure:"password"`
	DBName         string `json:"dbname" mapstructure:"dbname"`
	SSLMode        string `json:"sslmode" mapstructure:"sslmode"`
	QuestionsTable string `json:"questions_table" mapstructure:"questions_table"`
	SectorsTable   string `json:"sectors_table" mapstructure:"sectors_table"`
}

// LLMConfig selects the answer assistant
type LLMConfig struct {
	Provider     string  `json:"provider" mapstructure:"provider"`
	Model        string  `json:"model" mapstructure:"model"`
	BaseURL      string  `json:"base_url" mapstructure:"base_url"`
	APIKey       string  `json:"-" mapstructure:"api_key"`
	Temperature  float64 `json:"temperature" mapstructure:"temperature"`
	ContextLimit int     `json:"context_limit" mapstructure:"context_limit"`
}

// StoreConfig locates the snapshot database; an empty path disables it
type StoreConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// ReviewConfig contains review limits
type ReviewConfig struct {
	PageSize       int `json:"page_size" mapstructure:"page_size"`
	MaxAnswerChars int `json:"max_answer_chars" mapstructure:"max_answer_chars"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8001")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://127.0.0.1:3000"})
	v.SetDefault("server.max_upload_bytes", 100*1024*1024)

	v.SetDefault("dataset.source", SourceCSV)
	v.SetDefault("dataset.questions_path", "data/cdpq.csv")
	v.SetDefault("dataset.sectors_path", "data/cdpq_sector_codes.csv")
	v.SetDefault("dataset.question_text_column", "2024_question")
	v.SetDefault("dataset.aliases_path", "")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.dbname", "cdp")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.questions_table", "cdpq")
	v.SetDefault("postgres.sectors_table", "cdpq_sector_codes")

	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.model", "qwen3-vl:2b")
	v.SetDefault("llm.base_url", "http://localhost:11434")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.context_limit", 10)

	v.SetDefault("store.path", "data/snapshots.db")

	v.SetDefault("review.page_size", 10)
	v.SetDefault("review.max_answer_chars", 4000)

	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.level", "info")
}

// Load reads configuration from defaults, an optional file and the
// environment (RPGPT_SERVER_PORT etc., plus PORT and GEMINI_API_KEY). With
// an empty path, ./rpgpt.{yaml,json,toml} is used when present.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RPGPT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("server.port", "RPGPT_SERVER_PORT", "PORT")
	_ = v.BindEnv("llm.api_key", "RPGPT_LLM_API_KEY", "GEMINI_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigName("rpgpt")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return &ConfigError{Field: "server.port", Message: "must not be empty"}
	}
	if c.Server.MaxUploadBytes <= 0 {
		return &ConfigError{Field: "server.max_upload_bytes", Message: "must be positive"}
	}

	switch c.Dataset.Source {
	case SourceCSV:
		if c.Dataset.QuestionsPath == "" {
			return &ConfigError{Field: "dataset.questions_path", Message: "required for csv source"}
		}
		if c.Dataset.SectorsPath == "" {
			return &ConfigError{Field: "dataset.sectors_path", Message: "required for csv source"}
		}
	case SourcePostgres:
		if c.Postgres.QuestionsTable == "" || c.Postgres.SectorsTable == "" {
			return &ConfigError{Field: "postgres.questions_table", Message: "question and sector tables are required for postgres source"}
		}
	default:
		return &ConfigError{Field: "dataset.source", Message: "must be csv or postgres"}
	}

	switch strings.ToLower(c.LLM.Provider) {
	case "ollama", "gemini", "":
	default:
		return &ConfigError{Field: "llm.provider", Message: "must be ollama or gemini"}
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return &ConfigError{Field: "llm.temperature", Message: "must be between 0 and 2"}
	}
	if c.LLM.ContextLimit <= 0 {
		return &ConfigError{Field: "llm.context_limit", Message: "must be positive"}
	}

	if c.Review.PageSize <= 0 {
		return &ConfigError{Field: "review.page_size", Message: "must be positive"}
	}
	if c.Review.MaxAnswerChars <= 0 {
		return &ConfigError{Field: "review.max_answer_chars", Message: "must be positive"}
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be json or console"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
